// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package readers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"pii-linkage/internal/detector"
)

// TextReader reads plain text. Form feeds separate pages. Files that are not
// valid UTF-8 are decoded as Windows-1252.
type TextReader struct{}

func (TextReader) Read(_ context.Context, path string) ([]Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	sheet := Sheet{}
	for i, page := range strings.Split(text, "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		sheet.Segments = append(sheet.Segments, detector.TextSegment{
			Text:       page,
			Page:       i,
			FileType:   fileType(path),
			SourcePath: path,
		})
	}
	if len(sheet.Segments) == 0 {
		return nil, nil
	}
	return []Sheet{sheet}, nil
}

func decodeText(data []byte) (string, error) {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(out), nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package readers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pii-linkage/internal/detector"
)

// CSVReader reads a delimited table. Row 0 holds the column headers; every
// non-empty cell below it becomes a segment labelled with its header.
type CSVReader struct {
	Comma rune
}

func (r CSVReader) Read(ctx context.Context, path string) ([]Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(strings.NewReader(text))
	if r.Comma != 0 {
		cr.Comma = r.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sheet := Sheet{Name: name}
	for row := 1; ; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Row content is not echoed; csv.ParseError only carries positions.
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		for col, cell := range record {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			header := ""
			if col < len(headers) {
				header = headers[col]
			}
			sheet.Segments = append(sheet.Segments, detector.TextSegment{
				Text:         cell,
				Page:         0,
				Sheet:        name,
				ColumnHeader: header,
				Row:          row,
				FileType:     fileType(path),
				SourcePath:   path,
			})
		}
	}
	return []Sheet{sheet}, nil
}

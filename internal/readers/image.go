// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package readers

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"pii-linkage/internal/detector"
)

// exifTextFields are the tags that commonly carry free text about people.
var exifTextFields = map[exif.FieldName]bool{
	exif.Artist:           true,
	exif.Copyright:        true,
	exif.ImageDescription: true,
	exif.UserComment:      true,
	exif.Make:             true,
	exif.Model:            true,
	exif.Software:         true,
	exif.DateTimeOriginal: true,
}

type textWalker struct {
	lines map[string]string
}

func (w *textWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag == nil || !exifTextFields[name] {
		return nil
	}
	var value string
	if tag.Format() == tiff.StringVal {
		s, err := tag.StringVal()
		if err != nil {
			return nil
		}
		value = s
	} else {
		value = strings.Trim(tag.String(), `"`)
	}
	value = strings.TrimSpace(strings.TrimRight(value, "\x00"))
	if value != "" {
		w.lines[string(name)] = value
	}
	return nil
}

// ImageReader extracts EXIF text tags and GPS coordinates from JPEG and TIFF
// files as a single "Tag: value" segment. Images without EXIF yield nothing.
type ImageReader struct{}

func (ImageReader) Read(_ context.Context, path string) ([]Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, nil
	}

	w := &textWalker{lines: make(map[string]string)}
	if err := x.Walk(w); err != nil {
		return nil, fmt.Errorf("failed to walk EXIF tags: %w", err)
	}
	if lat, long, err := x.LatLong(); err == nil {
		w.lines["GPS"] = fmt.Sprintf("%.6f, %.6f", lat, long)
	}
	if len(w.lines) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(w.lines))
	for name := range w.lines {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, w.lines[name])
	}

	return []Sheet{{Segments: []detector.TextSegment{{
		Text:       b.String(),
		FileType:   fileType(path),
		SourcePath: path,
	}}}}, nil
}

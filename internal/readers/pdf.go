// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package readers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"pii-linkage/internal/detector"
)

// ErrInvalidPDF is returned when a file fails structural validation.
var ErrInvalidPDF = errors.New("invalid PDF")

const (
	DefaultMaxPages   = 500
	defaultPageWorker = 4
)

// PDFReader validates a PDF with pdfcpu and extracts one segment per page.
// AcroForm field values, when present, follow as a final segment.
type PDFReader struct {
	MaxPages int
}

func (r PDFReader) Read(ctx context.Context, path string) ([]Sheet, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	f, doc, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	maxPages := r.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	pageCount := min(doc.NumPage(), maxPages)

	texts := make([]string, pageCount)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultPageWorker)
	for i := range pageCount {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page := doc.Page(i + 1)
			if page.V.IsNull() {
				return nil
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				// An unreadable page is skipped; the rest of the document stands.
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sheet := Sheet{}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		sheet.Segments = append(sheet.Segments, detector.TextSegment{
			Text:       text,
			Page:       i,
			FileType:   "pdf",
			SourcePath: path,
		})
	}
	if form := formText(doc); form != "" {
		sheet.Segments = append(sheet.Segments, detector.TextSegment{
			Text:       form,
			Page:       pageCount,
			FileType:   "pdf",
			SourcePath: path,
		})
	}
	if len(sheet.Segments) == 0 {
		return nil, nil
	}
	return []Sheet{sheet}, nil
}

// formText renders filled AcroForm fields as "name: value" lines so field
// names act as context for the values.
func formText(doc *pdf.Reader) string {
	fields := doc.Trailer().Key("Root").Key("AcroForm").Key("Fields")
	if fields.Kind() != pdf.Array {
		return ""
	}
	var b strings.Builder
	for i := 0; i < fields.Len(); i++ {
		field := fields.Index(i)
		if field.Kind() != pdf.Dict {
			continue
		}
		name := field.Key("T").Text()
		value := fieldValue(field.Key("V"))
		if value == "" {
			value = fieldValue(field.Key("DV"))
		}
		if name == "" || value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", name, value)
	}
	return b.String()
}

func fieldValue(v pdf.Value) string {
	switch v.Kind() {
	case pdf.String:
		return v.Text()
	case pdf.Name:
		return v.Name()
	default:
		return ""
	}
}

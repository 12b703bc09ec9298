// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package readers turns files into TextSegments. A reader returns one or
// more sheets; segments within a sheet are in reading order and share one
// stitcher downstream.
package readers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"pii-linkage/internal/detector"
)

var (
	// ErrUnsupportedFormat is returned for a file extension with no reader.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrFileTooLarge is returned for files over the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// DefaultMaxFileSize bounds how much a reader loads.
const DefaultMaxFileSize = 100 * 1024 * 1024

// Sheet is an ordered run of segments, e.g. a document's pages or one CSV
// table.
type Sheet struct {
	Name     string
	Segments []detector.TextSegment
}

// Reader extracts the sheets of one file.
type Reader interface {
	Read(ctx context.Context, path string) ([]Sheet, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, path string) ([]Sheet, error)

func (f ReaderFunc) Read(ctx context.Context, path string) ([]Sheet, error) { return f(ctx, path) }

// Registry selects a reader by file extension.
type Registry struct {
	readers     map[string]Reader
	maxFileSize int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) RegistryOption {
	return func(r *Registry) { r.maxFileSize = n }
}

// WithMaxPDFPages bounds the pages read from one PDF.
func WithMaxPDFPages(n int) RegistryOption {
	return func(r *Registry) { r.Register(".pdf", &PDFReader{MaxPages: n}) }
}

// NewRegistry returns a registry with the built-in readers.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{readers: make(map[string]Reader), maxFileSize: DefaultMaxFileSize}
	text := &TextReader{}
	for _, ext := range []string{".txt", ".text", ".log", ".md"} {
		r.Register(ext, text)
	}
	r.Register(".csv", &CSVReader{Comma: ','})
	r.Register(".tsv", &CSVReader{Comma: '\t'})
	r.Register(".pdf", &PDFReader{})
	image := &ImageReader{}
	for _, ext := range []string{".jpg", ".jpeg", ".tif", ".tiff"} {
		r.Register(ext, image)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a reader to an extension such as ".txt".
func (r *Registry) Register(ext string, reader Reader) {
	r.readers[strings.ToLower(ext)] = reader
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.readers[fileExt(path)]
	return ok
}

// Read checks the file size and dispatches to the reader for its extension.
func (r *Registry) Read(ctx context.Context, path string) ([]Sheet, error) {
	reader, ok := r.readers[fileExt(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if r.maxFileSize > 0 && info.Size() > r.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reader.Read(ctx, path)
}

func fileExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// fileType is the lowercase extension without the dot.
func fileType(path string) string {
	return strings.TrimPrefix(fileExt(path), ".")
}

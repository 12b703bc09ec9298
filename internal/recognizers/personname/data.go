// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package personname

import (
	"bufio"
	"bytes"
	"compress/gzip"
	_ "embed"
	"fmt"
	"strings"
	"sync"
)

// Embedded compressed name lists
//
//go:embed data/first_names.txt.gz
var firstNamesDataGZ []byte

//go:embed data/last_names.txt.gz
var lastNamesDataGZ []byte

// NameDatabases holds the parsed name lists for O(1) lookups
type NameDatabases struct {
	FirstNames map[string]bool // lowercase name → exists
	LastNames  map[string]bool
}

var (
	nameDatabases *NameDatabases
	loadOnce      sync.Once
	loadError     error
)

// LoadNameDatabases decompresses the embedded lists once per process. The
// returned maps are read-only and shared by every Recognizer.
func LoadNameDatabases() (*NameDatabases, error) {
	loadOnce.Do(func() {
		nameDatabases, loadError = loadEmbeddedDatabases()
	})
	return nameDatabases, loadError
}

func loadEmbeddedDatabases() (*NameDatabases, error) {
	db := &NameDatabases{
		FirstNames: make(map[string]bool, 256),
		LastNames:  make(map[string]bool, 128),
	}
	if err := loadNamesIntoMap(firstNamesDataGZ, db.FirstNames); err != nil {
		return nil, fmt.Errorf("failed to load first names: %w", err)
	}
	if err := loadNamesIntoMap(lastNamesDataGZ, db.LastNames); err != nil {
		return nil, fmt.Errorf("failed to load last names: %w", err)
	}
	return db, nil
}

func loadNamesIntoMap(compressedData []byte, nameMap map[string]bool) error {
	reader, err := gzip.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if isValidName(name) {
			nameMap[strings.ToLower(name)] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading decompressed data: %w", err)
	}
	return nil
}

// isValidName accepts ASCII letters, hyphens, apostrophes, spaces and dots.
// Single-letter entries are dropped; two-letter ones such as "Li" are kept.
func isValidName(name string) bool {
	if len(name) < 2 || len(name) > 30 {
		return false
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			r == '-' || r == '\'' || r == ' ' || r == '.') {
			return false
		}
	}
	return true
}

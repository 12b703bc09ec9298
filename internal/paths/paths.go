// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package paths resolves configuration locations and expands command-line
// inputs into the files to scan.
package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigDirEnv overrides the configuration directory.
const ConfigDirEnv = "PII_LINKAGE_CONFIG_DIR"

// ConfigDir returns the pii-linkage configuration directory, or "" when the
// platform has none.
func ConfigDir() string {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "pii-linkage")
}

// ConfigFile returns the path of the standard config file, or "".
func ConfigFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// ValidatePath rejects paths that no platform can open.
func ValidatePath(path string) error {
	if strings.ContainsRune(path, 0) {
		return &PathValidationError{Path: path, Reason: "contains null byte"}
	}
	return nil
}

// PathValidationError represents a path validation error
type PathValidationError struct {
	Path   string
	Reason string
}

func (e *PathValidationError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Reason
}

// Expand turns files and directories into a sorted, duplicate-free file
// list. Directories are walked recursively; hidden entries below them are
// skipped, and only files accepted by keep are returned from them. Files
// named explicitly are always kept so the caller can report unsupported
// ones.
func Expand(inputs []string, keep func(path string) bool) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, in := range inputs {
		if err := ValidatePath(in); err != nil {
			return nil, err
		}
		info, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(in)
			continue
		}
		err = filepath.WalkDir(in, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p != in && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && (keep == nil || keep(p)) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

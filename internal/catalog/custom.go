// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is a user-supplied pattern as it appears in YAML configuration.
type Definition struct {
	Name                string  `yaml:"name"`
	EntityType          string  `yaml:"entity_type"`
	Regex               string  `yaml:"regex"`
	Score               float64 `yaml:"score"`
	Geography           string  `yaml:"geography"`
	RegulatoryFramework string  `yaml:"regulatory_framework"`
}

func (d Definition) compile() (Pattern, error) {
	field := func(f string) string {
		if d.Name == "" {
			return "custom_patterns." + f
		}
		return "custom_patterns." + d.Name + "." + f
	}

	switch {
	case strings.TrimSpace(d.Name) == "":
		return Pattern{}, &ConfigError{Field: field("name"), Reason: "required"}
	case strings.TrimSpace(d.EntityType) == "":
		return Pattern{}, &ConfigError{Field: field("entity_type"), Reason: "required"}
	case d.Regex == "":
		return Pattern{}, &ConfigError{Field: field("regex"), Reason: "required"}
	case d.Geography == "":
		return Pattern{}, &ConfigError{Field: field("geography"), Reason: "required"}
	case d.Score <= 0 || d.Score > 1:
		return Pattern{}, &ConfigError{Field: field("score"), Reason: fmt.Sprintf("must be in (0,1], got %v", d.Score)}
	}

	geo := Geography(strings.ToUpper(d.Geography))
	if !knownGeographies[geo] {
		return Pattern{}, &ConfigError{Field: field("geography"), Reason: fmt.Sprintf("unknown geography %q", d.Geography)}
	}

	re, err := regexp.Compile(d.Regex)
	if err != nil {
		return Pattern{}, &ConfigError{Field: field("regex"), Reason: err.Error()}
	}

	return Pattern{
		Name:                d.Name,
		EntityType:          strings.ToUpper(d.EntityType),
		Expr:                d.Regex,
		Score:               d.Score,
		Geography:           geo,
		RegulatoryFramework: d.RegulatoryFramework,
		re:                  re,
	}, nil
}

// LoadDefinitions reads a YAML list of pattern definitions from a file.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern definitions: %w", err)
	}
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, &ConfigError{Field: path, Reason: "invalid YAML: " + err.Error()}
	}
	return defs, nil
}

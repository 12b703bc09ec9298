// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// RedactedText replaces a sensitive value wherever one would otherwise be shown.
const RedactedText = "[REDACTED]"

// Redact returns a placeholder that only reveals the value's length.
func Redact(value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("%s len=%d", RedactedText, utf8.RuneCountInString(value))
}

// Detection returns the only fields allowed on a detection log line.
func Detection(entityType string, score float64, layer, pattern string) []zap.Field {
	fields := []zap.Field{
		zap.String("entity_type", entityType),
		zap.Float64("score", score),
		zap.String("layer", layer),
	}
	if pattern != "" {
		fields = append(fields, zap.String("pattern", pattern))
	}
	return fields
}

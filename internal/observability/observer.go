// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"time"

	"go.uber.org/zap"
)

// StandardObserver times operations and reports them to a zap logger.
type StandardObserver struct {
	logger *zap.Logger
}

// NewStandardObserver creates an observer. A nil logger disables output.
func NewStandardObserver(logger *zap.Logger) *StandardObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StandardObserver{logger: logger}
}

// Logger returns the underlying logger.
func (o *StandardObserver) Logger() *zap.Logger {
	if o == nil {
		return zap.NewNop()
	}
	return o.logger
}

// StartTiming returns a function to complete timing. The target names a
// document or file, never a detected value.
func (o *StandardObserver) StartTiming(component, operation, target string) func(success bool, fields ...zap.Field) {
	start := time.Now()

	return func(success bool, fields ...zap.Field) {
		if o == nil {
			return
		}
		all := make([]zap.Field, 0, len(fields)+5)
		all = append(all,
			zap.String("component", component),
			zap.String("operation", operation),
			zap.String("target", target),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Bool("success", success),
		)
		all = append(all, fields...)

		if success {
			o.logger.Debug("operation completed", all...)
		} else {
			o.logger.Warn("operation failed", all...)
		}
	}
}

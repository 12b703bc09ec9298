// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentPrefersLinkerValues(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = oldVersion, oldCommit, oldDate })

	Version, GitCommit, BuildDate = "1.2.3", "0123456789abcdef", "2026-01-02"
	b := Current()
	assert.Equal(t, "1.2.3", b.Version)
	assert.Equal(t, "0123456789abcdef", b.Commit)
	assert.Equal(t, "2026-01-02", b.Date)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, b.Platform)

	info := Info()
	assert.True(t, strings.HasPrefix(info, "pii-linkage 1.2.3 (commit: 0123456789ab"))
	assert.Contains(t, info, "built: 2026-01-02")
}

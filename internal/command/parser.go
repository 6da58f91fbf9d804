// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package command

import (
	"strings"
)

// SplitLine tokenizes a raw input line into dispatch words. Tokens are
// separated by runs of spaces or tabs; internal token content is preserved
// verbatim. Returns nil for blank input.
func SplitLine(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

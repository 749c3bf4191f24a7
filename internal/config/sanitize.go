// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"path/filepath"
	"regexp"
	"strings"
)

// reservedChars matches characters that are not portable in file names
// (the Windows reserved set, which also covers the POSIX separator).
var reservedChars = regexp.MustCompile(`[\\/:"*?<>|]+`)

// SanitizeName removes every reserved filesystem character from s and
// leaves all other characters untouched. It is idempotent.
func SanitizeName(s string) string {
	return reservedChars.ReplaceAllString(s, "")
}

// withTrailingSeparator appends the OS path separator to p if it is missing.
// An empty path is returned unchanged.
func withTrailingSeparator(p string) string {
	if p == "" {
		return p
	}
	sep := string(filepath.Separator)
	if strings.HasSuffix(p, sep) || strings.HasSuffix(p, "/") {
		return p
	}
	return p + sep
}

// Package slug derives unique URL-safe identifiers from email addresses.
// Admin-facing URLs use slugs instead of opaque account ids.
package slug

import (
	"strconv"
	"strings"
)

// FromEmail derives the base slug candidate from an email address: the
// local part lowercased, with dots and underscores turned into hyphens and
// every other character outside [a-z0-9-] stripped.
//
//	john.doe@example.com -> john-doe
//	admin@template.com   -> admin
//
// An email whose local part has no valid characters yields an empty base;
// MakeUnique still probes from there.
func FromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r == '.' || r == '_':
			b.WriteByte('-')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MakeUnique returns base if it does not collide with existing, otherwise
// the first of base-1, base-2, ... that is free. The probe is sequential,
// so the same base and existing set always produce the same result. The
// caller still needs the store's unique constraint as the real guarantee;
// this is only an optimistic pre-check.
func MakeUnique(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}

	candidate := base
	for n := 1; ; n++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

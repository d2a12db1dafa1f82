// Package principal names the identities that invoke admin commands.
package principal

import "strings"

// ID is an opaque caller identity. IDs are compared byte-for-byte; the
// engine never normalizes them.
type ID string

// String returns the raw identity.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identity is blank.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

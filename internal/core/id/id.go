// Package id provides UUID generation for engine outputs.
// Wave batches get time-ordered UUIDv7 ids; anomaly alerts get
// deterministic content-derived ids so a rerun over the same snapshot
// yields the same alert ids.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across engine outputs.
type ID = uuid.UUID

// namespace for content-derived ids (UUIDv5). Fixed so derived ids are
// stable across processes and recomputations.
var deriveNamespace = uuid.MustParse("8f0c2a4e-1d75-4a0b-9c3f-5e6b7d8a9c01")

// New generates a new UUIDv7 (time-ordered UUID).
// Used for plan-scoped outputs such as wave batch ids, where natural
// chronological ordering is useful and identity does not need to
// survive a recomputation.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// Derive generates a deterministic UUIDv5 from the given parts.
// Same parts always produce the same ID. Used for anomaly alert ids,
// which must be a derivable function of (product, date, kind) so alerts
// are stateless facts with no identity persisted across runs.
func Derive(parts ...string) ID {
	return uuid.NewSHA1(deriveNamespace, []byte(strings.Join(parts, "|")))
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}

// Package services implements the pipeline's two optional persistence-
// boundary lookups (spec §6): the teacher-defaults merge and the
// subscription-tier gate for playtest mode. Grounded on the teacher's
// pkg/services error taxonomy (pkg/services/errors.go).
package services

import (
	"errors"
)

var (
	// ErrNotFound is returned when a teacher has no stored row; callers
	// treat this as "no defaults/tier override" rather than a failure.
	ErrNotFound = errors.New("entity not found")

	// ErrTierRejected is returned when a teacher's subscription tier does
	// not permit the requested mode (spec §6's playtest gate).
	ErrTierRejected = errors.New("subscription tier does not permit this mode")
)

package services

import (
	"context"
	"errors"
	"fmt"

	"dario.cat/mergo"

	"github.com/andymattick/eduagents/pkg/models"
)

// EntryResolver implements the two optional entry-time lookups described in
// spec §6: merge a teacher's stored defaults into an incoming intent, and
// reject mode=playtest for teachers whose subscription tier does not allow
// it. Both lookups are best-effort: a missing defaults row is not an error
// (ErrNotFound just means nothing to merge), but a query failure against
// either store propagates, since that is a configuration-level problem the
// pipeline cannot route around (spec §7's "only configuration errors...are
// allowed to escape unchanged").
type EntryResolver struct {
	defaults DefaultsStore
	tiers    TierStore
}

// NewEntryResolver wires an EntryResolver from its two stores.
func NewEntryResolver(defaults DefaultsStore, tiers TierStore) *EntryResolver {
	return &EntryResolver{defaults: defaults, tiers: tiers}
}

// ApplyDefaults merges the teacher's stored defaults into intent wherever
// the teacher left a field at its zero value, using the same
// mergo.Merge(dst, src) (dst wins) shape as pkg/config's built-in/override
// merge, but without WithOverride since here the caller's intent takes
// precedence over the stored fallback rather than the reverse.
func (r *EntryResolver) ApplyDefaults(ctx context.Context, intent models.TeacherIntent) (models.TeacherIntent, error) {
	if intent.TeacherID == "" {
		return intent, nil
	}

	defaults, err := r.defaults.GetDefaults(ctx, intent.TeacherID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return intent, nil
		}
		return intent, fmt.Errorf("entry resolver: teacher defaults lookup failed: %w", err)
	}

	merged := intent
	fallback := models.TeacherIntent{
		GradeLevels:  defaults.GradeLevels,
		StudentLevel: defaults.StudentLevel,
		AvoidList:    defaults.AvoidList,
	}
	if err := mergo.Merge(&merged, fallback); err != nil {
		return intent, fmt.Errorf("entry resolver: failed to merge teacher defaults: %w", err)
	}
	return merged, nil
}

// AuthorizeMode rejects mode=playtest unless the teacher's tier is tier2 or
// admin (spec §6). Any other mode always passes.
func (r *EntryResolver) AuthorizeMode(ctx context.Context, intent models.TeacherIntent, playtest bool) error {
	if !playtest {
		return nil
	}
	if intent.TeacherID == "" {
		return ErrTierRejected
	}

	tier, err := r.tiers.Tier(ctx, intent.TeacherID)
	if err != nil {
		return fmt.Errorf("entry resolver: subscription tier lookup failed: %w", err)
	}
	if !permitsPlaytest(tier) {
		return ErrTierRejected
	}
	return nil
}

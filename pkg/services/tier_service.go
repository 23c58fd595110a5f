package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionTier is the closed set of teacher account tiers.
type SubscriptionTier string

const (
	TierStandard SubscriptionTier = "tier1"
	TierPro      SubscriptionTier = "tier2"
	TierAdmin    SubscriptionTier = "admin"
)

// TierStore looks up a teacher's subscription tier. A missing row defaults
// to TierStandard rather than erroring (spec §6 treats tier as an opt-in
// upgrade, not a required record).
type TierStore interface {
	Tier(ctx context.Context, teacherID string) (SubscriptionTier, error)
}

// PostgresTierStore reads subscription_tiers via pgx.
type PostgresTierStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTierStore creates a store backed by the given pool.
func NewPostgresTierStore(pool *pgxpool.Pool) *PostgresTierStore {
	return &PostgresTierStore{pool: pool}
}

// Tier implements TierStore.
func (s *PostgresTierStore) Tier(ctx context.Context, teacherID string) (SubscriptionTier, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tier string
	err := s.pool.QueryRow(queryCtx,
		`SELECT tier FROM subscription_tiers WHERE teacher_id = $1`,
		teacherID,
	).Scan(&tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TierStandard, nil
		}
		return "", fmt.Errorf("failed to query subscription tier: %w", err)
	}
	return SubscriptionTier(tier), nil
}

// InMemoryTierStore is a test/fake TierStore backed by a plain map.
type InMemoryTierStore struct {
	byTeacher map[string]SubscriptionTier
}

// NewInMemoryTierStore creates a fake store seeded with the given tiers.
func NewInMemoryTierStore(rows map[string]SubscriptionTier) *InMemoryTierStore {
	return &InMemoryTierStore{byTeacher: rows}
}

// Tier implements TierStore.
func (s *InMemoryTierStore) Tier(_ context.Context, teacherID string) (SubscriptionTier, error) {
	tier, ok := s.byTeacher[teacherID]
	if !ok {
		return TierStandard, nil
	}
	return tier, nil
}

// permitsPlaytest reports whether tier allows mode=playtest (spec §6).
func permitsPlaytest(tier SubscriptionTier) bool {
	return tier == TierPro || tier == TierAdmin
}

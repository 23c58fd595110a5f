package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andymattick/eduagents/pkg/models"
)

// TeacherDefaults is one teacher's stored fallback preferences, merged into
// an incoming TeacherIntent wherever the teacher left a field blank
// (spec §6's "teacher-defaults map").
type TeacherDefaults struct {
	GradeLevels  []string
	StudentLevel models.StudentLevel
	AvoidList    []string
}

// DefaultsStore looks up a teacher's stored defaults. Implementations must
// return ErrNotFound (not an empty TeacherDefaults) when no row exists, so
// callers can distinguish "nothing to merge" from a query failure.
type DefaultsStore interface {
	GetDefaults(ctx context.Context, teacherID string) (TeacherDefaults, error)
}

// PostgresDefaultsStore reads teacher_defaults via pgx. Grounded on the
// teacher's StageService's timeout-derived-context style
// (pkg/services/stage_service.go), adapted from Ent queries to raw SQL
// since this pipeline carries no generated ORM schema.
type PostgresDefaultsStore struct {
	pool *pgxpool.Pool
}

// NewPostgresDefaultsStore creates a store backed by the given pool.
func NewPostgresDefaultsStore(pool *pgxpool.Pool) *PostgresDefaultsStore {
	return &PostgresDefaultsStore{pool: pool}
}

// GetDefaults implements DefaultsStore.
func (s *PostgresDefaultsStore) GetDefaults(ctx context.Context, teacherID string) (TeacherDefaults, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d TeacherDefaults
	var studentLevel string
	err := s.pool.QueryRow(queryCtx,
		`SELECT grade_levels, student_level, avoid_list FROM teacher_defaults WHERE teacher_id = $1`,
		teacherID,
	).Scan(&d.GradeLevels, &studentLevel, &d.AvoidList)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TeacherDefaults{}, ErrNotFound
		}
		return TeacherDefaults{}, fmt.Errorf("failed to query teacher defaults: %w", err)
	}
	d.StudentLevel = models.StudentLevel(studentLevel)
	return d, nil
}

// InMemoryDefaultsStore is a test/fake DefaultsStore backed by a plain map.
type InMemoryDefaultsStore struct {
	byTeacher map[string]TeacherDefaults
}

// NewInMemoryDefaultsStore creates a fake store seeded with the given rows.
func NewInMemoryDefaultsStore(rows map[string]TeacherDefaults) *InMemoryDefaultsStore {
	return &InMemoryDefaultsStore{byTeacher: rows}
}

// GetDefaults implements DefaultsStore.
func (s *InMemoryDefaultsStore) GetDefaults(_ context.Context, teacherID string) (TeacherDefaults, error) {
	d, ok := s.byTeacher[teacherID]
	if !ok {
		return TeacherDefaults{}, ErrNotFound
	}
	return d, nil
}

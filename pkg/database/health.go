package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus reports pool connectivity and statistics, grounded on the
// teacher's database.Health (pkg/database/health.go) adapted to pgxpool's
// stat shape instead of database/sql's.
type HealthStatus struct {
	Status          string        `json:"status"`
	ResponseTime    time.Duration `json:"responseTimeMs"`
	TotalConns      int32         `json:"totalConns"`
	IdleConns       int32         `json:"idleConns"`
	AcquiredConns   int32         `json:"acquiredConns"`
	MaxConns        int32         `json:"maxConns"`
}

// Health pings the pool and reports its connection statistics.
func Health(ctx context.Context, pool *pgxpool.Pool) (*HealthStatus, error) {
	start := time.Now()
	if err := pool.Ping(ctx); err != nil {
		return &HealthStatus{Status: "unhealthy", ResponseTime: time.Since(start)}, err
	}

	stat := pool.Stat()
	return &HealthStatus{
		Status:        "healthy",
		ResponseTime:  time.Since(start),
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}, nil
}

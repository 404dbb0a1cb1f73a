package system

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medledger/medledger/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// The state table holds exactly one row, keyed by id=1 in the migration.
func (r *RepoPG) Get(ctx context.Context) (*State, error) {
	var s State
	err := r.conn(ctx).QueryRow(ctx,
		"SELECT paused, updated_at, updated_by FROM system_state WHERE id = 1").
		Scan(&s.Paused, &s.UpdatedAt, &s.UpdatedBy)
	if err != nil {
		return nil, fmt.Errorf("read system state: %w", err)
	}
	return &s, nil
}

func (r *RepoPG) Set(ctx context.Context, paused bool, by string, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		"UPDATE system_state SET paused = $1, updated_by = $2, updated_at = $3 WHERE id = 1",
		paused, by, at)
	if err != nil {
		return fmt.Errorf("write system state: %w", err)
	}
	return nil
}

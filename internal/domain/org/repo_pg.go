package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medledger/medledger/internal/platform/db"
	"github.com/medledger/medledger/pkg/apperror"
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

const principalCols = `id, is_admin, is_org, registered_at, registered_by`

func scanPrincipal(row pgx.Row) (*Principal, error) {
	var p Principal
	err := row.Scan(&p.ID, &p.IsAdmin, &p.IsOrg, &p.RegisteredAt, &p.RegisteredBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "principal not found")
	}
	return &p, err
}

func (r *RepoPG) Get(ctx context.Context, id string) (*Principal, error) {
	q := fmt.Sprintf("SELECT %s FROM principals WHERE id = $1", principalCols)
	return scanPrincipal(r.conn(ctx).QueryRow(ctx, q, id))
}

// CreateOrganization inserts the principal with the Organization capability,
// or adds the capability to an existing principal that lacks it. A principal
// that already holds the capability is reported as AlreadyExists.
func (r *RepoPG) CreateOrganization(ctx context.Context, p *Principal) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO principals (id, is_admin, is_org, registered_at, registered_by)
		VALUES ($1, false, true, $2, $3)
		ON CONFLICT (id) DO UPDATE SET is_org = true
		WHERE principals.is_org = false`,
		p.ID, p.RegisteredAt, p.RegisteredBy)
	if err != nil {
		return fmt.Errorf("insert principal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.E(apperror.AlreadyExists, "organization %s is already registered", p.ID)
	}
	return nil
}

// EnsureAdmin grants the Admin capability, creating the principal if needed.
// Idempotent; used only for startup seeding.
func (r *RepoPG) EnsureAdmin(ctx context.Context, id string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO principals (id, is_admin, is_org, registered_at, registered_by)
		VALUES ($1, true, false, NOW(), 'bootstrap')
		ON CONFLICT (id) DO UPDATE SET is_admin = true`,
		id)
	if err != nil {
		return fmt.Errorf("ensure admin %s: %w", id, err)
	}
	return nil
}

func (r *RepoPG) IsOrganization(ctx context.Context, id string) (bool, error) {
	var isOrg bool
	err := r.conn(ctx).QueryRow(ctx,
		"SELECT is_org FROM principals WHERE id = $1", id).Scan(&isOrg)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return isOrg, err
}

func (r *RepoPG) IsAdmin(ctx context.Context, id string) (bool, error) {
	var isAdmin bool
	err := r.conn(ctx).QueryRow(ctx,
		"SELECT is_admin FROM principals WHERE id = $1", id).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return isAdmin, err
}

func (r *RepoPG) ListOrganizations(ctx context.Context, limit, offset int) ([]*Principal, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM principals WHERE is_org").Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(
		"SELECT %s FROM principals WHERE is_org ORDER BY registered_at LIMIT $1 OFFSET $2",
		principalCols)
	rows, err := r.conn(ctx).Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

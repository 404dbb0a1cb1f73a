package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medledger/medledger/pkg/apperror"
)

type GrantRepoPG struct {
	pool *pgxpool.Pool
}

func NewGrantRepoPG(pool *pgxpool.Pool) *GrantRepoPG {
	return &GrantRepoPG{pool: pool}
}

const grantCols = `id, record_id, org_id, granted_at, granted_by, revoked, revoked_at, revoked_by`

func scanGrant(row pgx.Row) (*AccessGrant, error) {
	var g AccessGrant
	err := row.Scan(&g.ID, &g.RecordID, &g.OrgID, &g.GrantedAt, &g.GrantedBy,
		&g.Revoked, &g.RevokedAt, &g.RevokedBy)
	return &g, err
}

func (r *GrantRepoPG) Insert(ctx context.Context, g *AccessGrant) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO access_grants (id, record_id, org_id, granted_at, granted_by, revoked, revoked_at, revoked_by)
		VALUES ($1, $2, $3, $4, $5, false, NULL, '')`,
		g.ID, g.RecordID, g.OrgID, g.GrantedAt, g.GrantedBy)
	if err != nil {
		// The partial unique index rejects a second unrevoked grant for the
		// same (record, organization) pair.
		return fmt.Errorf("insert grant: %w", err)
	}
	return nil
}

func (r *GrantRepoPG) ActiveGrant(ctx context.Context, recordID, orgID string) (*AccessGrant, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM access_grants WHERE record_id = $1 AND org_id = $2 AND NOT revoked",
		grantCols)
	g, err := scanGrant(conn(ctx, r.pool).QueryRow(ctx, q, recordID, orgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *GrantRepoPG) Revoke(ctx context.Context, grantID uuid.UUID, by string, at time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE access_grants SET revoked = true, revoked_at = $2, revoked_by = $3
		WHERE id = $1 AND NOT revoked`,
		grantID, at, by)
	if err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.E(apperror.NotFound, "grant %s is not active", grantID)
	}
	return nil
}

func (r *GrantRepoPG) ListActive(ctx context.Context, recordID string) ([]*AccessGrant, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM access_grants WHERE record_id = $1 AND NOT revoked ORDER BY granted_at, id",
		grantCols)
	return r.queryGrants(ctx, q, recordID)
}

func (r *GrantRepoPG) ListByRecord(ctx context.Context, recordID string) ([]*AccessGrant, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM access_grants WHERE record_id = $1 ORDER BY granted_at, id",
		grantCols)
	return r.queryGrants(ctx, q, recordID)
}

func (r *GrantRepoPG) queryGrants(ctx context.Context, q, recordID string) ([]*AccessGrant, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, q, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (r *GrantRepoPG) RecordIDsForOrg(ctx context.Context, orgID string, limit, offset int) ([]string, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM access_grants g
		JOIN records rec ON rec.id = g.record_id
		WHERE g.org_id = $1 AND NOT g.revoked AND rec.is_active`, orgID).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT g.record_id FROM access_grants g
		JOIN records rec ON rec.id = g.record_id
		WHERE g.org_id = $1 AND NOT g.revoked AND rec.is_active
		ORDER BY g.granted_at, g.id
		LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	return ids, total, rows.Err()
}

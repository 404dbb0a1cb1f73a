package record

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Records --

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

const recordCols = `id, patient_id, created_by, data_hash, data_location, is_active, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.PatientID, &r.CreatedBy, &r.DataHash, &r.DataLocation,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.E(apperror.NotFound, "record not found")
	}
	return &r, err
}

func (r *RepoPG) NextSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := conn(ctx, r.pool).QueryRow(ctx, "SELECT nextval('record_seq')").Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next record sequence: %w", err)
	}
	return seq, nil
}

func (r *RepoPG) Create(ctx context.Context, rec *Record) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO records (id, patient_id, created_by, data_hash, data_location, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.PatientID, rec.CreatedBy, rec.DataHash, rec.DataLocation,
		rec.IsActive, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *RepoPG) Get(ctx context.Context, id string) (*Record, error) {
	q := fmt.Sprintf("SELECT %s FROM records WHERE id = $1", recordCols)
	return scanRecord(conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *RepoPG) UpdateContent(ctx context.Context, id, dataHash, dataLocation string, at time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE records SET data_hash = $2, data_location = $3, updated_at = $4
		WHERE id = $1 AND is_active`,
		id, dataHash, dataLocation, at)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.E(apperror.NotFound, "record %s does not exist or is inactive", id)
	}
	return nil
}

func (r *RepoPG) Deactivate(ctx context.Context, id string, at time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE records SET is_active = false, updated_at = $2
		WHERE id = $1 AND is_active`,
		id, at)
	if err != nil {
		return fmt.Errorf("deactivate record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.E(apperror.NotFound, "record %s does not exist or is inactive", id)
	}
	return nil
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT COUNT(*) FROM records WHERE patient_id = $1 AND is_active", patientID).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(
		"SELECT %s FROM records WHERE patient_id = $1 AND is_active ORDER BY created_at LIMIT $2 OFFSET $3",
		recordCols)
	rows, err := conn(ctx, r.pool).Query(ctx, q, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *RepoPG) CountByPatient(ctx context.Context, patientID string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT COUNT(*) FROM records WHERE patient_id = $1 AND is_active", patientID).Scan(&n)
	return n, err
}

func (r *RepoPG) ListIDs(ctx context.Context, limit, offset int) ([]string, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT COUNT(*) FROM records WHERE is_active").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		"SELECT id FROM records WHERE is_active ORDER BY created_at LIMIT $1 OFFSET $2",
		limit, offset)
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

func (r *RepoPG) TotalCount(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT COUNT(*) FROM records WHERE is_active").Scan(&n)
	return n, err
}

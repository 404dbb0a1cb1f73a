package record

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository stores the records themselves.
type Repository interface {
	// NextSeq allocates the next value of the record sequence used in id
	// derivation.
	NextSeq(ctx context.Context) (int64, error)
	Create(ctx context.Context, r *Record) error
	// Get returns the record regardless of its activity state.
	Get(ctx context.Context, id string) (*Record, error)
	UpdateContent(ctx context.Context, id, dataHash, dataLocation string, at time.Time) error
	Deactivate(ctx context.Context, id string, at time.Time) error
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, int, error)
	CountByPatient(ctx context.Context, patientID string) (int, error)
	ListIDs(ctx context.Context, limit, offset int) ([]string, int, error)
	TotalCount(ctx context.Context) (int, error)
}

// GrantRepository stores the per-record grant ledger.
type GrantRepository interface {
	Insert(ctx context.Context, g *AccessGrant) error
	// ActiveGrant returns the unrevoked grant for (recordID, orgID), or nil
	// when none exists.
	ActiveGrant(ctx context.Context, recordID, orgID string) (*AccessGrant, error)
	Revoke(ctx context.Context, grantID uuid.UUID, by string, at time.Time) error
	// ListActive returns unrevoked grants for a record in grant order.
	ListActive(ctx context.Context, recordID string) ([]*AccessGrant, error)
	// ListByRecord returns the full grant history for a record in grant order.
	ListByRecord(ctx context.Context, recordID string) ([]*AccessGrant, error)
	// RecordIDsForOrg returns ids of active records the organization can
	// currently access, in grant order.
	RecordIDsForOrg(ctx context.Context, orgID string, limit, offset int) ([]string, int, error)
}

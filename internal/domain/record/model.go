package record

import (
	"time"

	"github.com/google/uuid"
)

// MaxFieldLen bounds the stored hash and locator strings.
const MaxFieldLen = 256

// Record is a pointer to an off-system encrypted healthcare record: a content
// hash plus a storage locator. The payload itself never passes through the
// ledger. Once IsActive goes false the record is permanently excluded from
// authorization checks; there is no reactivation path.
type Record struct {
	ID           string    `db:"id" json:"id"`
	PatientID    string    `db:"patient_id" json:"patient_id"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	DataHash     string    `db:"data_hash" json:"data_hash"`
	DataLocation string    `db:"data_location" json:"data_location"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"last_updated_at"`
}

// AccessGrant is one grant event for a (record, organization) pair. Revoking
// never deletes the row; re-granting appends a new one, so the full grant
// history survives for audit. At most one grant per pair is unrevoked at any
// time.
type AccessGrant struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	RecordID  string     `db:"record_id" json:"record_id"`
	OrgID     string     `db:"org_id" json:"organization"`
	GrantedAt time.Time  `db:"granted_at" json:"granted_at"`
	GrantedBy string     `db:"granted_by" json:"granted_by"`
	Revoked   bool       `db:"revoked" json:"is_revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	RevokedBy string     `db:"revoked_by" json:"revoked_by,omitempty"`
}

package org

import "time"

// Batch registration bounds. A batch is total rather than all-or-nothing:
// entries that cannot be registered are skipped, never failed.
const (
	MinBatchSize = 1
	MaxBatchSize = 50
)

// Principal is an opaque identity that may hold the Admin or Organization
// capability, or both. Principals are never deleted and neither capability is
// ever revoked.
type Principal struct {
	ID           string    `db:"id" json:"id"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	IsOrg        bool      `db:"is_org" json:"is_organization"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
	RegisteredBy string    `db:"registered_by" json:"registered_by,omitempty"`
}

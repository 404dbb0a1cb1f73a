package system

import "time"

// State is the system-wide maintenance toggle. While paused, every write path
// rejects with Paused; reads stay available.
type State struct {
	Paused    bool      `db:"paused" json:"paused"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy string    `db:"updated_by" json:"updated_by,omitempty"`
}

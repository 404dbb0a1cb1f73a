package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the mutation an audit event describes.
type EventType string

const (
	EventOrganizationRegistered EventType = "OrganizationRegistered"
	EventRecordCreated          EventType = "RecordCreated"
	EventRecordUpdated          EventType = "RecordUpdated"
	EventRecordDeactivated      EventType = "RecordDeactivated"
	EventAccessGranted          EventType = "AccessGranted"
	EventAccessRevoked          EventType = "AccessRevoked"
	EventSystemPaused           EventType = "SystemPaused"
	EventSystemUnpaused         EventType = "SystemUnpaused"
)

// Event is one immutable entry in the audit trail. Events are appended in the
// same transaction as the mutation they describe, so the trail never records
// a mutation that did not commit, and never misses one that did.
type Event struct {
	Seq        int64     `db:"seq" json:"seq"`
	ID         uuid.UUID `db:"id" json:"id"`
	Type       EventType `db:"event_type" json:"event_type"`
	RecordID   string    `db:"record_id" json:"record_id,omitempty"`
	Principal  string    `db:"principal" json:"principal"`
	Target     string    `db:"target" json:"target,omitempty"`
	Detail     string    `db:"detail" json:"detail,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// Filter narrows an audit trail query.
type Filter struct {
	RecordID  string
	Type      EventType
	Principal string
}

package audit

import (
	"context"

	"github.com/google/uuid"
)

// Appender is the durable append-only audit sink. Implementations must
// preserve emission order per record; the gateway calls Append inside each
// mutation's transaction.
type Appender interface {
	Append(ctx context.Context, e *Event) error
}

// Repository reads the audit trail back for compliance review.
type Repository interface {
	Appender
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Event, int, error)
}

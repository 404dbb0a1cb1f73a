package system

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context) (*State, error)
	Set(ctx context.Context, paused bool, by string, at time.Time) error
}

package system

import (
	"context"
	"time"

	"github.com/medledger/medledger/internal/domain/audit"
	"github.com/medledger/medledger/internal/platform/db"
	"github.com/medledger/medledger/pkg/apperror"
)

// RoleDirectory answers whether a principal holds the Admin capability.
type RoleDirectory interface {
	IsAdmin(ctx context.Context, id string) (bool, error)
}

type Service struct {
	repo  Repository
	roles RoleDirectory
	sink  audit.Appender
	tx    db.TxRunner
	now   func() time.Time
}

func NewService(repo Repository, roles RoleDirectory, sink audit.Appender, tx db.TxRunner) *Service {
	return &Service{
		repo:  repo,
		roles: roles,
		sink:  sink,
		tx:    tx,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source; tests use it for deterministic time.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Paused reports the current maintenance state. The gateway consults this
// before every write.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	state, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	return state.Paused, nil
}

func (s *Service) Status(ctx context.Context) (*State, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Pause(ctx context.Context, caller string) error {
	return s.toggle(ctx, caller, true, audit.EventSystemPaused)
}

func (s *Service) Unpause(ctx context.Context, caller string) error {
	return s.toggle(ctx, caller, false, audit.EventSystemUnpaused)
}

func (s *Service) toggle(ctx context.Context, caller string, paused bool, evt audit.EventType) error {
	isAdmin, err := s.roles.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperror.E(apperror.Unauthorized, "caller %s is not an admin", caller)
	}

	state, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	if state.Paused == paused {
		if paused {
			return apperror.E(apperror.AlreadyExists, "system is already paused")
		}
		return apperror.E(apperror.AlreadyExists, "system is not paused")
	}

	at := s.now()
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Set(ctx, paused, caller, at); err != nil {
			return err
		}
		return s.sink.Append(ctx, &audit.Event{
			Type:       evt,
			Principal:  caller,
			OccurredAt: at,
		})
	})
}

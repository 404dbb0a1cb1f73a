package org

import (
	"context"
	"time"

	"github.com/medledger/medledger/internal/domain/audit"
	"github.com/medledger/medledger/internal/platform/db"
	"github.com/medledger/medledger/pkg/apperror"
)

// PauseChecker reports whether the system is in maintenance mode. Writes are
// rejected while paused; reads are unaffected.
type PauseChecker interface {
	Paused(ctx context.Context) (bool, error)
}

// Service is the role registry: it tracks which principals hold the Admin or
// Organization capability. Registration is an Admin action and every
// successful registration lands in the audit trail atomically.
type Service struct {
	repo  Repository
	sink  audit.Appender
	tx    db.TxRunner
	pause PauseChecker
	now   func() time.Time
}

func NewService(repo Repository, sink audit.Appender, tx db.TxRunner, pause PauseChecker) *Service {
	return &Service{
		repo:  repo,
		sink:  sink,
		tx:    tx,
		pause: pause,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source; tests use it for deterministic time.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) checkAdminWrite(ctx context.Context, caller string) error {
	paused, err := s.pause.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return apperror.E(apperror.Paused, "system is paused")
	}
	isAdmin, err := s.repo.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperror.E(apperror.Unauthorized, "caller %s is not an admin", caller)
	}
	return nil
}

// Register grants the Organization capability to principalID. Registering a
// principal that already holds the capability is a hard error; the batch path
// is the lenient one.
func (s *Service) Register(ctx context.Context, principalID, caller string) (*Principal, error) {
	if err := s.checkAdminWrite(ctx, caller); err != nil {
		return nil, err
	}
	if principalID == "" {
		return nil, apperror.E(apperror.InvalidArgument, "principal id must not be empty")
	}

	p := &Principal{
		ID:           principalID,
		IsOrg:        true,
		RegisteredAt: s.now(),
		RegisteredBy: caller,
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateOrganization(ctx, p); err != nil {
			return err
		}
		return s.sink.Append(ctx, &audit.Event{
			Type:       audit.EventOrganizationRegistered,
			Principal:  caller,
			Target:     principalID,
			OccurredAt: p.RegisteredAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// BatchRegister grants the Organization capability to up to MaxBatchSize
// principals in one call. Empty ids and already-registered principals are
// skipped silently so the batch stays total rather than all-or-nothing.
// Returns the ids actually registered.
func (s *Service) BatchRegister(ctx context.Context, principalIDs []string, caller string) ([]string, error) {
	if err := s.checkAdminWrite(ctx, caller); err != nil {
		return nil, err
	}
	if len(principalIDs) < MinBatchSize || len(principalIDs) > MaxBatchSize {
		return nil, apperror.E(apperror.InvalidArgument,
			"batch size must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, len(principalIDs))
	}

	var registered []string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		seen := make(map[string]bool, len(principalIDs))
		for _, id := range principalIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true

			isOrg, err := s.repo.IsOrganization(ctx, id)
			if err != nil {
				return err
			}
			if isOrg {
				continue
			}

			now := s.now()
			p := &Principal{ID: id, IsOrg: true, RegisteredAt: now, RegisteredBy: caller}
			if err := s.repo.CreateOrganization(ctx, p); err != nil {
				return err
			}
			if err := s.sink.Append(ctx, &audit.Event{
				Type:       audit.EventOrganizationRegistered,
				Principal:  caller,
				Target:     id,
				OccurredAt: now,
			}); err != nil {
				return err
			}
			registered = append(registered, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// EnsureAdmins seeds the Admin capability for the configured principals.
func (s *Service) EnsureAdmins(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := s.repo.EnsureAdmin(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Principal, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) IsOrganization(ctx context.Context, id string) (bool, error) {
	return s.repo.IsOrganization(ctx, id)
}

func (s *Service) IsAdmin(ctx context.Context, id string) (bool, error) {
	return s.repo.IsAdmin(ctx, id)
}

func (s *Service) ListOrganizations(ctx context.Context, limit, offset int) ([]*Principal, int, error) {
	return s.repo.ListOrganizations(ctx, limit, offset)
}

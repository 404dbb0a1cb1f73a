package record

import (
	"context"
	"time"

	"github.com/medledger/medledger/internal/domain/audit"
	"github.com/medledger/medledger/internal/platform/db"
	"github.com/medledger/medledger/internal/platform/lock"
	"github.com/medledger/medledger/pkg/apperror"
)

// PauseChecker reports whether the system is in maintenance mode.
type PauseChecker interface {
	Paused(ctx context.Context) (bool, error)
}

// RoleDirectory answers capability questions about principals.
type RoleDirectory interface {
	IsOrganization(ctx context.Context, principalID string) (bool, error)
	IsAdmin(ctx context.Context, principalID string) (bool, error)
}

// Service is the sole write path for records and grants. Every mutation takes
// the record's keyed mutex, runs in one transaction, and appends its audit
// event inside that transaction, so a mutation and its trail commit or fail
// together and concurrent mutations on the same record are serialized.
type Service struct {
	repo   Repository
	grants GrantRepository
	roles  RoleDirectory
	pause  PauseChecker
	sink   audit.Appender
	tx     db.TxRunner
	locks  *lock.KeyedMutex
	now    func() time.Time
}

func NewService(repo Repository, grants GrantRepository, roles RoleDirectory,
	pause PauseChecker, sink audit.Appender, tx db.TxRunner) *Service {
	return &Service{
		repo:   repo,
		grants: grants,
		roles:  roles,
		pause:  pause,
		sink:   sink,
		tx:     tx,
		locks:  lock.NewKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source; tests use it for deterministic time.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) checkNotPaused(ctx context.Context) error {
	paused, err := s.pause.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return apperror.E(apperror.Paused, "system is paused")
	}
	return nil
}

func validateContent(dataHash, dataLocation string) error {
	if dataHash == "" || dataLocation == "" {
		return apperror.E(apperror.InvalidArgument, "data hash and data location must not be empty")
	}
	if len(dataHash) > MaxFieldLen || len(dataLocation) > MaxFieldLen {
		return apperror.E(apperror.InvalidArgument, "data hash and data location must not exceed %d bytes", MaxFieldLen)
	}
	return nil
}

// activeRecord loads a record and rejects inactive ones. Deactivated records
// report NotFound for mutations so a second deactivate and a write against a
// dead record fail the same way.
func (s *Service) activeRecord(ctx context.Context, recordID string) (*Record, error) {
	rec, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return nil, apperror.E(apperror.NotFound, "record %s is not active", recordID)
	}
	return rec, nil
}

// requireAccess enforces the grant ledger: the caller needs an unrevoked grant
// on the record. The creator qualifies through the implicit grant written at
// create time, not through any special-casing here.
func (s *Service) requireAccess(ctx context.Context, recordID, caller string) error {
	g, err := s.grants.ActiveGrant(ctx, recordID, caller)
	if err != nil {
		return err
	}
	if g == nil {
		return apperror.E(apperror.Unauthorized, "principal %s has no access to record %s", caller, recordID)
	}
	return nil
}

// Create registers a new record pointer and grants the creator access to it,
// atomically. Only registered organizations create records.
func (s *Service) Create(ctx context.Context, patientID, dataHash, dataLocation, caller string) (*Record, error) {
	if err := s.checkNotPaused(ctx); err != nil {
		return nil, err
	}
	isOrg, err := s.roles.IsOrganization(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !isOrg {
		return nil, apperror.E(apperror.Unauthorized, "principal %s is not a registered organization", caller)
	}
	if patientID == "" {
		return nil, apperror.E(apperror.InvalidArgument, "patient id must not be empty")
	}
	if err := validateContent(dataHash, dataLocation); err != nil {
		return nil, err
	}

	now := s.now()
	seq, err := s.repo.NextSeq(ctx)
	if err != nil {
		return nil, err
	}
	id, err := newRecordID(patientID, caller, seq, now)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:           id,
		PatientID:    patientID,
		CreatedBy:    caller,
		DataHash:     dataHash,
		DataLocation: dataLocation,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		if err := s.grants.Insert(ctx, &AccessGrant{
			RecordID:  id,
			OrgID:     caller,
			GrantedAt: now,
			GrantedBy: caller,
		}); err != nil {
			return err
		}
		return s.sink.Append(ctx, &audit.Event{
			Type:       audit.EventRecordCreated,
			RecordID:   id,
			Principal:  caller,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update replaces the record's hash and locator. The caller must hold an
// active grant on the record.
func (s *Service) Update(ctx context.Context, recordID, dataHash, dataLocation, caller string) (*Record, error) {
	if err := s.checkNotPaused(ctx); err != nil {
		return nil, err
	}
	if err := validateContent(dataHash, dataLocation); err != nil {
		return nil, err
	}

	s.locks.Lock(recordID)
	defer s.locks.Unlock(recordID)

	rec, err := s.activeRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, recordID, caller); err != nil {
		return nil, err
	}

	now := s.now()
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateContent(ctx, recordID, dataHash, dataLocation, now); err != nil {
			return err
		}
		return s.sink.Append(ctx, &audit.Event{
			Type:       audit.EventRecordUpdated,
			RecordID:   recordID,
			Principal:  caller,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	rec.DataHash = dataHash
	rec.DataLocation = dataLocation
	rec.UpdatedAt = now
	return rec, nil
}

// Deactivate permanently retires a record. Only the creating organization or
// an admin may do it; there is no reactivation, and a second call reports
// NotFound.
func (s *Service) Deactivate(ctx context.Context, recordID, caller string) error {
	if err := s.checkNotPaused(ctx); err != nil {
		return err
	}

	s.locks.Lock(recordID)
	defer s.locks.Unlock(recordID)

	rec, err := s.activeRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.CreatedBy != caller {
		isAdmin, err := s.roles.IsAdmin(ctx, caller)
		if err != nil {
			return err
		}
		if !isAdmin {
			return apperror.E(apperror.Unauthorized, "only the creator or an admin may deactivate record %s", recordID)
		}
	}

	now := s.now()
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Deactivate(ctx, recordID, now); err != nil {
			return err
		}
		return s.sink.Append(ctx, &audit.Event{
			Type:       audit.EventRecordDeactivated,
			RecordID:   recordID,
			Principal:  caller,
			OccurredAt: now,
		})
	})
}

// Grant gives targetOrg access to the record. The caller must already have
// access, the target must be a registered organization, and the pair must not
// already hold an active grant.
func (s *Service) Grant(ctx context.Context, recordID, targetOrg, caller string) (*AccessGrant, error) {
	if err := s.checkNotPaused(ctx); err != nil {
		return nil, err
	}

	s.locks.Lock(recordID)
	defer s.locks.Unlock(recordID)

	if _, err := s.activeRecord(ctx, recordID); err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, recordID, caller); err != nil {
		return nil, err
	}
	isOrg, err := s.roles.IsOrganization(ctx, targetOrg)
	if err != nil {
		return nil, err
	}
	if !isOrg {
		return nil, apperror.E(apperror.InvalidArgument, "principal %s is not a registered organization", targetOrg)
	}
	existing, err := s.grants.ActiveGrant(ctx, recordID, targetOrg)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.E(apperror.AlreadyExists, "organization %s already has access to record %s", targetOrg, recordID)
	}

	now := s.now()
	g := &AccessGrant{
		RecordID:  recordID,
		OrgID:     targetOrg,
		GrantedAt: now,
		GrantedBy: caller,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.grants.Insert(ctx, g); err != nil {
			return err
		}
		return s.sink.Append(ctx, &audit.Event{
			Type:       audit.EventAccessGranted,
			RecordID:   recordID,
			Principal:  caller,
			Target:     targetOrg,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Revoke withdraws targetOrg's active grant on the record. A caller cannot
// revoke its own access, and revoking an org without an active grant reports
// NotFound. The grant row is marked revoked, never deleted, so history stays
// queryable.
func (s *Service) Revoke(ctx context.Context, recordID, targetOrg, caller string) error {
	if err := s.checkNotPaused(ctx); err != nil {
		return err
	}
	if targetOrg == caller {
		return apperror.E(apperror.InvalidArgument, "principal %s cannot revoke its own access", caller)
	}

	s.locks.Lock(recordID)
	defer s.locks.Unlock(recordID)

	if _, err := s.activeRecord(ctx, recordID); err != nil {
		return err
	}
	if err := s.requireAccess(ctx, recordID, caller); err != nil {
		return err
	}
	g, err := s.grants.ActiveGrant(ctx, recordID, targetOrg)
	if err != nil {
		return err
	}
	if g == nil {
		return apperror.E(apperror.NotFound, "organization %s has no active grant on record %s", targetOrg, recordID)
	}

	now := s.now()
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.grants.Revoke(ctx, g.ID, caller, now); err != nil {
			return err
		}
		return s.sink.Append(ctx, &audit.Event{
			Type:       audit.EventAccessRevoked,
			RecordID:   recordID,
			Principal:  caller,
			Target:     targetOrg,
			OccurredAt: now,
		})
	})
}

// HasAccess reports whether principal currently holds an active grant on an
// active record. Missing and deactivated records both answer false rather
// than erroring, so callers can use it as a pure predicate.
func (s *Service) HasAccess(ctx context.Context, recordID, principal string) (bool, error) {
	rec, err := s.repo.Get(ctx, recordID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			return false, nil
		}
		return false, err
	}
	if !rec.IsActive {
		return false, nil
	}
	g, err := s.grants.ActiveGrant(ctx, recordID, principal)
	if err != nil {
		return false, err
	}
	return g != nil, nil
}

// Get returns the record whether or not it is still active.
func (s *Service) Get(ctx context.Context, recordID string) (*Record, error) {
	return s.repo.Get(ctx, recordID)
}

// ActiveGrantees returns the organizations with current access to the record
// in grant order. A deactivated record has no grantees; a missing record is
// NotFound.
func (s *Service) ActiveGrantees(ctx context.Context, recordID string) ([]string, error) {
	rec, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return []string{}, nil
	}
	grants, err := s.grants.ListActive(ctx, recordID)
	if err != nil {
		return nil, err
	}
	orgs := make([]string, 0, len(grants))
	for _, g := range grants {
		orgs = append(orgs, g.OrgID)
	}
	return orgs, nil
}

// GrantHistory returns every grant ever issued for the record, revoked ones
// included, in grant order.
func (s *Service) GrantHistory(ctx context.Context, recordID string) ([]*AccessGrant, error) {
	if _, err := s.repo.Get(ctx, recordID); err != nil {
		return nil, err
	}
	return s.grants.ListByRecord(ctx, recordID)
}

// PatientRecords lists the patient's active records, newest first.
func (s *Service) PatientRecords(ctx context.Context, patientID string, limit, offset int) ([]*Record, int, error) {
	if patientID == "" {
		return nil, 0, apperror.E(apperror.InvalidArgument, "patient id must not be empty")
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// PatientRecordCount counts the patient's active records.
func (s *Service) PatientRecordCount(ctx context.Context, patientID string) (int, error) {
	if patientID == "" {
		return 0, apperror.E(apperror.InvalidArgument, "patient id must not be empty")
	}
	return s.repo.CountByPatient(ctx, patientID)
}

// OrganizationRecords lists the ids of active records the organization can
// currently access, in grant order.
func (s *Service) OrganizationRecords(ctx context.Context, orgID string, limit, offset int) ([]string, int, error) {
	if orgID == "" {
		return nil, 0, apperror.E(apperror.InvalidArgument, "organization id must not be empty")
	}
	return s.grants.RecordIDsForOrg(ctx, orgID, limit, offset)
}

// ListRecordIDs pages through every active record id.
func (s *Service) ListRecordIDs(ctx context.Context, limit, offset int) ([]string, int, error) {
	return s.repo.ListIDs(ctx, limit, offset)
}

// TotalCount counts all active records.
func (s *Service) TotalCount(ctx context.Context) (int, error) {
	return s.repo.TotalCount(ctx)
}

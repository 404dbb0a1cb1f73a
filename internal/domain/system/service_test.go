package system

import (
	"context"
	"testing"
	"time"

	"github.com/medledger/medledger/internal/domain/audit"
	"github.com/medledger/medledger/pkg/apperror"
)

type mockStateRepo struct {
	state State
}

func (m *mockStateRepo) Get(_ context.Context) (*State, error) {
	cp := m.state
	return &cp, nil
}

func (m *mockStateRepo) Set(_ context.Context, paused bool, by string, at time.Time) error {
	m.state = State{Paused: paused, UpdatedBy: by, UpdatedAt: at}
	return nil
}

type stubRoles struct {
	admins map[string]bool
}

func (s *stubRoles) IsAdmin(_ context.Context, id string) (bool, error) {
	return s.admins[id], nil
}

type mockSink struct {
	events []*audit.Event
}

func (m *mockSink) Append(_ context.Context, e *audit.Event) error {
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockStateRepo, *mockSink) {
	repo := &mockStateRepo{}
	sink := &mockSink{}
	svc := NewService(repo, &stubRoles{admins: map[string]bool{"admin-1": true}}, sink, passTx{})
	return svc, repo, sink
}

func TestPauseUnpause(t *testing.T) {
	svc, _, sink := newTestService()
	ctx := context.Background()

	if err := svc.Pause(ctx, "admin-1"); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	paused, err := svc.Paused(ctx)
	if err != nil || !paused {
		t.Errorf("Paused() = (%v, %v), want (true, nil)", paused, err)
	}

	if err := svc.Unpause(ctx, "admin-1"); err != nil {
		t.Fatalf("Unpause() error = %v", err)
	}
	paused, _ = svc.Paused(ctx)
	if paused {
		t.Error("system should be running after unpause")
	}

	if len(sink.events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(sink.events))
	}
	if sink.events[0].Type != audit.EventSystemPaused || sink.events[1].Type != audit.EventSystemUnpaused {
		t.Errorf("event types = %v, %v", sink.events[0].Type, sink.events[1].Type)
	}
}

func TestPauseRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Pause(context.Background(), "org-a")
	if !apperror.IsKind(err, apperror.Unauthorized) {
		t.Errorf("expected Unauthorized, got %v", err)
	}
}

func TestPauseNoOpRejected(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// Unpausing a running system and double-pausing are both rejected so an
	// operator notices a stale assumption about the current state.
	if err := svc.Unpause(ctx, "admin-1"); !apperror.IsKind(err, apperror.AlreadyExists) {
		t.Errorf("Unpause on running system: expected AlreadyExists, got %v", err)
	}

	if err := svc.Pause(ctx, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Pause(ctx, "admin-1"); !apperror.IsKind(err, apperror.AlreadyExists) {
		t.Errorf("double Pause: expected AlreadyExists, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return at })

	if err := svc.Pause(ctx, "admin-1"); err != nil {
		t.Fatal(err)
	}

	st, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !st.Paused || st.UpdatedBy != "admin-1" || !st.UpdatedAt.Equal(at) {
		t.Errorf("Status() = %+v", st)
	}
}

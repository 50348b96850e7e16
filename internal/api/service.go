package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rapport/internal/progression"
	"github.com/rapport/internal/session"
)

// Service orchestrates controllers over the session store. The progression
// core holds no locks, so the service serializes operations per session:
// concurrent requests for different sessions proceed in parallel, requests
// for the same session queue.
type Service struct {
	cfg   progression.Config
	store session.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a service. The config is validated once here; a
// service never starts with rule sets the controller would reject.
func NewService(cfg progression.Config, store session.Store) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("progression config: %w", err)
	}
	return &Service{
		cfg:   cfg,
		store: store,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// CreateSession mints a new session. An empty id gets a generated UUID.
func (s *Service) CreateSession(ctx context.Context, id string, now time.Time) (progression.Snapshot, error) {
	if id == "" {
		id = uuid.NewString()
	}

	unlock := s.lockSession(id)
	defer unlock()

	if _, err := s.store.Load(ctx, id); err == nil {
		return progression.Snapshot{}, fmt.Errorf("session %s already exists", id)
	} else if err != session.ErrNotFound {
		return progression.Snapshot{}, err
	}

	ctrl, err := progression.New(s.cfg, id, now)
	if err != nil {
		return progression.Snapshot{}, err
	}
	if err := s.store.Save(ctx, ctrl.State()); err != nil {
		return progression.Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

// RecordIncoming scores one inbound message and persists the result.
func (s *Service) RecordIncoming(ctx context.Context, id, text string, at time.Time) (progression.Snapshot, error) {
	var snap progression.Snapshot
	err := s.withController(ctx, id, func(ctrl *progression.Controller) {
		snap = ctrl.RecordIncoming(text, at)
	})
	return snap, err
}

// RecordOutgoing records the system's own message.
func (s *Service) RecordOutgoing(ctx context.Context, id, text string, at time.Time) error {
	return s.withController(ctx, id, func(ctrl *progression.Controller) {
		ctrl.RecordOutgoing(text, at)
	})
}

// SetFlag overwrites a named flag.
func (s *Service) SetFlag(ctx context.Context, id, name string, value progression.FlagValue) (progression.Snapshot, error) {
	var snap progression.Snapshot
	err := s.withController(ctx, id, func(ctrl *progression.Controller) {
		if value.Kind == progression.FlagNumber {
			ctrl.SetCounter(name, value.Number)
		} else {
			ctrl.SetFlag(name, value.Bool)
		}
		snap = ctrl.Snapshot()
	})
	return snap, err
}

// Snapshot returns the session's current state view without mutating it.
func (s *Service) Snapshot(ctx context.Context, id string) (progression.Snapshot, error) {
	unlock := s.lockSession(id)
	defer unlock()

	ctrl, err := s.load(ctx, id)
	if err != nil {
		return progression.Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

// History returns the session's stage history.
func (s *Service) History(ctx context.Context, id string) ([]progression.StageChange, error) {
	unlock := s.lockSession(id)
	defer unlock()

	ctrl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ctrl.History(), nil
}

// List returns session summaries for dashboards.
func (s *Service) List(ctx context.Context) ([]session.Summary, error) {
	return s.store.List(ctx)
}

func (s *Service) withController(ctx context.Context, id string, fn func(*progression.Controller)) error {
	unlock := s.lockSession(id)
	defer unlock()

	ctrl, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	fn(ctrl)
	return s.store.Save(ctx, ctrl.State())
}

func (s *Service) load(ctx context.Context, id string) (*progression.Controller, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return progression.Restore(s.cfg, state)
}

func (s *Service) lockSession(id string) func() {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Package engine settles sales against the shop state: it prices the cart,
// applies loyalty, moves stock and updates the customer account, and commits
// all of it as one state transition.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

// Store is the persistence collaborator. Save returning nil is the commit
// point; nothing is considered durable before it.
type Store interface {
	Load(ctx context.Context) (*models.State, error)
	Save(ctx context.Context, st *models.State) error
}

// Engine serializes every mutating operation behind one mutex, so two
// requests never interleave on the same snapshot.
type Engine struct {
	store    Store
	defaults models.LoyaltySettings
	clock    Clock
	log      *zap.Logger

	mu sync.Mutex
}

type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New builds an engine over store. defaults is the loyalty program used until
// one is saved into the store.
func New(store Store, defaults models.LoyaltySettings, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		defaults: defaults.Clone(),
		clock:    SystemClock{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// mutate loads one snapshot, lets fn change a clone of it and saves the clone.
// If fn or Save fails the stored state is left exactly as it was.
func (e *Engine) mutate(ctx context.Context, op string, fn func(st *models.State, now time.Time) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: load state: %w", op, err)
	}
	next := current.Clone()
	if err := fn(next, e.clock.Now()); err != nil {
		e.log.Warn("operation rejected", zap.String("op", op), zap.Error(err))
		return err
	}
	if err := e.store.Save(ctx, next); err != nil {
		e.log.Error("commit failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: save state: %w", op, err)
	}
	return nil
}

// view runs fn against a consistent snapshot without saving.
func (e *Engine) view(ctx context.Context, fn func(st *models.State, now time.Time) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	return fn(st, e.clock.Now())
}

func (e *Engine) settingsOf(st *models.State) models.LoyaltySettings {
	if st.Settings != nil {
		return *st.Settings
	}
	return e.defaults
}

// Settings returns the loyalty program in force.
func (e *Engine) Settings(ctx context.Context) (models.LoyaltySettings, error) {
	var out models.LoyaltySettings
	err := e.view(ctx, func(st *models.State, _ time.Time) error {
		out = e.settingsOf(st).Clone()
		return nil
	})
	return out, err
}

// UpdateSettings replaces the loyalty program. Past sales keep the tier and
// promotion snapshot they were settled with.
func (e *Engine) UpdateSettings(ctx context.Context, s models.LoyaltySettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return e.mutate(ctx, "update settings", func(st *models.State, _ time.Time) error {
		cp := s.Clone()
		st.Settings = &cp
		return nil
	})
}

// EnsureSettings stores defaults when the store has no loyalty program yet.
func (e *Engine) EnsureSettings(ctx context.Context) error {
	return e.mutate(ctx, "seed settings", func(st *models.State, _ time.Time) error {
		if st.Settings == nil {
			cp := e.defaults.Clone()
			st.Settings = &cp
		}
		return nil
	})
}

func customer(st *models.State, id string) (models.Customer, error) {
	c, ok := st.Customers[models.NormalizeCustomerID(id)]
	if !ok {
		return models.Customer{}, fmt.Errorf("%w: customer %s", errs.ErrNotFound, id)
	}
	return c, nil
}

// Package engine is the identifier-based surface over the tree package.
// Each operation loads one goal from the store, applies a pure tree
// transform, and commits the result with a single Put. Nothing is cached
// between calls; the store is the only state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/store"
	"github.com/arnold/goalsteps-api/internal/tree"
)

// Store is the goal record store the engine reads and writes. Load must
// return store.ErrNotFound for a missing id. Put replaces the whole
// record.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Goal, error)
	Load(ctx context.Context, id string) (models.Goal, error)
	Put(ctx context.Context, g models.Goal) error
	Delete(ctx context.Context, id string) error
}

// BatchStore is implemented by stores that can write several goals
// atomically. ReorderGoals uses it when available.
type BatchStore interface {
	PutAll(ctx context.Context, goals []models.Goal) error
}

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// UUIDGenerator issues random (v4) UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type Engine struct {
	store  Store
	ids    IDGenerator
	clock  Clock
	logger *slog.Logger
}

type Option func(*Engine)

func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Engine) { e.ids = ids }
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func New(s Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		ids:    UUIDGenerator{},
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a step operation. Goal is the committed goal:
// the new value when Changed, otherwise the goal as loaded. StepID names
// the step the operation created or addressed.
type Result struct {
	Goal    models.Goal
	StepID  string
	Changed bool
}

// transform is a pure goal-to-goal step; err aborts without writing.
type transform func(g models.Goal, now time.Time) (next models.Goal, stepID string, changed bool, err error)

func (e *Engine) apply(ctx context.Context, op, goalID string, fn transform) (Result, error) {
	g, err := e.load(ctx, goalID)
	if err != nil {
		return Result{}, err
	}

	next, stepID, changed, err := fn(g, e.clock.Now())
	if err != nil {
		return Result{Goal: g}, err
	}
	if !changed {
		e.logger.DebugContext(ctx, "goal unchanged", "op", op, "goal", goalID, "step", stepID)
		return Result{Goal: g, StepID: stepID}, nil
	}

	if err := e.store.Put(ctx, next); err != nil {
		e.logger.ErrorContext(ctx, "goal write failed", "op", op, "goal", goalID, "error", err)
		return Result{Goal: g, StepID: stepID}, fmt.Errorf("%w %s: %w", ErrPersist, goalID, err)
	}
	e.logger.InfoContext(ctx, "goal updated", "op", op, "goal", goalID, "step", stepID)
	return Result{Goal: next, StepID: stepID, Changed: true}, nil
}

func (e *Engine) load(ctx context.Context, goalID string) (models.Goal, error) {
	g, err := e.store.Load(ctx, goalID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, goalID)
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("load goal %s: %w", goalID, err)
	}
	if err := tree.Verify(g); err != nil {
		e.logger.WarnContext(ctx, "stored goal repaired", "goal", goalID, "error", err)
		g = tree.Normalize(g)
	}
	return g, nil
}

func validTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return t, nil
}

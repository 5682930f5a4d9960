package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/store"
	"github.com/arnold/goalsteps-api/internal/tree"
)

// ListGoals returns every goal in display order.
func (e *Engine) ListGoals(ctx context.Context) ([]models.Goal, error) {
	goals, err := e.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return tree.SortGoals(goals), nil
}

func (e *Engine) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	return e.load(ctx, id)
}

// CreateGoal adds an empty goal after the last one in the collection.
func (e *Engine) CreateGoal(ctx context.Context, title, description string) (models.Goal, error) {
	title, err := validTitle(title)
	if err != nil {
		return models.Goal{}, err
	}
	all, err := e.store.LoadAll(ctx)
	if err != nil {
		return models.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	now := e.clock.Now()
	all = tree.InsertGoal(all, models.Goal{
		ID:          e.ids.NewID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
		Steps:       []models.Step{},
	})
	g := all[len(all)-1]

	if err := e.store.Put(ctx, g); err != nil {
		e.logger.ErrorContext(ctx, "goal write failed", "op", "create_goal", "goal", g.ID, "error", err)
		return models.Goal{}, fmt.Errorf("%w %s: %w", ErrPersist, g.ID, err)
	}
	e.logger.InfoContext(ctx, "goal created", "goal", g.ID, "order", g.Order)
	return g, nil
}

// UpdateGoal replaces the goal's title and/or description. A nil field is
// left as it is.
func (e *Engine) UpdateGoal(ctx context.Context, id string, title, description *string) (Result, error) {
	if title != nil {
		t, err := validTitle(*title)
		if err != nil {
			return Result{}, err
		}
		title = &t
	}
	return e.apply(ctx, "update_goal", id, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		next := g
		if title != nil {
			next.Title = *title
		}
		if description != nil {
			next.Description = strings.TrimSpace(*description)
		}
		if next.Title == g.Title && next.Description == g.Description {
			return g, "", false, nil
		}
		next.UpdatedAt = now
		return next, "", true, nil
	})
}

// DeleteGoal removes the goal and its steps. Remaining goals keep their
// order values.
func (e *Engine) DeleteGoal(ctx context.Context, id string) error {
	err := e.store.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "goal delete failed", "goal", id, "error", err)
		return fmt.Errorf("%w %s: %w", ErrPersist, id, err)
	}
	e.logger.InfoContext(ctx, "goal deleted", "goal", id)
	return nil
}

// ReorderGoals moves the goal at display position src to dst and
// renumbers the collection. Only goals whose order changed are written.
func (e *Engine) ReorderGoals(ctx context.Context, src, dst int) ([]models.Goal, error) {
	goals, err := e.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	if src < 0 || src >= len(goals) {
		return nil, &ValidationError{Field: "from", Reason: fmt.Sprintf("must be in [0, %d)", len(goals))}
	}
	if dst < 0 || dst >= len(goals) {
		return nil, &ValidationError{Field: "to", Reason: fmt.Sprintf("must be in [0, %d)", len(goals))}
	}

	before := make(map[string]models.Goal, len(goals))
	for _, g := range goals {
		before[g.ID] = g
	}
	reordered := tree.ReorderGoals(goals, src, dst)

	var dirty, prev []models.Goal
	for _, g := range reordered {
		if old := before[g.ID]; old.Order != g.Order {
			dirty = append(dirty, g)
			prev = append(prev, old)
		}
	}
	if len(dirty) == 0 {
		return goals, nil
	}

	if err := e.putAll(ctx, dirty, prev); err != nil {
		e.logger.ErrorContext(ctx, "goal reorder failed", "from", src, "to", dst, "error", err)
		return goals, fmt.Errorf("%w: reorder: %w", ErrPersist, err)
	}
	e.logger.InfoContext(ctx, "goals reordered", "from", src, "to", dst, "written", len(dirty))
	return reordered, nil
}

// putAll writes goals in one batch when the store supports it. Otherwise
// it writes them one by one and, when a write fails, puts back prev[i]
// for every goal already written. prev must be aligned with goals.
func (e *Engine) putAll(ctx context.Context, goals, prev []models.Goal) error {
	if b, ok := e.store.(BatchStore); ok {
		return b.PutAll(ctx, goals)
	}
	for i, g := range goals {
		if err := e.store.Put(ctx, g); err != nil {
			return errors.Join(err, e.restore(ctx, prev[:i]))
		}
	}
	return nil
}

func (e *Engine) restore(ctx context.Context, goals []models.Goal) error {
	var errs []error
	for _, g := range goals {
		if err := e.store.Put(ctx, g); err != nil {
			e.logger.ErrorContext(ctx, "goal rollback failed", "goal", g.ID, "error", err)
			errs = append(errs, fmt.Errorf("%w %s: %w", ErrRollback, g.ID, err))
		}
	}
	return errors.Join(errs...)
}

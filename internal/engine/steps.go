package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/tree"
)

// AddStep creates an empty leaf under parentID, or at root level when
// parentID is nil. Result.StepID is the new step's id; it is empty when
// the parent does not exist.
func (e *Engine) AddStep(ctx context.Context, goalID, title, description string, parentID *string) (Result, error) {
	title, err := validTitle(title)
	if err != nil {
		return Result{}, err
	}
	return e.apply(ctx, "add_step", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		step := models.Step{
			ID:          e.ids.NewID(),
			Title:       title,
			Description: strings.TrimSpace(description),
			Children:    []models.Step{},
		}
		next, ok := tree.Insert(g, step, parentID, now)
		if !ok {
			return g, "", false, nil
		}
		return next, step.ID, true, nil
	})
}

func (e *Engine) UpdateStep(ctx context.Context, goalID, stepID, title, description string) (Result, error) {
	title, err := validTitle(title)
	if err != nil {
		return Result{}, err
	}
	description = strings.TrimSpace(description)
	return e.apply(ctx, "update_step", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		if s, ok := tree.Find(g, stepID); ok && s.Title == title && s.Description == description {
			return g, stepID, false, nil
		}
		next, ok := tree.Update(g, stepID, title, description, now)
		return next, stepID, ok, nil
	})
}

// DeleteStep removes the step with its whole subtree.
func (e *Engine) DeleteStep(ctx context.Context, goalID, stepID string) (Result, error) {
	return e.apply(ctx, "delete_step", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		next, ok := tree.Delete(g, stepID, now)
		return next, stepID, ok, nil
	})
}

// ToggleStep flips the step's completion and forces the new value onto
// every descendant.
func (e *Engine) ToggleStep(ctx context.Context, goalID, stepID string) (Result, error) {
	return e.apply(ctx, "toggle_step", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		next, ok := tree.ToggleCompletion(g, stepID, now)
		return next, stepID, ok, nil
	})
}

// SetStepCompletion marks the step and its subtree completed or not.
func (e *Engine) SetStepCompletion(ctx context.Context, goalID, stepID string, completed bool) (Result, error) {
	return e.apply(ctx, "set_step_completion", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		next, ok := tree.SetCompletion(g, stepID, completed, now)
		return next, stepID, ok, nil
	})
}

// DuplicateStep copies the step's subtree next to it. Result.StepID is the
// id of the copy's root.
func (e *Engine) DuplicateStep(ctx context.Context, goalID, stepID string) (Result, error) {
	return e.apply(ctx, "duplicate_step", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		next, copyID, ok := tree.DuplicateSubtree(g, stepID, e.ids.NewID, now)
		return next, copyID, ok, nil
	})
}

// ReorderStep moves the step to newIndex among the siblings under
// parentID and renumbers them.
func (e *Engine) ReorderStep(ctx context.Context, goalID, stepID string, newIndex int, parentID *string) (Result, error) {
	return e.apply(ctx, "reorder_step", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		next, ok := tree.ReorderSiblings(g, stepID, newIndex, parentID, now)
		return next, stepID, ok, nil
	})
}

// MoveStep re-parents the step with its subtree, appending it to the new
// siblings. A move under the step itself or one of its descendants fails
// with ErrIllegalMove; a missing step or parent changes nothing.
func (e *Engine) MoveStep(ctx context.Context, goalID, stepID string, newParentID *string) (Result, error) {
	return e.apply(ctx, "move_step", goalID, func(g models.Goal, now time.Time) (models.Goal, string, bool, error) {
		if err := tree.CanMove(g, stepID, newParentID); errors.Is(err, tree.ErrIllegalMove) {
			return g, stepID, false, fmt.Errorf("move %s: %w", stepID, err)
		}
		next, ok := tree.MoveToParent(g, stepID, newParentID, now)
		return next, stepID, ok, nil
	})
}

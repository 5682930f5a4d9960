package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arnold/goalsteps-api/internal/engine"
	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/tree"
)

func newStepsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Edit the step tree of a goal",
	}
	cmd.AddCommand(newStepsAddCmd(app))
	cmd.AddCommand(newStepsEditCmd(app))
	cmd.AddCommand(newStepsSimpleCmd(app, "rm", "Delete a step and its subtree", func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.DeleteStep(ctx, goalID, stepID)
	}))
	cmd.AddCommand(newStepsSimpleCmd(app, "toggle", "Flip a step's completion, cascading to its subtree", func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.ToggleStep(ctx, goalID, stepID)
	}))
	cmd.AddCommand(newStepsSimpleCmd(app, "done", "Mark a step and its subtree completed", func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.SetStepCompletion(ctx, goalID, stepID, true)
	}))
	cmd.AddCommand(newStepsSimpleCmd(app, "undo", "Mark a step and its subtree not completed", func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.SetStepCompletion(ctx, goalID, stepID, false)
	}))
	cmd.AddCommand(newStepsSimpleCmd(app, "dup", "Copy a step's subtree next to it", func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.DuplicateStep(ctx, goalID, stepID)
	}))
	cmd.AddCommand(newStepsReorderCmd(app))
	cmd.AddCommand(newStepsMoveCmd(app))
	return cmd
}

func writeResult(cmd *cobra.Command, app *App, res engine.Result) error {
	return writeOut(cmd, app, models.StepResponse{
		Goal:    res.Goal,
		StepID:  res.StepID,
		Changed: res.Changed,
	})
}

func optionalID(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newStepsSimpleCmd(app *App, use, short string, op func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <goal-id> <step-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := op(cmd.Context(), e, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeResult(cmd, app, res)
		},
	}
}

func newStepsAddCmd(app *App) *cobra.Command {
	var parent, description string
	cmd := &cobra.Command{
		Use:   "add <goal-id> <title>",
		Short: "Add a step at root level or under --parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := e.AddStep(cmd.Context(), args[0], args[1], description, optionalID(parent))
			if err != nil {
				return writeErr(cmd, err)
			}
			if !res.Changed {
				return writeErr(cmd, fmt.Errorf("parent step not found: %s", parent))
			}
			return writeResult(cmd, app, res)
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent step id")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Step description")
	return cmd
}

func newStepsEditCmd(app *App) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <goal-id> <step-id>",
		Short: "Change a step's title or description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			goalID, stepID := args[0], args[1]

			// Unset flags keep the step's current values.
			if !cmd.Flags().Changed("title") || !cmd.Flags().Changed("description") {
				g, err := e.GetGoal(cmd.Context(), goalID)
				if err != nil {
					return writeErr(cmd, err)
				}
				s, ok := tree.Find(g, stepID)
				if !ok {
					return writeErr(cmd, fmt.Errorf("step not found: %s", stepID))
				}
				if !cmd.Flags().Changed("title") {
					title = s.Title
				}
				if !cmd.Flags().Changed("description") {
					description = s.Description
				}
			}

			res, err := e.UpdateStep(cmd.Context(), goalID, stepID, title, description)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeResult(cmd, app, res)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newStepsReorderCmd(app *App) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "reorder <goal-id> <step-id> <index>",
		Short: "Move a step to <index> among its siblings (0-based)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[2])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid <index>: %q", args[2]))
			}
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			goalID, stepID := args[0], args[1]

			g, err := e.GetGoal(cmd.Context(), goalID)
			if err != nil {
				return writeErr(cmd, err)
			}
			parentID := optionalID(parent)
			if !cmd.Flags().Changed("parent") {
				parentID, _ = tree.ParentOf(g, stepID)
			}
			if _, ok := tree.Siblings(g, parentID); !ok {
				return writeErr(cmd, fmt.Errorf("parent step not found: %s", parent))
			}

			res, err := e.ReorderStep(cmd.Context(), goalID, stepID, index, parentID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeResult(cmd, app, res)
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent of the sibling set (default: the step's own parent)")
	return cmd
}

func newStepsMoveCmd(app *App) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "move <goal-id> <step-id>",
		Short: "Re-parent a step under --parent, or to root level without it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := e.MoveStep(cmd.Context(), args[0], args[1], optionalID(parent))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeResult(cmd, app, res)
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "New parent step id")
	return cmd
}

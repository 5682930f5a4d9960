package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/tree"
)

func newGoalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List, create and arrange goals",
	}
	cmd.AddCommand(newGoalsListCmd(app))
	cmd.AddCommand(newGoalsAddCmd(app))
	cmd.AddCommand(newGoalsShowCmd(app))
	cmd.AddCommand(newGoalsEditCmd(app))
	cmd.AddCommand(newGoalsRmCmd(app))
	cmd.AddCommand(newGoalsReorderCmd(app))
	return cmd
}

func newGoalsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals in display order with progress counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			goals, err := e.ListGoals(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make([]models.GoalSummary, len(goals))
			for i, g := range goals {
				out[i] = g.Summary()
			}
			return writeOut(cmd, app, out)
		},
	}
}

func newGoalsAddCmd(app *App) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a goal after the existing ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			g, err := e.CreateGoal(cmd.Context(), args[0], description)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, g)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Goal description")
	return cmd
}

func newGoalsShowCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <goal-id>",
		Short: "Print a goal's step tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			g, err := e.GetGoal(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if asJSON {
				return writeOut(cmd, app, g)
			}
			return printTree(cmd.OutOrStdout(), g)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the goal as JSON instead of a tree")
	return cmd
}

func newGoalsEditCmd(app *App) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <goal-id>",
		Short: "Change a goal's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var titlePtr, descPtr *string
			if cmd.Flags().Changed("title") {
				titlePtr = &title
			}
			if cmd.Flags().Changed("description") {
				descPtr = &description
			}
			if titlePtr == nil && descPtr == nil {
				return writeErr(cmd, fmt.Errorf("provide --title and/or --description"))
			}

			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := e.UpdateGoal(cmd.Context(), args[0], titlePtr, descPtr)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, res.Goal)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newGoalsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <goal-id>",
		Short: "Delete a goal with all its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := e.DeleteGoal(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[0]})
		},
	}
}

func newGoalsReorderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <from> <to>",
		Short: "Move the goal at display position <from> to <to> (0-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid <from>: %q", args[0]))
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid <to>: %q", args[1]))
			}

			e, err := openEngine(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			goals, err := e.ReorderGoals(cmd.Context(), from, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make([]models.GoalSummary, len(goals))
			for i, g := range goals {
				out[i] = g.Summary()
			}
			return writeOut(cmd, app, out)
		},
	}
}

// printTree writes the goal header and one indented line per step,
// siblings in order.
func printTree(w io.Writer, g models.Goal) error {
	if _, err := fmt.Fprintf(w, "%s (%d/%d)  %s\n", g.Title, g.CompletedCount(), g.StepCount(), g.ID); err != nil {
		return err
	}
	var err error
	tree.Walk(g, func(s models.Step, depth int) {
		if err != nil {
			return
		}
		mark := " "
		if s.Completed {
			mark = "x"
		}
		_, err = fmt.Fprintf(w, "%s[%s] %s  %s\n", strings.Repeat("  ", depth+1), mark, s.Title, s.ID)
	})
	return err
}

package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/arnold/goalsteps-api/internal/database"
	"github.com/arnold/goalsteps-api/internal/engine"
	"github.com/arnold/goalsteps-api/internal/store"
)

type App struct {
	DB         string
	Memory     bool
	Owner      string
	PrettyJSON bool
	Verbose    bool

	// store, when set, is used instead of opening DB.
	store engine.Store
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "goalctl",
		Short:        "Manage goals and their step trees from the command line",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  goalctl goals add "Run a marathon"
  goalctl steps add <goal-id> "Buy shoes"
  goalctl steps add <goal-id> "Try them on" --parent <step-id>
  goalctl goals show <goal-id>
`),
	}

	cmd.PersistentFlags().StringVar(&app.DB, "db", envOr("GOALCTL_DB", "goals.db"), "SQLite file or postgres:// URL holding the goals")
	cmd.PersistentFlags().BoolVar(&app.Memory, "memory", false, "Use a throwaway in-memory store")
	cmd.PersistentFlags().StringVar(&app.Owner, "owner", envOr("GOALCTL_OWNER", ""), "Owner id whose goals to address")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log engine activity to stderr")

	cmd.AddCommand(newGoalsCmd(app))
	cmd.AddCommand(newStepsCmd(app))

	return cmd
}

func openEngine(cmd *cobra.Command, app *App) (*engine.Engine, error) {
	level := slog.LevelWarn
	if app.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if app.store == nil {
		switch {
		case app.Memory:
			app.store = store.NewMemory().WithOwner(app.Owner)
		default:
			db, err := database.Open(app.DB, logger.Silent)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", app.DB, err)
			}
			s := store.NewGorm(db)
			if err := s.Migrate(); err != nil {
				return nil, fmt.Errorf("migrate %s: %w", app.DB, err)
			}
			app.store = s.WithOwner(app.Owner)
		}
	}
	return engine.New(app.store, engine.WithLogger(log)), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

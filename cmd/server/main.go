package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/arnold/goalsteps-api/internal/config"
	"github.com/arnold/goalsteps-api/internal/database"
	"github.com/arnold/goalsteps-api/internal/engine"
	"github.com/arnold/goalsteps-api/internal/handlers"
	"github.com/arnold/goalsteps-api/internal/middleware"
	"github.com/arnold/goalsteps-api/internal/routes"
	"github.com/arnold/goalsteps-api/internal/services"
	"github.com/arnold/goalsteps-api/internal/store"
)

func main() {
	cfg := config.Load()
	log := cfg.Logger(os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	middleware.SetSecret(cfg.JWTSecret)

	if err := database.Connect(cfg); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	stores, closeStores, err := goalStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	if err := services.InitPush(cfg.FCMServiceAccount, database.DB, log); err != nil {
		return fmt.Errorf("init push: %w", err)
	}

	hub := handlers.NewHub(log)
	goalHandler := handlers.NewGoalHandler(stores, hub, services.Push, log)

	app := fiber.New(fiber.Config{AppName: "goalsteps-api"})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())
	routes.Setup(app, goalHandler, hub)

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.Port, "store", cfg.GoalStore)
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// goalStores picks the goal backend from GOAL_STORE and returns a per-user
// view factory plus a cleanup func.
func goalStores(ctx context.Context, cfg *config.Config) (handlers.StoreFor, func(), error) {
	switch cfg.GoalStore {
	case "neo4j":
		driver, err := store.OpenNeo4j(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewNeo4j(driver, "")
		if err := s.EnsureSchema(ctx); err != nil {
			driver.Close(ctx)
			return nil, nil, fmt.Errorf("neo4j schema: %w", err)
		}
		return func(userID uuid.UUID) engine.Store {
				return s.WithOwner(userID.String())
			}, func() {
				driver.Close(context.Background())
			}, nil
	case "sql", "":
		s := store.NewGorm(database.DB)
		return func(userID uuid.UUID) engine.Store {
			return s.WithOwner(userID.String())
		}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown GOAL_STORE %q (want sql or neo4j)", cfg.GoalStore)
	}
}

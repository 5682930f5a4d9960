package routes

import (
	"github.com/arnold/goalsteps-api/internal/handlers"
	"github.com/arnold/goalsteps-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func Setup(app *fiber.App, goalHandler *handlers.GoalHandler, hub *handlers.Hub) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	goals := protected.Group("/goals")
	goals.Get("/", goalHandler.GetGoals)
	goals.Post("/", goalHandler.CreateGoal)
	goals.Post("/reorder", goalHandler.ReorderGoals)
	goals.Get("/:id", goalHandler.GetGoal)
	goals.Put("/:id", goalHandler.UpdateGoal)
	goals.Delete("/:id", goalHandler.DeleteGoal)

	// Steps
	goals.Post("/:id/steps", goalHandler.CreateStep)
	goals.Put("/:id/steps/:stepId", goalHandler.UpdateStep)
	goals.Delete("/:id/steps/:stepId", goalHandler.DeleteStep)
	goals.Post("/:id/steps/:stepId/toggle", goalHandler.ToggleStep)
	goals.Post("/:id/steps/:stepId/duplicate", goalHandler.DuplicateStep)
	goals.Post("/:id/steps/:stepId/reorder", goalHandler.ReorderStep)
	goals.Post("/:id/steps/:stepId/move", goalHandler.MoveStep)

	// WebSocket for real-time goal updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/goals", websocket.New(hub.HandleWebSocket))
}

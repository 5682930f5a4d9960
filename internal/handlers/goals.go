package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/arnold/goalsteps-api/internal/engine"
	"github.com/arnold/goalsteps-api/internal/middleware"
	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/tree"
)

// StoreFor opens the goal store holding one user's goals.
type StoreFor func(userID uuid.UUID) engine.Store

// Notifier is told about steps a user just completed.
type Notifier interface {
	NotifyStepCompleted(userID uuid.UUID, goal models.Goal, step models.Step)
}

// GoalHandler serves the goal and step routes. Every request builds an
// engine over the caller's store; writes for one user are serialized.
type GoalHandler struct {
	stores StoreFor
	hub    *Hub
	push   Notifier
	logger *slog.Logger
	opts   []engine.Option
	locks  *ownerLocks
}

func NewGoalHandler(stores StoreFor, hub *Hub, push Notifier, logger *slog.Logger, opts ...engine.Option) *GoalHandler {
	return &GoalHandler{
		stores: stores,
		hub:    hub,
		push:   push,
		logger: logger,
		opts:   append([]engine.Option{engine.WithLogger(logger)}, opts...),
		locks:  newOwnerLocks(),
	}
}

func (h *GoalHandler) engineFor(userID uuid.UUID) *engine.Engine {
	return engine.New(h.stores(userID), h.opts...)
}

// writer returns the caller's engine with the caller's write lock held.
func (h *GoalHandler) writer(userID uuid.UUID) (*engine.Engine, func()) {
	unlock := h.locks.lock(userID)
	return h.engineFor(userID), unlock
}

// fail maps engine errors onto HTTP responses.
func (h *GoalHandler) fail(c *fiber.Ctx, err error) error {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": verr.Error(),
		})
	case errors.Is(err, engine.ErrGoalNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	case errors.Is(err, tree.ErrIllegalMove):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A step cannot move under itself or its own descendants",
		})
	default:
		h.logger.Error("goal request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save goal",
		})
	}
}

func (h *GoalHandler) broadcast(userID uuid.UUID, eventType, goalID string, data interface{}) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(userID, WSEvent{
		Type:   eventType,
		GoalID: goalID,
		UserID: userID.String(),
		Data:   data,
	})
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return uuid.Nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}
	return userID, nil
}

func (h *GoalHandler) GetGoals(c *fiber.Ctx) error {
	userID, fiberErr := currentUser(c)
	if fiberErr != nil {
		return fiberErr
	}

	goals, err := h.engineFor(userID).ListGoals(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	if c.QueryBool("summary") {
		summaries := make([]models.GoalSummary, len(goals))
		for i, g := range goals {
			summaries[i] = g.Summary()
		}
		return c.JSON(summaries)
	}
	return c.JSON(goals)
}

func (h *GoalHandler) GetGoal(c *fiber.Ctx) error {
	userID, fiberErr := currentUser(c)
	if fiberErr != nil {
		return fiberErr
	}

	goal, err := h.engineFor(userID).GetGoal(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(goal)
}

func (h *GoalHandler) CreateGoal(c *fiber.Ctx) error {
	userID, fiberErr := currentUser(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	e, unlock := h.writer(userID)
	defer unlock()

	goal, err := e.CreateGoal(c.UserContext(), req.Title, req.Description)
	if err != nil {
		return h.fail(c, err)
	}

	h.broadcast(userID, EventGoalCreated, goal.ID, goal)
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (h *GoalHandler) UpdateGoal(c *fiber.Ctx) error {
	userID, fiberErr := currentUser(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	e, unlock := h.writer(userID)
	defer unlock()

	res, err := e.UpdateGoal(c.UserContext(), c.Params("id"), req.Title, req.Description)
	if err != nil {
		return h.fail(c, err)
	}

	if res.Changed {
		h.broadcast(userID, EventGoalUpdated, res.Goal.ID, res.Goal)
	}
	return c.JSON(res.Goal)
}

func (h *GoalHandler) DeleteGoal(c *fiber.Ctx) error {
	userID, fiberErr := currentUser(c)
	if fiberErr != nil {
		return fiberErr
	}
	goalID := c.Params("id")

	e, unlock := h.writer(userID)
	defer unlock()

	if err := e.DeleteGoal(c.UserContext(), goalID); err != nil {
		return h.fail(c, err)
	}

	h.broadcast(userID, EventGoalDeleted, goalID, nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *GoalHandler) ReorderGoals(c *fiber.Ctx) error {
	userID, fiberErr := currentUser(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req models.ReorderGoalsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	e, unlock := h.writer(userID)
	defer unlock()

	goals, err := e.ReorderGoals(c.UserContext(), req.From, req.To)
	if err != nil {
		return h.fail(c, err)
	}

	h.broadcast(userID, EventGoalsReordered, "", goals)
	return c.JSON(goals)
}

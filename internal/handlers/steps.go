package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/arnold/goalsteps-api/internal/engine"
	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/tree"
)

type stepOp func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error)

// runStep applies op to the goal and step named in the path and writes the
// result. created is the status used when op changed the goal.
func (h *GoalHandler) runStep(c *fiber.Ctx, created int, op stepOp) error {
	userID, fiberErr := currentUser(c)
	if fiberErr != nil {
		return fiberErr
	}

	e, unlock := h.writer(userID)
	defer unlock()

	res, err := op(c.UserContext(), e, c.Params("id"), c.Params("stepId"))
	if err != nil {
		return h.fail(c, err)
	}

	status := fiber.StatusOK
	if res.Changed {
		status = created
		h.broadcast(userID, EventGoalUpdated, res.Goal.ID, res.Goal)
	}
	return c.Status(status).JSON(models.StepResponse{
		Goal:    res.Goal,
		StepID:  res.StepID,
		Changed: res.Changed,
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}

func (h *GoalHandler) CreateStep(c *fiber.Ctx) error {
	var req models.CreateStepRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	return h.runStep(c, fiber.StatusCreated, func(ctx context.Context, e *engine.Engine, goalID, _ string) (engine.Result, error) {
		return e.AddStep(ctx, goalID, req.Title, req.Description, req.ParentID)
	})
}

func (h *GoalHandler) UpdateStep(c *fiber.Ctx) error {
	var req models.UpdateStepRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	return h.runStep(c, fiber.StatusOK, func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.UpdateStep(ctx, goalID, stepID, req.Title, req.Description)
	})
}

func (h *GoalHandler) DeleteStep(c *fiber.Ctx) error {
	return h.runStep(c, fiber.StatusOK, func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.DeleteStep(ctx, goalID, stepID)
	})
}

// ToggleStep flips completion and pushes a notification when the step
// ends up done.
func (h *GoalHandler) ToggleStep(c *fiber.Ctx) error {
	return h.runStep(c, fiber.StatusOK, func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		res, err := e.ToggleStep(ctx, goalID, stepID)
		if err == nil && res.Changed {
			h.notifyCompleted(c, res)
		}
		return res, err
	})
}

func (h *GoalHandler) notifyCompleted(c *fiber.Ctx, res engine.Result) {
	if h.push == nil {
		return
	}
	step, ok := tree.Find(res.Goal, res.StepID)
	if !ok || !step.Completed {
		return
	}
	userID, _ := c.Locals("userId").(uuid.UUID)
	go h.push.NotifyStepCompleted(userID, res.Goal, step)
}

func (h *GoalHandler) DuplicateStep(c *fiber.Ctx) error {
	return h.runStep(c, fiber.StatusCreated, func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.DuplicateStep(ctx, goalID, stepID)
	})
}

func (h *GoalHandler) ReorderStep(c *fiber.Ctx) error {
	var req models.ReorderStepRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	return h.runStep(c, fiber.StatusOK, func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.ReorderStep(ctx, goalID, stepID, req.Index, req.ParentID)
	})
}

func (h *GoalHandler) MoveStep(c *fiber.Ctx) error {
	var req models.MoveStepRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	return h.runStep(c, fiber.StatusOK, func(ctx context.Context, e *engine.Engine, goalID, stepID string) (engine.Result, error) {
		return e.MoveStep(ctx, goalID, stepID, req.ParentID)
	})
}

package models

import (
	"time"
)

// Goal is a top-level objective owning an ordered forest of Steps. Goal
// values are never mutated in place by the tree engine; use Clone before
// editing one by hand.
type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Steps       []Step    `json:"steps"`
	Order       int       `json:"order"`
}

// Clone returns a deep copy that shares no slices with g.
func (g Goal) Clone() Goal {
	g.Steps = cloneSteps(g.Steps)
	return g
}

// StepCount returns the number of steps anywhere in the tree.
func (g Goal) StepCount() int {
	return countSteps(g.Steps)
}

// CompletedCount returns the number of completed steps anywhere in the tree.
func (g Goal) CompletedCount() int {
	return countCompleted(g.Steps)
}

func countSteps(steps []Step) int {
	n := len(steps)
	for _, s := range steps {
		n += countSteps(s.Children)
	}
	return n
}

func countCompleted(steps []Step) int {
	n := 0
	for _, s := range steps {
		if s.Completed {
			n++
		}
		n += countCompleted(s.Children)
	}
	return n
}

// Goal DTOs
type CreateGoalRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type UpdateGoalRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type ReorderGoalsRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type GoalSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Order          int       `json:"order"`
	StepCount      int       `json:"stepCount"`
	CompletedCount int       `json:"completedCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (g Goal) Summary() GoalSummary {
	return GoalSummary{
		ID:             g.ID,
		Title:          g.Title,
		Description:    g.Description,
		Order:          g.Order,
		StepCount:      g.StepCount(),
		CompletedCount: g.CompletedCount(),
		UpdatedAt:      g.UpdatedAt,
	}
}

package tree

import (
	"github.com/arnold/goalsteps-api/internal/models"
)

// Find returns the step with the given id, searching the whole forest
// depth-first in pre-order.
func Find(goal models.Goal, stepID string) (models.Step, bool) {
	return findIn(goal.Steps, stepID)
}

func findIn(steps []models.Step, id string) (models.Step, bool) {
	for i := range steps {
		if steps[i].ID == id {
			return steps[i], true
		}
		if s, ok := findIn(steps[i].Children, id); ok {
			return s, true
		}
	}
	return models.Step{}, false
}

// Contains reports whether a step with the given id exists in the goal.
func Contains(goal models.Goal, stepID string) bool {
	_, ok := Find(goal, stepID)
	return ok
}

// IsDescendant reports whether candidateID is reachable from ancestorID by
// following children, at any depth. A node is not its own descendant.
func IsDescendant(goal models.Goal, ancestorID, candidateID string) bool {
	anc, ok := Find(goal, ancestorID)
	if !ok {
		return false
	}
	_, ok = findIn(anc.Children, candidateID)
	return ok
}

// ParentOf returns the structural parent id of a step (nil for a root
// step). The second result is false when the step does not exist.
func ParentOf(goal models.Goal, stepID string) (*string, bool) {
	for i := range goal.Steps {
		if goal.Steps[i].ID == stepID {
			return nil, true
		}
	}
	return parentIn(goal.Steps, stepID)
}

func parentIn(steps []models.Step, id string) (*string, bool) {
	for i := range steps {
		for j := range steps[i].Children {
			if steps[i].Children[j].ID == id {
				p := steps[i].ID
				return &p, true
			}
		}
		if p, ok := parentIn(steps[i].Children, id); ok {
			return p, true
		}
	}
	return nil, false
}

// Siblings returns the sibling set addressed by parentID: the goal's root
// steps when parentID is nil, otherwise the children of that step.
func Siblings(goal models.Goal, parentID *string) ([]models.Step, bool) {
	if parentID == nil {
		return goal.Steps, true
	}
	p, ok := Find(goal, *parentID)
	if !ok {
		return nil, false
	}
	return p.Children, true
}

// Walk visits every step in pre-order with its depth (0 for root steps).
// Siblings are visited in order value sequence.
func Walk(goal models.Goal, fn func(step models.Step, depth int)) {
	walkSteps(goal.Steps, 0, fn)
}

func walkSteps(steps []models.Step, depth int, fn func(models.Step, int)) {
	for _, s := range SortSteps(steps) {
		fn(s, depth)
		walkSteps(s.Children, depth+1, fn)
	}
}

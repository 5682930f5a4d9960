package tree

import (
	"errors"
	"fmt"

	"github.com/arnold/goalsteps-api/internal/models"
)

// Verify checks the structural invariants of a goal's tree: unique step
// ids, ParentID agreeing with tree position, and no two siblings sharing
// an order value. Gaps in sibling orders are allowed. All problems found
// are joined into one error.
func Verify(goal models.Goal) error {
	var errs []error
	seen := map[string]bool{}

	var walk func(steps []models.Step, parentID *string)
	walk = func(steps []models.Step, parentID *string) {
		orders := map[int]string{}
		for i := range steps {
			s := steps[i]
			if seen[s.ID] {
				errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateID, s.ID))
			}
			seen[s.ID] = true

			if !sameID(s.ParentID, parentID) {
				errs = append(errs, fmt.Errorf("%w: %s", ErrParentMismatch, s.ID))
			}
			if other, ok := orders[s.Order]; ok {
				errs = append(errs, fmt.Errorf("%w: %s and %s at %d", ErrDuplicateOrder, other, s.ID, s.Order))
			}
			orders[s.Order] = s.ID

			id := s.ID
			walk(s.Children, &id)
		}
	}
	walk(goal.Steps, nil)
	return errors.Join(errs...)
}

// Normalize returns a copy of goal with every sibling set sorted by order
// and renumbered 0..N-1, and every ParentID rewritten to match the tree.
// UpdatedAt is not changed.
func Normalize(goal models.Goal) models.Goal {
	goal.Steps = normalizeSteps(goal.Steps, nil)
	return goal
}

func normalizeSteps(steps []models.Step, parentID *string) []models.Step {
	if steps == nil {
		return nil
	}
	out := SortSteps(steps)
	for i := range out {
		out[i].Order = i
		out[i].ParentID = copyID(parentID)
		id := out[i].ID
		out[i].Children = normalizeSteps(out[i].Children, &id)
	}
	return out
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

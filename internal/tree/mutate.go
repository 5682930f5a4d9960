package tree

import (
	"time"

	"github.com/arnold/goalsteps-api/internal/models"
)

// CopySuffix is appended to the title of the root of a duplicated subtree.
const CopySuffix = " (Copy)"

// Every mutator takes the goal by value and returns (goal, changed). When
// changed is false the returned goal is the input, untouched. Mutators
// copy the path from the root to the edited node and share every other
// subtree with the input, so neither the input nor anything reachable
// from it is ever written to.

// Insert appends step to the root list (parentID nil) or to the children
// of parentID, with order one past the current maximum. The step's
// ParentID is set to match its new position. Inserting under a missing
// parent, or a step whose id already exists in the goal, is a no-op.
func Insert(goal models.Goal, step models.Step, parentID *string, now time.Time) (models.Goal, bool) {
	if step.ID == "" || Contains(goal, step.ID) {
		return goal, false
	}
	step.ParentID = copyID(parentID)
	steps, ok := editSiblings(goal.Steps, parentID, func(sibs []models.Step) ([]models.Step, bool) {
		step.Order = NextOrder(stepOrders(sibs))
		return appendStep(sibs, step), true
	})
	if !ok {
		return goal, false
	}
	return touched(goal, steps, now), true
}

// Update replaces the title and description of a step, keeping its
// children, order, completion and parent.
func Update(goal models.Goal, stepID, title, description string, now time.Time) (models.Goal, bool) {
	steps, ok := editStep(goal.Steps, stepID, func(s models.Step) (models.Step, bool) {
		s.Title = title
		s.Description = description
		return s, true
	})
	if !ok {
		return goal, false
	}
	return touched(goal, steps, now), true
}

// Delete removes a step and its whole subtree. Remaining siblings keep
// their order values, so the set may have gaps afterwards.
func Delete(goal models.Goal, stepID string, now time.Time) (models.Goal, bool) {
	steps, _, ok := removeStep(goal.Steps, stepID)
	if !ok {
		return goal, false
	}
	return touched(goal, steps, now), true
}

// ToggleCompletion flips a step's completion and forces the new value onto
// every descendant. Ancestors are left alone.
func ToggleCompletion(goal models.Goal, stepID string, now time.Time) (models.Goal, bool) {
	steps, ok := editStep(goal.Steps, stepID, func(s models.Step) (models.Step, bool) {
		return withCompletion(s, !s.Completed), true
	})
	if !ok {
		return goal, false
	}
	return touched(goal, steps, now), true
}

// SetCompletion forces completed onto a step and its descendants. It is a
// no-op when the whole subtree already carries that value.
func SetCompletion(goal models.Goal, stepID string, completed bool, now time.Time) (models.Goal, bool) {
	steps, ok := editStep(goal.Steps, stepID, func(s models.Step) (models.Step, bool) {
		if uniform(s, completed) {
			return s, false
		}
		return withCompletion(s, completed), true
	})
	if !ok {
		return goal, false
	}
	return touched(goal, steps, now), true
}

// DuplicateSubtree copies a step and its subtree, giving every copied node
// a fresh id from newID, and appends the copy as the last sibling of the
// original. Only the root copy's title gets CopySuffix. It returns the id
// of the new root.
func DuplicateSubtree(goal models.Goal, stepID string, newID func() string, now time.Time) (models.Goal, string, bool) {
	src, ok := Find(goal, stepID)
	if !ok {
		return goal, "", false
	}
	parentID, _ := ParentOf(goal, stepID)

	dup := cloneFresh(src, parentID, newID)
	dup.Title = src.Title + CopySuffix
	steps, ok := editSiblings(goal.Steps, parentID, func(sibs []models.Step) ([]models.Step, bool) {
		dup.Order = NextOrder(stepOrders(sibs))
		return appendStep(sibs, dup), true
	})
	if !ok {
		return goal, "", false
	}
	return touched(goal, steps, now), dup.ID, true
}

// ReorderSiblings moves stepID to newIndex within the sibling set named by
// parentID (nil for the root list) and renumbers that set 0..N-1 in the
// resulting order. Indexes follow list splice rules: negative inserts
// first, past the end appends. Siblings are taken in their current order
// value sequence.
func ReorderSiblings(goal models.Goal, stepID string, newIndex int, parentID *string, now time.Time) (models.Goal, bool) {
	steps, ok := editSiblings(goal.Steps, parentID, func(sibs []models.Step) ([]models.Step, bool) {
		sorted := SortSteps(sibs)
		from := indexOfStep(sorted, stepID)
		if from < 0 {
			return sibs, false
		}
		out := Move(sorted, from, newIndex)
		renumberSteps(out)
		if sameSequence(sibs, out) {
			return sibs, false
		}
		return out, true
	})
	if !ok {
		return goal, false
	}
	return touched(goal, steps, now), true
}

// CanMove reports why MoveToParent would refuse a move, or nil when it
// would go ahead.
func CanMove(goal models.Goal, stepID string, newParentID *string) error {
	if !Contains(goal, stepID) {
		return ErrStepNotFound
	}
	if newParentID == nil {
		return nil
	}
	if *newParentID == stepID || IsDescendant(goal, stepID, *newParentID) {
		return ErrIllegalMove
	}
	if !Contains(goal, *newParentID) {
		return ErrParentNotFound
	}
	return nil
}

// MoveToParent detaches a step with its subtree and appends it under
// newParentID, or at root level when newParentID is nil, with order one
// past the new siblings' maximum. Moves that would create a cycle, or that
// name a missing step or parent, are no-ops.
func MoveToParent(goal models.Goal, stepID string, newParentID *string, now time.Time) (models.Goal, bool) {
	if CanMove(goal, stepID, newParentID) != nil {
		return goal, false
	}
	steps, node, ok := removeStep(goal.Steps, stepID)
	if !ok {
		return goal, false
	}
	node.ParentID = copyID(newParentID)
	steps, ok = editSiblings(steps, newParentID, func(sibs []models.Step) ([]models.Step, bool) {
		node.Order = NextOrder(stepOrders(sibs))
		return appendStep(sibs, node), true
	})
	if !ok {
		return goal, false
	}
	return touched(goal, steps, now), true
}

func touched(goal models.Goal, steps []models.Step, now time.Time) models.Goal {
	goal.Steps = steps
	goal.UpdatedAt = now
	return goal
}

// editStep rebuilds the path down to the step with the given id and
// replaces that step with fn's result.
func editStep(steps []models.Step, id string, fn func(models.Step) (models.Step, bool)) ([]models.Step, bool) {
	for i := range steps {
		if steps[i].ID == id {
			next, ok := fn(steps[i])
			if !ok {
				return steps, false
			}
			out := append([]models.Step(nil), steps...)
			out[i] = next
			return out, true
		}
		if kids, ok := editStep(steps[i].Children, id, fn); ok {
			out := append([]models.Step(nil), steps...)
			out[i].Children = kids
			return out, true
		}
	}
	return steps, false
}

// editSiblings applies fn to the root list when parentID is nil, else to
// the children of parentID.
func editSiblings(steps []models.Step, parentID *string, fn func([]models.Step) ([]models.Step, bool)) ([]models.Step, bool) {
	if parentID == nil {
		return fn(steps)
	}
	return editStep(steps, *parentID, func(p models.Step) (models.Step, bool) {
		kids, ok := fn(p.Children)
		if !ok {
			return p, false
		}
		p.Children = kids
		return p, true
	})
}

// removeStep filters the step with the given id out of whichever sibling
// list holds it and returns the removed node.
func removeStep(steps []models.Step, id string) ([]models.Step, models.Step, bool) {
	for i := range steps {
		if steps[i].ID == id {
			out := make([]models.Step, 0, len(steps)-1)
			out = append(out, steps[:i]...)
			out = append(out, steps[i+1:]...)
			return out, steps[i], true
		}
		if kids, removed, ok := removeStep(steps[i].Children, id); ok {
			out := append([]models.Step(nil), steps...)
			out[i].Children = kids
			return out, removed, true
		}
	}
	return steps, models.Step{}, false
}

func appendStep(sibs []models.Step, s models.Step) []models.Step {
	out := make([]models.Step, 0, len(sibs)+1)
	out = append(out, sibs...)
	return append(out, s)
}

func withCompletion(s models.Step, completed bool) models.Step {
	s.Completed = completed
	if len(s.Children) == 0 {
		return s
	}
	kids := make([]models.Step, len(s.Children))
	for i := range s.Children {
		kids[i] = withCompletion(s.Children[i], completed)
	}
	s.Children = kids
	return s
}

func uniform(s models.Step, completed bool) bool {
	if s.Completed != completed {
		return false
	}
	for i := range s.Children {
		if !uniform(s.Children[i], completed) {
			return false
		}
	}
	return true
}

func cloneFresh(s models.Step, parentID *string, newID func() string) models.Step {
	out := s
	out.ID = newID()
	out.ParentID = copyID(parentID)
	if s.Children != nil {
		out.Children = make([]models.Step, len(s.Children))
		for i := range s.Children {
			out.Children[i] = cloneFresh(s.Children[i], &out.ID, newID)
		}
	}
	return out
}

func indexOfStep(steps []models.Step, id string) int {
	for i := range steps {
		if steps[i].ID == id {
			return i
		}
	}
	return -1
}

func sameSequence(a, b []models.Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Order != b[i].Order {
			return false
		}
	}
	return true
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

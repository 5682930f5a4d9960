package tree

import (
	"github.com/arnold/goalsteps-api/internal/models"
)

// ReorderGoals moves the goal at sourceIndex to destinationIndex and
// renumbers every goal 0..N-1 by its resulting position. Indices are
// positions in the given slice and must be in range. UpdatedAt is left
// alone; only Order changes.
func ReorderGoals(goals []models.Goal, sourceIndex, destinationIndex int) []models.Goal {
	out := Move(goals, sourceIndex, destinationIndex)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// InsertGoal appends goal to the collection with order one past the
// current maximum.
func InsertGoal(goals []models.Goal, goal models.Goal) []models.Goal {
	goal.Order = NextOrder(goalOrders(goals))
	out := make([]models.Goal, 0, len(goals)+1)
	out = append(out, goals...)
	return append(out, goal)
}

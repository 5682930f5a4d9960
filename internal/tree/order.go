package tree

import (
	"sort"

	"github.com/arnold/goalsteps-api/internal/models"
)

// NextOrder returns the order value for an item appended to a sibling set
// holding the given orders: one past the maximum, or 0 for an empty set.
func NextOrder(orders []int) int {
	next := 0
	for _, o := range orders {
		if o+1 > next {
			next = o + 1
		}
	}
	return next
}

// Move removes the element at from and re-inserts it at to, with list
// splice semantics: a negative to inserts first, a to past the end appends.
// The input slice is not modified.
func Move[T any](items []T, from, to int) []T {
	if from < 0 || from >= len(items) {
		return append([]T(nil), items...)
	}
	moved := items[from]
	rest := make([]T, 0, len(items))
	rest = append(rest, items[:from]...)
	rest = append(rest, items[from+1:]...)

	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}
	out := make([]T, 0, len(items))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	return out
}

func stepOrders(steps []models.Step) []int {
	out := make([]int, len(steps))
	for i := range steps {
		out[i] = steps[i].Order
	}
	return out
}

func goalOrders(goals []models.Goal) []int {
	out := make([]int, len(goals))
	for i := range goals {
		out[i] = goals[i].Order
	}
	return out
}

// renumberSteps assigns order = position in place; callers pass a slice
// they own.
func renumberSteps(steps []models.Step) {
	for i := range steps {
		steps[i].Order = i
	}
}

// SortSteps returns a copy of steps sorted by order. Ties keep their
// relative position.
func SortSteps(steps []models.Step) []models.Step {
	out := append([]models.Step(nil), steps...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// SortGoals returns a copy of goals sorted by order, ties broken by
// creation time.
func SortGoals(goals []models.Goal) []models.Goal {
	out := append([]models.Goal(nil), goals...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

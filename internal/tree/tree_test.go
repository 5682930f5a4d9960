package tree

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnold/goalsteps-api/internal/models"
)

var (
	created = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	now     = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

func node(id string, children ...models.Step) models.Step {
	return models.Step{ID: id, Title: "Step " + id, Children: children}
}

// sampleGoal builds
//
//	A
//	├── B
//	│   └── C
//	└── D
//	E
func sampleGoal() models.Goal {
	g := models.Goal{
		ID:        "g1",
		Title:     "Ship it",
		CreatedAt: created,
		UpdatedAt: created,
		Steps: []models.Step{
			node("A", node("B", node("C")), node("D")),
			node("E"),
		},
	}
	return Normalize(g)
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

// isDense reports whether orders is a permutation of 0..len(orders)-1.
func isDense(orders []int) bool {
	seen := make([]bool, len(orders))
	for _, o := range orders {
		if o < 0 || o >= len(orders) || seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}

func ids(steps []models.Step) []string {
	out := make([]string, len(steps))
	for i := range steps {
		out[i] = steps[i].ID
	}
	return out
}

func mustFind(t *testing.T, g models.Goal, id string) models.Step {
	t.Helper()
	s, ok := Find(g, id)
	require.True(t, ok, "step %s not found", id)
	return s
}

func TestFind(t *testing.T) {
	g := sampleGoal()

	s := mustFind(t, g, "C")
	assert.Equal(t, "Step C", s.Title)
	require.NotNil(t, s.ParentID)
	assert.Equal(t, "B", *s.ParentID)

	_, ok := Find(g, "nope")
	assert.False(t, ok)
}

func TestIsDescendant(t *testing.T) {
	g := sampleGoal()

	assert.True(t, IsDescendant(g, "A", "B"))
	assert.True(t, IsDescendant(g, "A", "C"))
	assert.True(t, IsDescendant(g, "B", "C"))
	assert.False(t, IsDescendant(g, "A", "A"))
	assert.False(t, IsDescendant(g, "C", "A"))
	assert.False(t, IsDescendant(g, "A", "E"))
	assert.False(t, IsDescendant(g, "missing", "C"))
}

func TestParentOf(t *testing.T) {
	g := sampleGoal()

	p, ok := ParentOf(g, "C")
	require.True(t, ok)
	assert.Equal(t, "B", *p)

	p, ok = ParentOf(g, "E")
	require.True(t, ok)
	assert.Nil(t, p)

	_, ok = ParentOf(g, "missing")
	assert.False(t, ok)
}

func TestSiblingsAndWalk(t *testing.T) {
	g := sampleGoal()

	sibs, ok := Siblings(g, nil)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "E"}, ids(sibs))

	sibs, ok = Siblings(g, strPtr("A"))
	require.True(t, ok)
	assert.Equal(t, []string{"B", "D"}, ids(sibs))

	_, ok = Siblings(g, strPtr("missing"))
	assert.False(t, ok)

	var visited []string
	Walk(g, func(s models.Step, depth int) {
		visited = append(visited, fmt.Sprintf("%s@%d", s.ID, depth))
	})
	assert.Equal(t, []string{"A@0", "B@1", "C@2", "D@1", "E@0"}, visited)

	// siblings come out by order, not slice position
	g.Steps[0].Order, g.Steps[1].Order = 1, 0
	visited = nil
	Walk(g, func(s models.Step, _ int) { visited = append(visited, s.ID) })
	assert.Equal(t, []string{"E", "A", "B", "C", "D"}, visited)
}

func TestInsertThenReorderScenario(t *testing.T) {
	g := models.Goal{ID: "g", Title: "G", CreatedAt: created, UpdatedAt: created}
	g, ok := Insert(g, models.Step{ID: "A", Title: "A"}, nil, now)
	require.True(t, ok)
	g, ok = Insert(g, models.Step{ID: "B", Title: "B"}, nil, now)
	require.True(t, ok)

	g1, ok := Insert(g, models.Step{ID: "C", Title: "C"}, nil, now)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, ids(g1.Steps))
	assert.Equal(t, []int{0, 1, 2}, stepOrders(g1.Steps))
	assert.Nil(t, g1.Steps[2].ParentID)
	assert.Equal(t, now, g1.UpdatedAt)

	g2, ok := ReorderSiblings(g1, "C", 0, nil, now)
	require.True(t, ok)
	assert.Equal(t, []string{"C", "A", "B"}, ids(g2.Steps))
	assert.Equal(t, []int{0, 1, 2}, stepOrders(g2.Steps))

	// the intermediate value is untouched
	assert.Equal(t, []string{"A", "B", "C"}, ids(g1.Steps))
	assert.Equal(t, []int{0, 1, 2}, stepOrders(g1.Steps))
}

func TestInsertUnderParent(t *testing.T) {
	g := sampleGoal()
	before := g.Clone()

	out, ok := Insert(g, models.Step{ID: "X", Title: "X"}, strPtr("A"), now)
	require.True(t, ok)

	a := mustFind(t, out, "A")
	assert.Equal(t, []string{"B", "D", "X"}, ids(a.Children))
	assert.Equal(t, []int{0, 1, 2}, stepOrders(a.Children))
	x := mustFind(t, out, "X")
	require.NotNil(t, x.ParentID)
	assert.Equal(t, "A", *x.ParentID)
	require.NoError(t, Verify(out))

	assert.Equal(t, before, g, "input goal was modified")
}

func TestInsertAfterGapUsesMaxPlusOne(t *testing.T) {
	g := sampleGoal()
	g, ok := Delete(g, "B", now)
	require.True(t, ok)

	g, ok = Insert(g, models.Step{ID: "X", Title: "X"}, strPtr("A"), now)
	require.True(t, ok)
	a := mustFind(t, g, "A")
	assert.Equal(t, []int{1, 2}, stepOrders(a.Children))
}

func TestInsertRejects(t *testing.T) {
	g := sampleGoal()

	out, ok := Insert(g, models.Step{ID: "X", Title: "X"}, strPtr("missing"), now)
	assert.False(t, ok)
	assert.Equal(t, g, out)

	out, ok = Insert(g, models.Step{ID: "C", Title: "dup"}, nil, now)
	assert.False(t, ok)
	assert.Equal(t, g, out)
}

func TestUpdate(t *testing.T) {
	g := sampleGoal()
	g, _ = ToggleCompletion(g, "B", now)

	out, ok := Update(g, "B", "Renamed", "details", now)
	require.True(t, ok)

	b := mustFind(t, out, "B")
	assert.Equal(t, "Renamed", b.Title)
	assert.Equal(t, "details", b.Description)
	assert.True(t, b.Completed)
	assert.Equal(t, 0, b.Order)
	assert.Equal(t, []string{"C"}, ids(b.Children))
	assert.Equal(t, "A", *b.ParentID)

	assert.Equal(t, "Step B", mustFind(t, g, "B").Title)
}

func TestDeleteRemovesSubtree(t *testing.T) {
	g := sampleGoal()
	g, _ = Delete(g, "D", now)

	out, ok := Delete(g, "B", now)
	require.True(t, ok)

	a := mustFind(t, out, "A")
	assert.Empty(t, a.Children)
	_, ok = Find(out, "C")
	assert.False(t, ok)
	assert.Equal(t, now, out.UpdatedAt)
}

func TestDeleteKeepsGaps(t *testing.T) {
	g := sampleGoal()
	g, _ = Insert(g, models.Step{ID: "F", Title: "F"}, nil, now)

	out, ok := Delete(g, "E", now)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "F"}, ids(out.Steps))
	assert.Equal(t, []int{0, 2}, stepOrders(out.Steps))
}

func TestToggleCompletionCascades(t *testing.T) {
	g := sampleGoal()

	out, ok := ToggleCompletion(g, "A", now)
	require.True(t, ok)
	for _, id := range []string{"A", "B", "C", "D"} {
		assert.True(t, mustFind(t, out, id).Completed, id)
	}
	assert.False(t, mustFind(t, out, "E").Completed)

	// un-toggling a child leaves the parent completed
	out, ok = ToggleCompletion(out, "B", now)
	require.True(t, ok)
	assert.False(t, mustFind(t, out, "B").Completed)
	assert.False(t, mustFind(t, out, "C").Completed)
	assert.True(t, mustFind(t, out, "A").Completed)
	assert.True(t, mustFind(t, out, "D").Completed)

	for _, id := range []string{"A", "B", "C", "D"} {
		assert.False(t, mustFind(t, g, id).Completed, "input changed at %s", id)
	}
}

func TestToggleDoesNotCompleteParent(t *testing.T) {
	g := sampleGoal()
	g, _ = ToggleCompletion(g, "B", now)
	g, _ = ToggleCompletion(g, "D", now)

	assert.False(t, mustFind(t, g, "A").Completed)
}

func TestSetCompletion(t *testing.T) {
	g := sampleGoal()

	out, ok := SetCompletion(g, "B", true, now)
	require.True(t, ok)
	assert.True(t, mustFind(t, out, "C").Completed)

	again, ok := SetCompletion(out, "B", true, now.Add(time.Hour))
	assert.False(t, ok)
	assert.Equal(t, out, again)
}

func TestDuplicateSubtree(t *testing.T) {
	g := sampleGoal()
	g, _ = ToggleCompletion(g, "C", now)
	g, _ = Update(g, "C", "Step C", "leaf", now)

	out, newID, ok := DuplicateSubtree(g, "B", seqIDs(), now)
	require.True(t, ok)
	assert.Equal(t, "new-1", newID)
	require.NoError(t, Verify(out))

	a := mustFind(t, out, "A")
	assert.Equal(t, []string{"B", "D", newID}, ids(a.Children))
	assert.Equal(t, []int{0, 1, 2}, stepOrders(a.Children))

	dup := mustFind(t, out, newID)
	assert.Equal(t, "Step B (Copy)", dup.Title)
	assert.Equal(t, "A", *dup.ParentID)
	require.Len(t, dup.Children, 1)

	child := dup.Children[0]
	assert.Equal(t, "new-2", child.ID)
	assert.Equal(t, "Step C", child.Title)
	assert.Equal(t, "leaf", child.Description)
	assert.True(t, child.Completed)
	assert.Equal(t, newID, *child.ParentID)

	orig := map[string]bool{}
	Walk(g, func(s models.Step, _ int) { orig[s.ID] = true })
	assert.False(t, orig[dup.ID])
	assert.False(t, orig[child.ID])

	// original subtree still intact
	assert.Equal(t, []string{"C"}, ids(mustFind(t, out, "B").Children))
}

func TestDuplicateRootStep(t *testing.T) {
	g := sampleGoal()

	out, newID, ok := DuplicateSubtree(g, "E", seqIDs(), now)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "E", newID}, ids(out.Steps))
	assert.Nil(t, mustFind(t, out, newID).ParentID)
	assert.Equal(t, 2, mustFind(t, out, newID).Order)
}

func TestReorderSiblingsNested(t *testing.T) {
	g := sampleGoal()
	g, _ = Insert(g, models.Step{ID: "X", Title: "X"}, strPtr("A"), now)

	out, ok := ReorderSiblings(g, "X", 1, strPtr("A"), now)
	require.True(t, ok)
	a := mustFind(t, out, "A")
	assert.Equal(t, []string{"B", "X", "D"}, ids(a.Children))
	assert.Equal(t, []int{0, 1, 2}, stepOrders(a.Children))

	out, ok = ReorderSiblings(g, "B", 99, strPtr("A"), now)
	require.True(t, ok)
	assert.Equal(t, []string{"D", "X", "B"}, ids(mustFind(t, out, "A").Children))

	out, ok = ReorderSiblings(g, "X", -4, strPtr("A"), now)
	require.True(t, ok)
	assert.Equal(t, []string{"X", "B", "D"}, ids(mustFind(t, out, "A").Children))
}

func TestReorderSiblingsRestoresDensity(t *testing.T) {
	g := sampleGoal()
	g, _ = Insert(g, models.Step{ID: "F", Title: "F"}, nil, now)
	g, _ = Delete(g, "E", now)
	require.Equal(t, []int{0, 2}, stepOrders(g.Steps))

	out, ok := ReorderSiblings(g, "F", 1, nil, now)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "F"}, ids(out.Steps))
	assert.True(t, isDense(stepOrders(out.Steps)))
}

func TestReorderSiblingsNoops(t *testing.T) {
	g := sampleGoal()

	for name, fn := range map[string]func() (models.Goal, bool){
		"missing step":     func() (models.Goal, bool) { return ReorderSiblings(g, "missing", 0, nil, now) },
		"wrong set":        func() (models.Goal, bool) { return ReorderSiblings(g, "C", 0, nil, now) },
		"missing parent":   func() (models.Goal, bool) { return ReorderSiblings(g, "C", 0, strPtr("nope"), now) },
		"already in place": func() (models.Goal, bool) { return ReorderSiblings(g, "A", 0, nil, now) },
	} {
		out, ok := fn()
		assert.False(t, ok, name)
		assert.Equal(t, g, out, name)
	}
}

func TestMoveToParentRejectsCycles(t *testing.T) {
	g := sampleGoal()

	for _, target := range []string{"A", "B", "C", "D"} {
		out, ok := MoveToParent(g, "A", strPtr(target), now)
		assert.False(t, ok, target)
		assert.Equal(t, g, out, target)
		assert.ErrorIs(t, CanMove(g, "A", strPtr(target)), ErrIllegalMove)
	}
}

func TestMoveToParent(t *testing.T) {
	g := sampleGoal()
	g, _ = ToggleCompletion(g, "B", now)

	out, ok := MoveToParent(g, "B", strPtr("E"), now)
	require.True(t, ok)
	require.NoError(t, Verify(out))

	e := mustFind(t, out, "E")
	assert.Equal(t, []string{"B"}, ids(e.Children))
	b := mustFind(t, out, "B")
	assert.Equal(t, "E", *b.ParentID)
	assert.Equal(t, 0, b.Order)
	assert.True(t, b.Completed)
	assert.Equal(t, []string{"C"}, ids(b.Children))
	assert.True(t, IsDescendant(out, "E", "C"))
	assert.Equal(t, []string{"D"}, ids(mustFind(t, out, "A").Children))

	out, ok = MoveToParent(out, "C", nil, now)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "E", "C"}, ids(out.Steps))
	assert.Equal(t, 2, mustFind(t, out, "C").Order)
	assert.Nil(t, mustFind(t, out, "C").ParentID)
}

func TestMoveToParentNoops(t *testing.T) {
	g := sampleGoal()

	out, ok := MoveToParent(g, "missing", nil, now)
	assert.False(t, ok)
	assert.Equal(t, g, out)
	assert.ErrorIs(t, CanMove(g, "missing", nil), ErrStepNotFound)

	out, ok = MoveToParent(g, "C", strPtr("missing"), now)
	assert.False(t, ok)
	assert.Equal(t, g, out)
	assert.ErrorIs(t, CanMove(g, "C", strPtr("missing")), ErrParentNotFound)

	assert.NoError(t, CanMove(g, "C", nil))
}

func TestMissingTargetsAreNoops(t *testing.T) {
	g := sampleGoal()
	snapshot := g.Clone()

	out, ok := Update(g, "missing", "t", "", now)
	assert.False(t, ok)
	assert.Equal(t, snapshot, out)

	out, ok = Delete(g, "missing", now)
	assert.False(t, ok)
	assert.Equal(t, snapshot, out)

	out, ok = ToggleCompletion(g, "missing", now)
	assert.False(t, ok)
	assert.Equal(t, snapshot, out)

	out, newID, ok := DuplicateSubtree(g, "missing", seqIDs(), now)
	assert.False(t, ok)
	assert.Empty(t, newID)
	assert.Equal(t, snapshot, out)

	assert.Equal(t, snapshot, g)
}

func TestReorderGoals(t *testing.T) {
	goals := []models.Goal{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	for i := range goals {
		goals[i].Order = i
	}

	out := ReorderGoals(goals, 3, 1)
	got := make([]string, len(out))
	for i := range out {
		got[i] = out[i].ID
		assert.Equal(t, i, out[i].Order)
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, got)
	assert.Equal(t, "d", goals[3].ID)
	assert.Equal(t, 3, goals[3].Order)
}

func TestGoalCollection(t *testing.T) {
	var goals []models.Goal
	goals = InsertGoal(goals, models.Goal{ID: "a"})
	goals = InsertGoal(goals, models.Goal{ID: "b"})
	goals = InsertGoal(goals, models.Goal{ID: "c"})
	assert.Equal(t, []int{0, 1, 2}, goalOrders(goals))

	// a deleted goal leaves a gap; the next insert goes past the maximum
	goals = []models.Goal{goals[0], goals[2]}
	goals = InsertGoal(goals, models.Goal{ID: "d"})
	assert.Equal(t, []int{0, 2, 3}, goalOrders(goals))

	sorted := SortGoals([]models.Goal{{ID: "x", Order: 2}, {ID: "y", Order: 0}})
	assert.Equal(t, "y", sorted[0].ID)
}

func TestOrderHelpers(t *testing.T) {
	assert.Equal(t, 0, NextOrder(nil))
	assert.Equal(t, 6, NextOrder([]int{3, 5, 1}))

	assert.True(t, isDense(nil))
	assert.True(t, isDense([]int{2, 0, 1}))
	assert.False(t, isDense([]int{0, 2}))
	assert.False(t, isDense([]int{0, 0}))

	in := []string{"a", "b", "c"}
	assert.Equal(t, []string{"b", "c", "a"}, Move(in, 0, 10))
	assert.Equal(t, []string{"c", "a", "b"}, Move(in, 2, -1))
	assert.Equal(t, []string{"a", "b", "c"}, in)
}

func TestVerifyAndNormalize(t *testing.T) {
	assert.NoError(t, Verify(sampleGoal()))

	bad := models.Goal{
		ID: "g",
		Steps: []models.Step{
			{ID: "A", Order: 3, Children: []models.Step{{ID: "B", Order: 0}}},
			{ID: "A", Order: 3},
		},
	}
	err := Verify(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorIs(t, err, ErrParentMismatch)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	fixed := Normalize(models.Goal{
		ID: "g",
		Steps: []models.Step{
			{ID: "B", Order: 7},
			{ID: "A", Order: 2, Children: []models.Step{{ID: "C", Order: 4}}},
		},
	})
	assert.NoError(t, Verify(fixed))
	assert.Equal(t, []string{"A", "B"}, ids(fixed.Steps))
	assert.Equal(t, "A", *fixed.Steps[0].Children[0].ParentID)
	assert.Equal(t, 0, fixed.Steps[0].Children[0].Order)
}

// retitlePath overwrites, in place, the title of every step on the path
// from the root list down to id.
func retitlePath(steps []models.Step, id string) bool {
	for i := range steps {
		if steps[i].ID == id || retitlePath(steps[i].Children, id) {
			steps[i].Title = "edited"
			return true
		}
	}
	return false
}

func TestMutatorsLeaveInputIntact(t *testing.T) {
	tests := map[string]func(g models.Goal) (models.Goal, string, bool){
		"insert": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := Insert(g, models.Step{ID: "X", Title: "X"}, strPtr("B"), now)
			return out, "X", ok
		},
		"update": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := Update(g, "C", "new", "text", now)
			return out, "C", ok
		},
		"delete": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := Delete(g, "C", now)
			return out, "B", ok
		},
		"toggle": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := ToggleCompletion(g, "A", now)
			return out, "C", ok
		},
		"set completion": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := SetCompletion(g, "B", true, now)
			return out, "C", ok
		},
		"duplicate": func(g models.Goal) (models.Goal, string, bool) {
			return DuplicateSubtree(g, "B", seqIDs(), now)
		},
		"reorder siblings": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := ReorderSiblings(g, "D", 0, strPtr("A"), now)
			return out, "D", ok
		},
		"move under other parent": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := MoveToParent(g, "C", strPtr("E"), now)
			return out, "C", ok
		},
		"move to root": func(g models.Goal) (models.Goal, string, bool) {
			out, ok := MoveToParent(g, "D", nil, now)
			return out, "D", ok
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			g := sampleGoal()
			snapshot := g.Clone()

			out, target, ok := mutate(g)
			require.True(t, ok)
			assert.Equal(t, snapshot, g, "input changed by the call")
			assert.NotEqual(t, snapshot, out)

			require.True(t, retitlePath(out.Steps, target))
			assert.Equal(t, snapshot, g, "input changed through the result")
		})
	}
}

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arnold/goalsteps-api/internal/models"
)

type goalStore interface {
	LoadAll(ctx context.Context) ([]models.Goal, error)
	Load(ctx context.Context, id string) (models.Goal, error)
	Put(ctx context.Context, g models.Goal) error
	PutAll(ctx context.Context, goals []models.Goal) error
	Delete(ctx context.Context, id string) error
}

func strPtr(s string) *string { return &s }

func sampleGoal(id string, order int) models.Goal {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Goal{
		ID:          id,
		Title:       "Goal " + id,
		Description: "desc",
		CreatedAt:   ts,
		UpdatedAt:   ts.Add(time.Minute),
		Order:       order,
		Steps: []models.Step{
			{
				ID:    id + "-a",
				Title: "a",
				Order: 0,
				Children: []models.Step{
					{ID: id + "-b", Title: "b", ParentID: strPtr(id + "-a"), Completed: true},
				},
			},
			{ID: id + "-c", Title: "c", Order: 1, Description: "leaf"},
		},
	}
}

// exerciseStore runs the behaviour every store must share. alice and bob
// are two owner scopes over the same backing data; prefix keeps goal ids
// apart between runs against a persistent server.
func exerciseStore(t *testing.T, prefix string, alice, bob goalStore) {
	ctx := context.Background()
	id1, id2 := prefix+"g1", prefix+"g2"

	goals, err := alice.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	_, err = alice.Load(ctx, id1)
	assert.ErrorIs(t, err, ErrNotFound)

	g1 := sampleGoal(id1, 1)
	g2 := sampleGoal(id2, 0)
	require.NoError(t, alice.Put(ctx, g1))
	require.NoError(t, alice.Put(ctx, g2))

	got, err := alice.Load(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, g1, got)

	goals, err = alice.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, id2, goals[0].ID)
	assert.Equal(t, id1, goals[1].ID)

	// replacing the record replaces the whole tree
	g1.Title = "renamed"
	g1.Steps = g1.Steps[:1]
	require.NoError(t, alice.Put(ctx, g1))
	got, err = alice.Load(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, g1, got)

	// bob sees none of alice's goals and cannot overwrite them
	goals, err = bob.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)
	_, err = bob.Load(ctx, id1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, bob.Delete(ctx, id1), ErrNotFound)
	hijack := g1.Clone()
	hijack.Title = "bob's now"
	assert.ErrorIs(t, bob.Put(ctx, hijack), ErrNotFound)
	assert.ErrorIs(t, bob.PutAll(ctx, []models.Goal{hijack}), ErrNotFound)
	got, err = alice.Load(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, g1, got)
	goals, err = bob.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	g1.Order, g2.Order = 0, 1
	require.NoError(t, alice.PutAll(ctx, []models.Goal{g1, g2}))
	goals, err = alice.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, id1, goals[0].ID)

	require.NoError(t, alice.Delete(ctx, id2))
	assert.ErrorIs(t, alice.Delete(ctx, id2), ErrNotFound)
	goals, err = alice.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, "", m.WithOwner("alice"), m.WithOwner("bob"))
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	g := sampleGoal("g1", 0)
	require.NoError(t, m.Put(ctx, g))

	g.Steps[0].Title = "changed after put"
	got, err := m.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Steps[0].Title)

	got.Steps[0].Children[0].Title = "changed after load"
	again, err := m.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "b", again.Steps[0].Children[0].Title)
}

func TestGormStore(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	s := NewGorm(db)
	require.NoError(t, s.Migrate())
	exerciseStore(t, "", s.WithOwner("alice"), s.WithOwner("bob"))
}

func TestNeo4jStore(t *testing.T) {
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}
	ctx := context.Background()
	driver, err := OpenNeo4j(ctx, uri, os.Getenv("NEO4J_TEST_USER"), os.Getenv("NEO4J_TEST_PASSWORD"))
	require.NoError(t, err)
	defer driver.Close(ctx)

	s := NewNeo4j(driver, "")
	require.NoError(t, s.EnsureSchema(ctx))

	suffix := fmt.Sprintf("-%d", time.Now().UnixNano())
	exerciseStore(t, suffix, s.WithOwner("alice"+suffix), s.WithOwner("bob"+suffix))
}

func TestCodecDeterministic(t *testing.T) {
	g := sampleGoal("g1", 3)

	a, err := EncodeGoal(g)
	require.NoError(t, err)
	b, err := EncodeGoal(g.Clone())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	back, err := DecodeGoal(a)
	require.NoError(t, err)
	assert.Equal(t, g, back)

	_, err = DecodeGoal([]byte{0xff, 0x00})
	assert.Error(t, err)
}

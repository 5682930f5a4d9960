package store

import (
	"context"
	"sync"

	"github.com/arnold/goalsteps-api/internal/models"
	"github.com/arnold/goalsteps-api/internal/tree"
)

// Memory is an in-process store. Goals are deep-copied on the way in and
// out so callers can never alias stored trees.
type Memory struct {
	data  *memoryData
	owner string
}

type memoryData struct {
	mu     sync.RWMutex
	goals  map[string]map[string]models.Goal // owner -> goal id -> goal
	owners map[string]string                 // goal id -> owner
}

// NewMemory returns an empty store with the given goals preloaded under
// the default (empty) owner.
func NewMemory(goals ...models.Goal) *Memory {
	m := &Memory{data: &memoryData{
		goals:  map[string]map[string]models.Goal{},
		owners: map[string]string{},
	}}
	for _, g := range goals {
		m.put(g)
	}
	return m
}

// WithOwner returns a view of the same data scoped to owner.
func (m *Memory) WithOwner(owner string) *Memory {
	return &Memory{data: m.data, owner: owner}
}

func (m *Memory) LoadAll(ctx context.Context) ([]models.Goal, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()

	out := make([]models.Goal, 0, len(m.data.goals[m.owner]))
	for _, g := range m.data.goals[m.owner] {
		out = append(out, g.Clone())
	}
	return tree.SortGoals(out), nil
}

func (m *Memory) Load(ctx context.Context, id string) (models.Goal, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()

	g, ok := m.data.goals[m.owner][id]
	if !ok {
		return models.Goal{}, ErrNotFound
	}
	return g.Clone(), nil
}

// Put stores g. An id already held by another owner is ErrNotFound, as
// in the database stores where goal ids are unique across owners.
func (m *Memory) Put(ctx context.Context, g models.Goal) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	if !m.owns(g.ID) {
		return ErrNotFound
	}
	m.put(g)
	return nil
}

// PutAll stores every goal under a single lock. Nothing is written when
// any id belongs to another owner.
func (m *Memory) PutAll(ctx context.Context, goals []models.Goal) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	for _, g := range goals {
		if !m.owns(g.ID) {
			return ErrNotFound
		}
	}
	for _, g := range goals {
		m.put(g)
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()

	if _, ok := m.data.goals[m.owner][id]; !ok {
		return ErrNotFound
	}
	delete(m.data.goals[m.owner], id)
	delete(m.data.owners, id)
	return nil
}

// owns reports whether id is free or already held by m's owner.
func (m *Memory) owns(id string) bool {
	owner, ok := m.data.owners[id]
	return !ok || owner == m.owner
}

func (m *Memory) put(g models.Goal) {
	if m.data.goals[m.owner] == nil {
		m.data.goals[m.owner] = map[string]models.Goal{}
	}
	m.data.goals[m.owner][g.ID] = g.Clone()
	m.data.owners[g.ID] = m.owner
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/arnold/goalsteps-api/internal/models"
)

// Neo4j keeps each goal as a (:Goal) node carrying the encoded tree in its
// payload property.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
	owner    string
}

// NewNeo4j wraps a driver. An empty database name selects the server's
// default database.
func NewNeo4j(driver neo4j.DriverWithContext, database string) *Neo4j {
	return &Neo4j{driver: driver, database: database}
}

// OpenNeo4j connects to uri and checks the connection.
func OpenNeo4j(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return driver, nil
}

func (s *Neo4j) WithOwner(owner string) *Neo4j {
	return &Neo4j{driver: s.driver, database: s.database, owner: owner}
}

// EnsureSchema creates the uniqueness constraint on goal ids.
func (s *Neo4j) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"CREATE CONSTRAINT goal_id_unique IF NOT EXISTS FOR (g:Goal) REQUIRE g.id IS UNIQUE",
			nil,
		)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (s *Neo4j) LoadAll(ctx context.Context) ([]models.Goal, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (g:Goal {ownerId: $owner}) "+
				"RETURN g.id AS id, g.payload AS payload "+
				"ORDER BY g.position, g.createdAt",
			map[string]any{"owner": s.owner},
		)
		if err != nil {
			return nil, err
		}

		var goals []models.Goal
		for res.Next(ctx) {
			g, err := decodeRecord(res.Record())
			if err != nil {
				return nil, err
			}
			goals = append(goals, g)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return goals, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	goals, _ := result.([]models.Goal)
	if goals == nil {
		goals = []models.Goal{}
	}
	return goals, nil
}

func (s *Neo4j) Load(ctx context.Context, id string) (models.Goal, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (g:Goal {id: $id, ownerId: $owner}) RETURN g.id AS id, g.payload AS payload",
			map[string]any{"id": id, "owner": s.owner},
		)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, ErrNotFound
		}
		return decodeRecord(res.Record())
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, fmt.Errorf("load goal %s: %w", id, err)
	}
	return result.(models.Goal), nil
}

// Put merges the node for g. A node with the same id owned by someone else
// is not touched and ErrNotFound is returned.
func (s *Neo4j) Put(ctx context.Context, g models.Goal) error {
	return s.write(ctx, []models.Goal{g})
}

// PutAll writes every goal inside one write transaction.
func (s *Neo4j) PutAll(ctx context.Context, goals []models.Goal) error {
	return s.write(ctx, goals)
}

func (s *Neo4j) Delete(ctx context.Context, id string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (g:Goal {id: $id, ownerId: $owner}) DETACH DELETE g RETURN count(g) AS n",
			map[string]any{"id": id, "owner": s.owner},
		)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := rec.Get("n")
		return n, nil
	})
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	if n, _ := result.(int64); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Neo4j) write(ctx context.Context, goals []models.Goal) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, g := range goals {
			payload, err := EncodeGoal(g)
			if err != nil {
				return nil, err
			}
			res, err := tx.Run(ctx,
				"MERGE (g:Goal {id: $id}) "+
					"ON CREATE SET g.ownerId = $owner, g.createdAt = $createdAt "+
					"WITH g WHERE g.ownerId = $owner "+
					"SET g.position = $position, g.title = $title, g.payload = $payload, g.updatedAt = $updatedAt "+
					"RETURN g.id AS id",
				map[string]any{
					"id":        g.ID,
					"owner":     s.owner,
					"position":  g.Order,
					"title":     g.Title,
					"payload":   payload,
					"createdAt": g.CreatedAt.UnixNano(),
					"updatedAt": g.UpdatedAt.UnixNano(),
				},
			)
			if err != nil {
				return nil, err
			}
			if !res.Next(ctx) {
				if err := res.Err(); err != nil {
					return nil, err
				}
				return nil, ErrNotFound
			}
		}
		return nil, nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("put goals: %w", err)
	}
	return nil
}

func (s *Neo4j) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func decodeRecord(rec *neo4j.Record) (models.Goal, error) {
	raw, _ := rec.Get("payload")
	payload, ok := raw.([]byte)
	if !ok {
		id, _ := rec.Get("id")
		return models.Goal{}, fmt.Errorf("goal %v: payload is %T, want bytes", id, raw)
	}
	return DecodeGoal(payload)
}

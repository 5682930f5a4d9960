package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnold/goalsteps-api/internal/models"
)

// Gorm keeps goal records in the goal_records table of a SQLite or
// PostgreSQL database.
type Gorm struct {
	db    *gorm.DB
	owner string
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// WithOwner returns a store whose every query is limited to owner's goals.
func (s *Gorm) WithOwner(owner string) *Gorm {
	return &Gorm{db: s.db, owner: owner}
}

// Migrate creates or updates the goal_records table.
func (s *Gorm) Migrate() error {
	return s.db.AutoMigrate(&models.GoalRecord{})
}

func (s *Gorm) LoadAll(ctx context.Context) ([]models.Goal, error) {
	var recs []models.GoalRecord
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", s.owner).
		Order("position ASC").
		Order("created_at ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	goals := make([]models.Goal, 0, len(recs))
	for _, rec := range recs {
		g, err := DecodeGoal(rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("goal %s: %w", rec.ID, err)
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (s *Gorm) Load(ctx context.Context, id string) (models.Goal, error) {
	var rec models.GoalRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, s.owner).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Goal{}, ErrNotFound
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("load goal %s: %w", id, err)
	}
	return DecodeGoal(rec.Payload)
}

// Put inserts or replaces the record for g. A record with the same id that
// belongs to another owner is left alone and ErrNotFound is returned.
func (s *Gorm) Put(ctx context.Context, g models.Goal) error {
	return s.put(s.db.WithContext(ctx), g)
}

// PutAll writes every goal in one transaction.
func (s *Gorm) PutAll(ctx context.Context, goals []models.Goal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range goals {
			if err := s.put(tx, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Gorm) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, s.owner).
		Delete(&models.GoalRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete goal %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) put(db *gorm.DB, g models.Goal) error {
	payload, err := EncodeGoal(g)
	if err != nil {
		return err
	}
	rec := models.GoalRecord{
		ID:        g.ID,
		OwnerID:   s.owner,
		Position:  g.Order,
		Title:     g.Title,
		Payload:   payload,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position", "title", "payload", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: models.GoalRecord{}.TableName(), Name: "owner_id"}, Value: s.owner},
		}},
	}).Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("put goal %s: %w", g.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

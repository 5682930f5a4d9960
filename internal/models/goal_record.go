package models

import (
	"time"
)

// GoalRecord is the persisted form of one Goal: the whole tree lives in
// Payload, the remaining columns exist for scoping and ordering queries.
type GoalRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	OwnerID   string `gorm:"index;size:64;not null;default:''"`
	Position  int    `gorm:"not null;default:0"`
	Title     string `gorm:"not null"`
	Payload   []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GoalRecord) TableName() string {
	return "goal_records"
}

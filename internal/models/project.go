package models

import (
	"time"

	"gorm.io/gorm"
)

// Project represents one queue session owned by a single streamer.
// Slug is globally unique and immutable after creation.
type Project struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OwnerID      uint           `gorm:"index;not null" json:"owner_id"`
	Owner        *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	Slug         string         `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	GameName     string         `gorm:"size:200" json:"game_name"`
	IsRepeatable bool           `gorm:"default:false" json:"is_repeatable"` // track games-played counts
	HasFastTrack bool           `gorm:"default:false" json:"has_fast_track"`
	IsActive     bool           `gorm:"default:true" json:"is_active"` // queue open for the public view
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

package models

import "time"

// ProjectRole is a named tag (e.g. "Tank") scoped to a project. Roles carry
// no behavior; DisplayOrder drives list ordering and deterministic color
// assignment in the UI.
type ProjectRole struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"index;not null" json:"project_id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ProjectRole) TableName() string { return "project_roles" }

package models

import "time"

// Project membership roles.
const (
	MemberRoleOwner     = "owner"
	MemberRoleModerator = "moderator"
)

// ProjectMember links a user to a project with a management role. Every
// project has exactly one owner row, created with the project itself.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_member_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_member_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:20;default:moderator" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProjectMember) TableName() string { return "project_members" }

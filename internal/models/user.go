package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an authenticated account. It doubles as the public
// profile shape joined onto queue entries and project owners.
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string         `gorm:"size:255" json:"-"` // bcrypt hash
	FullName    string         `gorm:"size:200" json:"full_name"`
	AvatarURL   string         `gorm:"size:500" json:"avatar_url"`
	SocialLinks string         `gorm:"type:text" json:"social_links"` // JSON array: [{"platform":"Youtube","url":"..."}]
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLogin   *time.Time     `json:"last_login"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

package models

import "time"

// InviteLink grants moderator access to whoever redeems its token. A link
// stops working when deactivated, past its expiry, or at its usage cap.
type InviteLink struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ProjectID uint       `gorm:"index;not null" json:"project_id"`
	CreatedBy uint       `gorm:"not null" json:"created_by"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"token"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	MaxUses   *int       `json:"max_uses,omitempty"`
	UsesCount int        `gorm:"default:0" json:"uses_count"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (InviteLink) TableName() string { return "invite_links" }

// Usable reports whether the link can still be redeemed at time now.
func (l *InviteLink) Usable(now time.Time) bool {
	if !l.IsActive {
		return false
	}
	if l.ExpiresAt != nil && now.After(*l.ExpiresAt) {
		return false
	}
	if l.MaxUses != nil && l.UsesCount >= *l.MaxUses {
		return false
	}
	return true
}

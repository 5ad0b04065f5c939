package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Queue entry lifecycle states.
const (
	StatusWaiting = "waiting"
	StatusPlaying = "playing"
	StatusDone    = "done"
)

// ValidStatus reports whether s is one of the three lifecycle states.
func ValidStatus(s string) bool {
	return s == StatusWaiting || s == StatusPlaying || s == StatusDone
}

// RoleIDList stores a set of project role IDs as a JSON array column.
type RoleIDList []uint

func (r RoleIDList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RoleIDList) Scan(value interface{}) error {
	if value == nil {
		*r = RoleIDList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for RoleIDList: %T", value)
	}
	if len(data) == 0 {
		*r = RoleIDList{}
		return nil
	}
	return json.Unmarshal(data, r)
}

// QueueEntry is one player's position in a project queue. GameID is the
// player's in-game handle and the merge key for repeat additions; UserID is
// set when the entry is linked to a registered account.
type QueueEntry struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ProjectID      uint       `gorm:"index:idx_entries_project_status;not null" json:"project_id"`
	UserID         *uint      `gorm:"index" json:"user_id,omitempty"`
	User           *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GameID         string     `gorm:"size:200" json:"game_id"`
	DisplayName    string     `gorm:"size:200" json:"display_name"`
	Status         string     `gorm:"size:20;index:idx_entries_project_status;default:waiting" json:"status"`
	IsFastTrack    bool       `gorm:"default:false" json:"is_fast_track"`
	RoleIDs        RoleIDList `gorm:"type:text" json:"role_ids"`
	GamesRequested int        `gorm:"default:1" json:"games_requested"`
	GamesPlayed    int        `gorm:"default:0" json:"games_played"`
	Notes          string     `gorm:"size:500" json:"notes"`
	JoinedAt       time.Time  `gorm:"index;not null" json:"joined_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (QueueEntry) TableName() string { return "queue_entries" }

// Active reports whether the entry still occupies a queue slot.
func (e *QueueEntry) Active() bool {
	return e.Status != StatusDone
}

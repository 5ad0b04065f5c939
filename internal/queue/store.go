package queue

import (
	"context"

	"github.com/alfianmry16/open-mabar/internal/models"
)

// AddPlayerInput carries the fields a manager submits when adding a player.
type AddPlayerInput struct {
	GameID         string `json:"game_id" binding:"required"`
	DisplayName    string `json:"display_name"`
	IsFastTrack    bool   `json:"is_fast_track"`
	RoleIDs        []uint `json:"role_ids"`
	GamesRequested int    `json:"games_requested"`
	Notes          string `json:"notes"`
	UserID         *uint  `json:"user_id"`
}

// Store is the persistence surface a Session drives. The server-side
// implementation enforces authorization and the merge and counter rules;
// Store callers only sequence operations and refresh their view.
type Store interface {
	GetProject(ctx context.Context, projectID uint) (*models.Project, error)
	ListEntries(ctx context.Context, projectID uint) ([]models.QueueEntry, error)
	ListRoles(ctx context.Context, projectID uint) ([]models.ProjectRole, error)

	AddPlayer(ctx context.Context, actorID, projectID uint, in AddPlayerInput) (*models.QueueEntry, error)
	UpdateStatus(ctx context.Context, actorID, projectID, entryID uint, status string) (*models.QueueEntry, error)
	IncrementGamesPlayed(ctx context.Context, actorID, projectID, entryID uint) (*models.QueueEntry, error)
	IncrementGamesRequested(ctx context.Context, actorID, projectID, entryID uint, delta int) (*models.QueueEntry, error)
	ToggleFastTrack(ctx context.Context, actorID, projectID, entryID uint) (*models.QueueEntry, error)
	RemovePlayer(ctx context.Context, actorID, projectID, entryID uint) error
}

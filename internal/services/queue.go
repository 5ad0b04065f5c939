package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/internal/queue"
	"github.com/alfianmry16/open-mabar/pkg/logger"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

// QueueService owns every queue mutation. It enforces management access,
// the merge rule for repeat additions and the play counter guard, and
// publishes a change event after each successful write. It satisfies
// queue.Store so sessions and handlers share one code path.
type QueueService struct {
	db      *gorm.DB
	members *MemberService
	hub     *EventHub
}

func NewQueueService(db *gorm.DB, members *MemberService, hub *EventHub) *QueueService {
	return &QueueService{db: db, members: members, hub: hub}
}

var _ queue.Store = (*QueueService)(nil)

// ListEntries returns every entry of the project with linked profiles.
func (s *QueueService) ListEntries(ctx context.Context, projectID uint) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("is_fast_track DESC, joined_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetProject returns the project row so sessions can mirror its settings.
func (s *QueueService) GetProject(ctx context.Context, projectID uint) (*models.Project, error) {
	return s.loadProject(ctx, projectID)
}

// ListRoles returns the project's roles in display order.
func (s *QueueService) ListRoles(ctx context.Context, projectID uint) ([]models.ProjectRole, error) {
	var roles []models.ProjectRole
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("display_order ASC, id ASC").
		Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// AddPlayer inserts a player or tops up an existing active entry. When an
// active entry (status not done) already holds the same game handle, no new
// row is created; the existing entry's requested-games total grows instead.
// Non-repeatable projects always grow by one game at a time.
func (s *QueueService) AddPlayer(ctx context.Context, actorID, projectID uint, in queue.AddPlayerInput) (*models.QueueEntry, error) {
	if err := s.authorize(ctx, projectID, actorID); err != nil {
		return nil, err
	}

	gameID := strings.TrimSpace(in.GameID)
	if gameID == "" {
		return nil, response.NewBadRequest("game id is required")
	}

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	requested := 1
	if project.IsRepeatable && in.GamesRequested > 1 {
		requested = in.GamesRequested
	}

	if in.IsFastTrack && !project.HasFastTrack {
		return nil, response.NewBadRequest("this project has no fast-track lane")
	}

	roleIDs, err := s.validateRoles(ctx, projectID, in.RoleIDs)
	if err != nil {
		return nil, err
	}

	var entry models.QueueEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.QueueEntry
		findErr := tx.
			Where("project_id = ? AND status <> ? AND LOWER(game_id) = LOWER(?)",
				projectID, models.StatusDone, gameID).
			First(&existing).Error

		switch {
		case findErr == nil:
			// Same player already queued: top up instead of duplicating.
			existing.GamesRequested += requested
			if err := tx.Model(&existing).
				Update("games_requested", existing.GamesRequested).Error; err != nil {
				return err
			}
			entry = existing
			return nil
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			entry = models.QueueEntry{
				ProjectID:      projectID,
				UserID:         in.UserID,
				GameID:         gameID,
				DisplayName:    strings.TrimSpace(in.DisplayName),
				Status:         models.StatusWaiting,
				IsFastTrack:    in.IsFastTrack,
				RoleIDs:        roleIDs,
				GamesRequested: requested,
				Notes:          strings.TrimSpace(in.Notes),
				JoinedAt:       time.Now(),
			}
			return tx.Create(&entry).Error
		default:
			return findErr
		}
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", projectID).
		Uint("entry_id", entry.ID).
		Str("game_id", entry.GameID).
		Msg("player added to queue")
	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableEntries, Action: ActionInsert, EntryID: entry.ID})
	return &entry, nil
}

// UpdateStatus moves an entry between waiting, playing and done. Entering
// playing stamps the start time once; entering done stamps completion and
// leaving done clears it again.
func (s *QueueService) UpdateStatus(ctx context.Context, actorID, projectID, entryID uint, status string) (*models.QueueEntry, error) {
	if err := s.authorize(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	if !models.ValidStatus(status) {
		return nil, response.NewBadRequest("invalid status: " + status)
	}

	entry, err := s.loadEntry(ctx, projectID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status == status {
		return entry, nil
	}

	// Reviving a done entry must not sit alongside an active entry that
	// already holds the same game handle.
	if entry.Status == models.StatusDone {
		var active int64
		if err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
			Where("project_id = ? AND status <> ? AND LOWER(game_id) = LOWER(?) AND id <> ?",
				projectID, models.StatusDone, entry.GameID, entry.ID).
			Count(&active).Error; err != nil {
			return nil, err
		}
		if active > 0 {
			return nil, response.NewConflict("another active entry already uses this game id")
		}
	}

	now := time.Now()
	updates := map[string]interface{}{"status": status}
	entry.Status = status

	if status == models.StatusPlaying && entry.StartedAt == nil {
		entry.StartedAt = &now
		updates["started_at"] = &now
	}
	if status == models.StatusDone {
		entry.CompletedAt = &now
		updates["completed_at"] = &now
	} else if entry.CompletedAt != nil {
		entry.CompletedAt = nil
		updates["completed_at"] = nil
	}

	if err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ?", entry.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableEntries, Action: ActionUpdate, EntryID: entry.ID})
	return entry, nil
}

// IncrementGamesPlayed bumps the play counter by one. Only repeatable
// projects track game counts. Once the counter has reached the requested
// total the call is a no-op and returns the entry unchanged.
func (s *QueueService) IncrementGamesPlayed(ctx context.Context, actorID, projectID, entryID uint) (*models.QueueEntry, error) {
	if err := s.authorize(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	if err := s.requireRepeatable(ctx, projectID); err != nil {
		return nil, err
	}

	entry, err := s.loadEntry(ctx, projectID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.GamesPlayed >= entry.GamesRequested {
		return entry, nil
	}

	// Conditional update so concurrent bumps cannot overshoot the total.
	res := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ? AND games_played < games_requested", entry.ID).
		Update("games_played", gorm.Expr("games_played + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return entry, nil
	}
	entry.GamesPlayed++

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableEntries, Action: ActionUpdate, EntryID: entry.ID})
	return entry, nil
}

// IncrementGamesRequested raises the requested-games total by delta. Only
// repeatable projects track game counts.
func (s *QueueService) IncrementGamesRequested(ctx context.Context, actorID, projectID, entryID uint, delta int) (*models.QueueEntry, error) {
	if err := s.authorize(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	if delta < 1 {
		return nil, response.NewBadRequest("delta must be at least 1")
	}
	if err := s.requireRepeatable(ctx, projectID); err != nil {
		return nil, err
	}

	entry, err := s.loadEntry(ctx, projectID, entryID)
	if err != nil {
		return nil, err
	}

	entry.GamesRequested += delta
	if err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ?", entry.ID).
		Update("games_requested", entry.GamesRequested).Error; err != nil {
		return nil, err
	}

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableEntries, Action: ActionUpdate, EntryID: entry.ID})
	return entry, nil
}

// ToggleFastTrack flips an entry's fast-track flag. Requires the project to
// have a fast-track lane.
func (s *QueueService) ToggleFastTrack(ctx context.Context, actorID, projectID, entryID uint) (*models.QueueEntry, error) {
	if err := s.authorize(ctx, projectID, actorID); err != nil {
		return nil, err
	}

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasFastTrack {
		return nil, response.NewBadRequest("this project has no fast-track lane")
	}

	entry, err := s.loadEntry(ctx, projectID, entryID)
	if err != nil {
		return nil, err
	}

	entry.IsFastTrack = !entry.IsFastTrack
	if err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ?", entry.ID).
		Update("is_fast_track", entry.IsFastTrack).Error; err != nil {
		return nil, err
	}

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableEntries, Action: ActionUpdate, EntryID: entry.ID})
	return entry, nil
}

// RemovePlayer deletes an entry from the queue.
func (s *QueueService) RemovePlayer(ctx context.Context, actorID, projectID, entryID uint) error {
	if err := s.authorize(ctx, projectID, actorID); err != nil {
		return err
	}

	entry, err := s.loadEntry(ctx, projectID, entryID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.QueueEntry{}, entry.ID).Error; err != nil {
		return err
	}

	logger.Info().
		Uint("project_id", projectID).
		Uint("entry_id", entry.ID).
		Msg("player removed from queue")
	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableEntries, Action: ActionDelete, EntryID: entry.ID})
	return nil
}

// UpdateEntry edits the descriptive fields of an entry: display name,
// notes and role tags.
func (s *QueueService) UpdateEntry(ctx context.Context, actorID, projectID, entryID uint, displayName, notes *string, roleIDs []uint) (*models.QueueEntry, error) {
	if err := s.authorize(ctx, projectID, actorID); err != nil {
		return nil, err
	}

	entry, err := s.loadEntry(ctx, projectID, entryID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if displayName != nil {
		entry.DisplayName = strings.TrimSpace(*displayName)
		updates["display_name"] = entry.DisplayName
	}
	if notes != nil {
		entry.Notes = strings.TrimSpace(*notes)
		updates["notes"] = entry.Notes
	}
	if roleIDs != nil {
		valid, err := s.validateRoles(ctx, projectID, roleIDs)
		if err != nil {
			return nil, err
		}
		entry.RoleIDs = valid
		updates["role_ids"] = valid
	}
	if len(updates) == 0 {
		return entry, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ?", entry.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableEntries, Action: ActionUpdate, EntryID: entry.ID})
	return entry, nil
}

func (s *QueueService) authorize(ctx context.Context, projectID, actorID uint) error {
	ok, err := s.members.HasManagementAccess(ctx, projectID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return response.NewForbidden("you do not manage this project")
	}
	return nil
}

func (s *QueueService) requireRepeatable(ctx context.Context, projectID uint) error {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.IsRepeatable {
		return response.NewBadRequest("this project does not track game counts")
	}
	return nil
}

func (s *QueueService) loadProject(ctx context.Context, projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *QueueService) loadEntry(ctx context.Context, projectID, entryID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", entryID, projectID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("queue entry not found")
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *QueueService) validateRoles(ctx context.Context, projectID uint, ids []uint) (models.RoleIDList, error) {
	if len(ids) == 0 {
		return models.RoleIDList{}, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ProjectRole{}).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(ids)) {
		return nil, response.NewBadRequest("one or more roles do not belong to this project")
	}
	return models.RoleIDList(ids), nil
}

package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/internal/utils"
	"github.com/alfianmry16/open-mabar/pkg/logger"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type ProjectService struct {
	db  *gorm.DB
	hub *EventHub
}

func NewProjectService(db *gorm.DB, hub *EventHub) *ProjectService {
	return &ProjectService{db: db, hub: hub}
}

type CreateProjectRequest struct {
	Name         string   `json:"name" binding:"required"`
	GameName     string   `json:"game_name"`
	IsRepeatable bool     `json:"is_repeatable"`
	HasFastTrack bool     `json:"has_fast_track"`
	Roles        []string `json:"roles"`
}

type UpdateProjectRequest struct {
	Name         string `json:"name"`
	GameName     string `json:"game_name"`
	IsRepeatable *bool  `json:"is_repeatable"`
	HasFastTrack *bool  `json:"has_fast_track"`
	IsActive     *bool  `json:"is_active"`
}

// List returns every project the user owns or moderates, owner profile
// included, newest first.
func (s *ProjectService) List(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetByID returns a project by ID.
func (s *ProjectService) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Preload("Owner").First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetBySlug returns a project by its public slug.
func (s *ProjectService) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Preload("Owner").Where("slug = ?", slug).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Create makes a project, its owner membership row and any initial roles in
// one transaction. The slug is derived from the name and never changes.
func (s *ProjectService) Create(ctx context.Context, ownerID uint, req *CreateProjectRequest) (*models.Project, error) {
	project := models.Project{
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(req.Name),
		Slug:         utils.Slugify(req.Name),
		GameName:     strings.TrimSpace(req.GameName),
		IsRepeatable: req.IsRepeatable,
		HasFastTrack: req.HasFastTrack,
		IsActive:     true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		owner := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      models.MemberRoleOwner,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		for i, name := range req.Roles {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			role := models.ProjectRole{ProjectID: project.ID, Name: name, DisplayOrder: i}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", project.ID).
		Str("slug", project.Slug).
		Msg("project created")
	return &project, nil
}

// Update edits project settings. The slug is immutable.
func (s *ProjectService) Update(ctx context.Context, id uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		project.Name = strings.TrimSpace(req.Name)
	}
	if req.GameName != "" {
		project.GameName = strings.TrimSpace(req.GameName)
	}
	if req.IsRepeatable != nil {
		project.IsRepeatable = *req.IsRepeatable
	}
	if req.HasFastTrack != nil {
		project.HasFastTrack = *req.HasFastTrack
	}
	if req.IsActive != nil {
		project.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, err
	}

	s.hub.Publish(ChangeEvent{ProjectID: project.ID, Table: TableProject, Action: ActionUpdate})
	return project, nil
}

// ToggleActive flips the queue between open and closed. Unlike Update this
// is available to moderators, so a mod can close the queue mid-stream.
func (s *ProjectService) ToggleActive(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project.IsActive = !project.IsActive
	if err := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", project.ID).
		Update("is_active", project.IsActive).Error; err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", project.ID).
		Bool("is_active", project.IsActive).
		Msg("queue toggled")
	s.hub.Publish(ChangeEvent{ProjectID: project.ID, Table: TableProject, Action: ActionUpdate})
	return project, nil
}

// Delete removes a project and everything hanging off it.
func (s *ProjectService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.QueueEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.InviteLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
	if err != nil {
		return err
	}

	logger.Info().Uint("project_id", id).Msg("project deleted")
	s.hub.Publish(ChangeEvent{ProjectID: id, Table: TableProject, Action: ActionDelete})
	return nil
}

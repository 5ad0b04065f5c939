package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/pkg/logger"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type InviteService struct {
	db *gorm.DB
}

func NewInviteService(db *gorm.DB) *InviteService {
	return &InviteService{db: db}
}

type CreateInviteRequest struct {
	ExpiresInHours *int `json:"expires_in_hours"` // nil means never
	MaxUses        *int `json:"max_uses"`         // nil means unlimited
}

// InvitePreview is the public shape returned when a visitor checks a token
// before redeeming it.
type InvitePreview struct {
	ProjectName string     `json:"project_name"`
	ProjectSlug string     `json:"project_slug"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	UsesLeft    *int       `json:"uses_left,omitempty"`
}

// Create issues a new invite link for the project.
func (s *InviteService) Create(ctx context.Context, projectID, createdBy uint, req *CreateInviteRequest) (*models.InviteLink, error) {
	link := models.InviteLink{
		ProjectID: projectID,
		CreatedBy: createdBy,
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		MaxUses:   req.MaxUses,
		IsActive:  true,
	}
	if req.ExpiresInHours != nil {
		if *req.ExpiresInHours < 1 {
			return nil, response.NewBadRequest("expiry must be at least one hour")
		}
		at := time.Now().Add(time.Duration(*req.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &at
	}
	if req.MaxUses != nil && *req.MaxUses < 1 {
		return nil, response.NewBadRequest("max uses must be at least 1")
	}

	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// List returns all invite links of a project, newest first.
func (s *InviteService) List(ctx context.Context, projectID uint) ([]models.InviteLink, error) {
	var links []models.InviteLink
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// Deactivate turns a link off without deleting its usage history.
func (s *InviteService) Deactivate(ctx context.Context, projectID, linkID uint) error {
	res := s.db.WithContext(ctx).Model(&models.InviteLink{}).
		Where("id = ? AND project_id = ?", linkID, projectID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return response.NewNotFound("invite link not found")
	}
	return nil
}

// Preview resolves a token into the public invite details, or an error when
// the link is unknown or no longer usable.
func (s *InviteService) Preview(ctx context.Context, token string) (*InvitePreview, error) {
	link, project, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	preview := &InvitePreview{
		ProjectName: project.Name,
		ProjectSlug: project.Slug,
		ExpiresAt:   link.ExpiresAt,
	}
	if link.MaxUses != nil {
		left := *link.MaxUses - link.UsesCount
		preview.UsesLeft = &left
	}
	return preview, nil
}

// Redeem joins userID to the invite's project as a moderator. The usage
// counter is incremented with a conditional update inside the transaction
// so a link at its cap cannot be redeemed twice by racing requests. Users
// who already belong to the project do not consume a use.
func (s *InviteService) Redeem(ctx context.Context, token string, userID uint) (*models.Project, error) {
	link, project, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ProjectMember
		memberErr := tx.
			Where("project_id = ? AND user_id = ?", link.ProjectID, userID).
			First(&existing).Error
		if memberErr == nil {
			return nil
		}
		if !errors.Is(memberErr, gorm.ErrRecordNotFound) {
			return memberErr
		}

		counter := tx.Model(&models.InviteLink{}).
			Where("id = ? AND is_active = ?", link.ID, true)
		if link.MaxUses != nil {
			counter = counter.Where("uses_count < max_uses")
		}
		res := counter.Update("uses_count", gorm.Expr("uses_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return response.NewConflict("this invite link has been used up")
		}

		member := models.ProjectMember{
			ProjectID: link.ProjectID,
			UserID:    userID,
			Role:      models.MemberRoleModerator,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", link.ProjectID).
		Uint("user_id", userID).
		Msg("invite redeemed")
	return project, nil
}

// SweepExpired deactivates links whose expiry has passed. Run periodically.
func (s *InviteService) SweepExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.InviteLink{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, time.Now()).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logger.Info().Int64("count", res.RowsAffected).Msg("expired invite links deactivated")
	}
	return res.RowsAffected, nil
}

func (s *InviteService) lookup(ctx context.Context, token string) (*models.InviteLink, *models.Project, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, response.NewBadRequest("invite token is required")
	}

	var link models.InviteLink
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, response.NewNotFound("invite link not found")
	}
	if err != nil {
		return nil, nil, err
	}
	if !link.Usable(time.Now()) {
		return nil, nil, response.NewConflict("this invite link is no longer valid")
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, link.ProjectID).Error; err != nil {
		return nil, nil, err
	}
	return &link, &project, nil
}

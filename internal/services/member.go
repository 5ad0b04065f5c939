package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// HasManagementAccess reports whether userID is the owner or a moderator of
// the project.
func (s *MemberService) HasManagementAccess(ctx context.Context, projectID, userID uint) (bool, error) {
	var member models.ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsOwner reports whether userID holds the owner role on the project.
func (s *MemberService) IsOwner(ctx context.Context, projectID, userID uint) (bool, error) {
	var member models.ProjectMember
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ? AND role = ?", projectID, userID, models.MemberRoleOwner).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all members of a project with their profiles.
func (s *MemberService) List(ctx context.Context, projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// AddByEmail adds a registered user to the project as a moderator, looked
// up by email. The address must belong to an existing account.
func (s *MemberService) AddByEmail(ctx context.Context, projectID uint, email string) (*models.ProjectMember, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, response.NewBadRequest("email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("no account uses that email")
	}
	if err != nil {
		return nil, err
	}

	var existing models.ProjectMember
	err = s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, user.ID).
		First(&existing).Error
	if err == nil {
		return nil, response.NewConflict("this user is already a member")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      models.MemberRoleModerator,
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, err
	}
	member.User = &user
	return &member, nil
}

// Remove deletes a moderator from the project. The owner row cannot be
// removed; ownership moves only by deleting the project.
func (s *MemberService) Remove(ctx context.Context, projectID, memberID uint) error {
	var member models.ProjectMember
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", memberID, projectID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound("member not found")
	}
	if err != nil {
		return err
	}
	if member.Role == models.MemberRoleOwner {
		return response.NewForbidden("the project owner cannot be removed")
	}
	return s.db.WithContext(ctx).Delete(&member).Error
}

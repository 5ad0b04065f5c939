package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type RoleService struct {
	db  *gorm.DB
	hub *EventHub
}

func NewRoleService(db *gorm.DB, hub *EventHub) *RoleService {
	return &RoleService{db: db, hub: hub}
}

type CreateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateRoleRequest struct {
	Name         string `json:"name"`
	DisplayOrder *int   `json:"display_order"`
}

// List returns the project's roles in display order.
func (s *RoleService) List(ctx context.Context, projectID uint) ([]models.ProjectRole, error) {
	var roles []models.ProjectRole
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("display_order ASC, id ASC").
		Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// Create appends a role at the end of the display order.
func (s *RoleService) Create(ctx context.Context, projectID uint, req *CreateRoleRequest) (*models.ProjectRole, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("role name is required")
	}

	var maxOrder int
	row := s.db.WithContext(ctx).Model(&models.ProjectRole{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(display_order), -1)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		return nil, err
	}

	role := models.ProjectRole{ProjectID: projectID, Name: name, DisplayOrder: maxOrder + 1}
	if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableRoles, Action: ActionInsert})
	return &role, nil
}

// Update renames a role or moves it in the display order.
func (s *RoleService) Update(ctx context.Context, projectID, roleID uint, req *UpdateRoleRequest) (*models.ProjectRole, error) {
	role, err := s.get(ctx, projectID, roleID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		role.Name = name
	}
	if req.DisplayOrder != nil {
		role.DisplayOrder = *req.DisplayOrder
	}
	if err := s.db.WithContext(ctx).Save(role).Error; err != nil {
		return nil, err
	}

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableRoles, Action: ActionUpdate})
	return role, nil
}

// Delete removes a role and strips its ID from every entry that carries it.
func (s *RoleService) Delete(ctx context.Context, projectID, roleID uint) error {
	role, err := s.get(ctx, projectID, roleID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entries []models.QueueEntry
		if err := tx.Where("project_id = ?", projectID).Find(&entries).Error; err != nil {
			return err
		}
		for i := range entries {
			kept := entries[i].RoleIDs[:0]
			changed := false
			for _, id := range entries[i].RoleIDs {
				if id == roleID {
					changed = true
					continue
				}
				kept = append(kept, id)
			}
			if !changed {
				continue
			}
			if err := tx.Model(&models.QueueEntry{}).
				Where("id = ?", entries[i].ID).
				Update("role_ids", models.RoleIDList(kept)).Error; err != nil {
				return err
			}
		}
		return tx.Delete(role).Error
	})
	if err != nil {
		return err
	}

	s.hub.Publish(ChangeEvent{ProjectID: projectID, Table: TableRoles, Action: ActionDelete})
	return nil
}

func (s *RoleService) get(ctx context.Context, projectID, roleID uint) (*models.ProjectRole, error) {
	var role models.ProjectRole
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", roleID, projectID).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("role not found")
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

func TestMemberServiceAddByEmail(t *testing.T) {
	db := setupTestDB(t)
	_, project := seedProject(t, db, false, false)
	svc := NewMemberService(db)
	ctx := context.Background()

	helper := models.User{Email: "helper@example.com", IsActive: true}
	if err := db.Create(&helper).Error; err != nil {
		t.Fatalf("seed helper: %v", err)
	}

	// Lookup is case-insensitive on the address.
	member, err := svc.AddByEmail(ctx, project.ID, "  Helper@Example.com ")
	if err != nil {
		t.Fatalf("add by email: %v", err)
	}
	if member.UserID != helper.ID {
		t.Errorf("member user = %d, want %d", member.UserID, helper.ID)
	}
	if member.Role != models.MemberRoleModerator {
		t.Errorf("new member role = %q, want moderator", member.Role)
	}

	ok, err := svc.HasManagementAccess(ctx, project.ID, helper.ID)
	if err != nil {
		t.Fatalf("access check: %v", err)
	}
	if !ok {
		t.Error("added member should have management access")
	}
}

func TestMemberServiceAddByEmailRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewMemberService(db)
	ctx := context.Background()

	_, err := svc.AddByEmail(ctx, project.ID, owner.Email)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 409 {
		t.Errorf("re-adding an existing member should return 409, got %v", err)
	}
}

func TestMemberServiceAddByEmailUnknownAccount(t *testing.T) {
	db := setupTestDB(t)
	_, project := seedProject(t, db, false, false)
	svc := NewMemberService(db)

	_, err := svc.AddByEmail(context.Background(), project.ID, "nobody@example.com")
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 404 {
		t.Errorf("unknown email should return 404, got %v", err)
	}
}

func TestMemberServiceRemoveProtectsOwner(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewMemberService(db)
	ctx := context.Background()

	var ownerRow models.ProjectMember
	if err := db.Where("project_id = ? AND user_id = ?", project.ID, owner.ID).First(&ownerRow).Error; err != nil {
		t.Fatalf("load owner row: %v", err)
	}

	err := svc.Remove(ctx, project.ID, ownerRow.ID)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 403 {
		t.Errorf("removing the owner should return 403, got %v", err)
	}
}

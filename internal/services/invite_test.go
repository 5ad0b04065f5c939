package services

import (
	"context"
	"testing"
	"time"

	"github.com/alfianmry16/open-mabar/internal/models"
)

func TestInviteServiceCreateAndPreview(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewInviteService(db)
	ctx := context.Background()

	maxUses := 5
	link, err := svc.Create(ctx, project.ID, owner.ID, &CreateInviteRequest{MaxUses: &maxUses})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(link.Token) != 32 {
		t.Errorf("token length = %d, want 32", len(link.Token))
	}

	preview, err := svc.Preview(ctx, link.Token)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.ProjectName != project.Name || preview.ProjectSlug != project.Slug {
		t.Errorf("unexpected preview: %+v", preview)
	}
	if preview.UsesLeft == nil || *preview.UsesLeft != 5 {
		t.Errorf("uses left should be 5, got %v", preview.UsesLeft)
	}
}

func TestInviteServiceRedeemAddsModerator(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewInviteService(db)
	ctx := context.Background()

	link, err := svc.Create(ctx, project.ID, owner.ID, &CreateInviteRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	joiner := models.User{Email: "mod@example.com", IsActive: true}
	if err := db.Create(&joiner).Error; err != nil {
		t.Fatalf("seed joiner: %v", err)
	}

	got, err := svc.Redeem(ctx, link.Token, joiner.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if got.ID != project.ID {
		t.Errorf("redeemed project %d, want %d", got.ID, project.ID)
	}

	var member models.ProjectMember
	if err := db.Where("project_id = ? AND user_id = ?", project.ID, joiner.ID).First(&member).Error; err != nil {
		t.Fatalf("member row missing: %v", err)
	}
	if member.Role != models.MemberRoleModerator {
		t.Errorf("role = %q, want moderator", member.Role)
	}

	var stored models.InviteLink
	db.First(&stored, link.ID)
	if stored.UsesCount != 1 {
		t.Errorf("uses_count = %d, want 1", stored.UsesCount)
	}
}

func TestInviteServiceRedeemTwiceDoesNotConsumeUse(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewInviteService(db)
	ctx := context.Background()

	link, err := svc.Create(ctx, project.ID, owner.ID, &CreateInviteRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	joiner := models.User{Email: "mod@example.com", IsActive: true}
	if err := db.Create(&joiner).Error; err != nil {
		t.Fatalf("seed joiner: %v", err)
	}

	if _, err := svc.Redeem(ctx, link.Token, joiner.ID); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := svc.Redeem(ctx, link.Token, joiner.ID); err != nil {
		t.Fatalf("second redeem should succeed as a no-op: %v", err)
	}

	var stored models.InviteLink
	db.First(&stored, link.ID)
	if stored.UsesCount != 1 {
		t.Errorf("uses_count = %d, want 1", stored.UsesCount)
	}

	var count int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, joiner.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("member rows = %d, want 1", count)
	}
}

func TestInviteServiceRedeemRespectsCap(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewInviteService(db)
	ctx := context.Background()

	maxUses := 1
	link, err := svc.Create(ctx, project.ID, owner.ID, &CreateInviteRequest{MaxUses: &maxUses})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := models.User{Email: "a@example.com", IsActive: true}
	second := models.User{Email: "b@example.com", IsActive: true}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Redeem(ctx, link.Token, first.ID); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := svc.Redeem(ctx, link.Token, second.ID); err == nil {
		t.Error("redeeming past the cap should fail")
	}
}

func TestInviteServiceExpiredLinkRejected(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewInviteService(db)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	link := models.InviteLink{
		ProjectID: project.ID,
		CreatedBy: owner.ID,
		Token:     "expiredtoken00000000000000000000",
		ExpiresAt: &past,
		IsActive:  true,
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	if _, err := svc.Preview(ctx, link.Token); err == nil {
		t.Error("expired link should not preview")
	}

	swept, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}

	var stored models.InviteLink
	db.First(&stored, link.ID)
	if stored.IsActive {
		t.Error("swept link should be inactive")
	}
}

func TestInviteServiceDeactivate(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := NewInviteService(db)
	ctx := context.Background()

	link, err := svc.Create(ctx, project.ID, owner.ID, &CreateInviteRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Deactivate(ctx, project.ID, link.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Preview(ctx, link.Token); err == nil {
		t.Error("deactivated link should not preview")
	}

	if err := svc.Deactivate(ctx, project.ID, link.ID+100); err == nil {
		t.Error("deactivating a missing link should fail")
	}
}

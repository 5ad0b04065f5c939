package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/internal/queue"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Project{},
		&models.ProjectRole{},
		&models.ProjectMember{},
		&models.QueueEntry{},
		&models.InviteLink{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedProject creates an owner, a project and the owner membership row.
func seedProject(t *testing.T, db *gorm.DB, repeatable, fastTrack bool) (*models.User, *models.Project) {
	t.Helper()
	owner := models.User{Email: "owner@example.com", IsActive: true}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	project := models.Project{
		OwnerID:      owner.ID,
		Name:         "Mabar Malam",
		Slug:         "mabar-malam-ab12c",
		IsRepeatable: repeatable,
		HasFastTrack: fastTrack,
		IsActive:     true,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	member := models.ProjectMember{ProjectID: project.ID, UserID: owner.ID, Role: models.MemberRoleOwner}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return &owner, &project
}

func newTestQueueService(db *gorm.DB) *QueueService {
	return NewQueueService(db, NewMemberService(db), NewEventHub())
}

func TestQueueServiceAddPlayerCreatesWaitingEntry(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox", GamesRequested: 4})
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if entry.Status != models.StatusWaiting {
		t.Errorf("new entry status = %q, want waiting", entry.Status)
	}
	if entry.GamesRequested != 1 {
		t.Errorf("non-repeatable project should clamp requested games to 1, got %d", entry.GamesRequested)
	}
	if entry.JoinedAt.IsZero() {
		t.Error("joined_at should be stamped")
	}
}

func TestQueueServiceAddPlayerMergesActiveEntry(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, true, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	first, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "ShadowFox", GamesRequested: 2})
	if err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Same handle, different case: must top up, not duplicate.
	second, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox", GamesRequested: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected merge into entry %d, got new entry %d", first.ID, second.ID)
	}
	if second.GamesRequested != 5 {
		t.Errorf("games_requested = %d, want 5", second.GamesRequested)
	}

	var count int64
	db.Model(&models.QueueEntry{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 entry after merge, got %d", count)
	}
}

func TestQueueServiceAddPlayerDoneEntryGetsFreshRow(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, true, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	first, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, owner.ID, project.ID, first.ID, models.StatusDone); err != nil {
		t.Fatalf("finish: %v", err)
	}

	second, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if second.ID == first.ID {
		t.Error("a done entry should not absorb a new addition")
	}
	if second.Status != models.StatusWaiting {
		t.Errorf("fresh entry status = %q, want waiting", second.Status)
	}
}

func TestQueueServiceAddPlayerAllowedWhileClosed(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)

	if err := db.Model(project).Update("is_active", false).Error; err != nil {
		t.Fatalf("close queue: %v", err)
	}

	// Closing the queue hides the public view; managers keep working it.
	entry, err := svc.AddPlayer(context.Background(), owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("manager add on a closed queue should succeed: %v", err)
	}
	if entry.Status != models.StatusWaiting {
		t.Errorf("entry status = %q, want waiting", entry.Status)
	}
}

func TestQueueServiceAddPlayerRequiresManagementAccess(t *testing.T) {
	db := setupTestDB(t)
	_, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)

	stranger := models.User{Email: "stranger@example.com", IsActive: true}
	if err := db.Create(&stranger).Error; err != nil {
		t.Fatalf("seed stranger: %v", err)
	}

	_, err := svc.AddPlayer(context.Background(), stranger.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 403 {
		t.Errorf("expected 403 for non-member, got %v", err)
	}
}

func TestQueueServiceAddPlayerRejectsForeignRoles(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)

	other := models.ProjectRole{ProjectID: project.ID + 100, Name: "Tank"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed role: %v", err)
	}

	_, err := svc.AddPlayer(context.Background(), owner.ID, project.ID, queue.AddPlayerInput{
		GameID:  "shadowfox",
		RoleIDs: []uint{other.ID},
	})
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 400 {
		t.Errorf("expected 400 for foreign role, got %v", err)
	}
}

func TestQueueServiceUpdateStatusStampsTimes(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	playing, err := svc.UpdateStatus(ctx, owner.ID, project.ID, entry.ID, models.StatusPlaying)
	if err != nil {
		t.Fatalf("to playing: %v", err)
	}
	if playing.StartedAt == nil {
		t.Error("started_at should be stamped when entering playing")
	}

	done, err := svc.UpdateStatus(ctx, owner.ID, project.ID, entry.ID, models.StatusDone)
	if err != nil {
		t.Fatalf("to done: %v", err)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at should be stamped when entering done")
	}

	back, err := svc.UpdateStatus(ctx, owner.ID, project.ID, entry.ID, models.StatusWaiting)
	if err != nil {
		t.Fatalf("back to waiting: %v", err)
	}
	if back.CompletedAt != nil {
		t.Error("completed_at should clear when leaving done")
	}

	if _, err := svc.UpdateStatus(ctx, owner.ID, project.ID, entry.ID, "paused"); err == nil {
		t.Error("unknown status should be rejected")
	}
}

func TestQueueServiceUpdateStatusReviveBlockedByActiveDuplicate(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, true, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	first, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "ShadowFox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, owner.ID, project.ID, first.ID, models.StatusDone); err != nil {
		t.Fatalf("finish: %v", err)
	}
	second, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}

	// Reviving the finished entry would put two active rows on one handle.
	_, err = svc.UpdateStatus(ctx, owner.ID, project.ID, first.ID, models.StatusWaiting)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 409 {
		t.Errorf("expected 409 reviving alongside an active duplicate, got %v", err)
	}

	// Once the fresh row is gone the revival goes through.
	if err := svc.RemovePlayer(ctx, owner.ID, project.ID, second.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	revived, err := svc.UpdateStatus(ctx, owner.ID, project.ID, first.ID, models.StatusWaiting)
	if err != nil {
		t.Fatalf("revive: %v", err)
	}
	if revived.Status != models.StatusWaiting {
		t.Errorf("revived status = %q, want waiting", revived.Status)
	}
}

func TestQueueServiceIncrementGamesPlayedStopsAtRequested(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, true, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox", GamesRequested: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	for i := 0; i < 5; i++ {
		if entry, err = svc.IncrementGamesPlayed(ctx, owner.ID, project.ID, entry.ID); err != nil {
			t.Fatalf("bump %d: %v", i, err)
		}
	}
	if entry.GamesPlayed != 2 {
		t.Errorf("games_played = %d, want 2 (capped at requested)", entry.GamesPlayed)
	}

	var stored models.QueueEntry
	db.First(&stored, entry.ID)
	if stored.GamesPlayed != 2 {
		t.Errorf("stored games_played = %d, want 2", stored.GamesPlayed)
	}
}

func TestQueueServiceIncrementGamesRequested(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, true, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	bumped, err := svc.IncrementGamesRequested(ctx, owner.ID, project.ID, entry.ID, 3)
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if bumped.GamesRequested != 4 {
		t.Errorf("games_requested = %d, want 4", bumped.GamesRequested)
	}

	if _, err := svc.IncrementGamesRequested(ctx, owner.ID, project.ID, entry.ID, 0); err == nil {
		t.Error("zero delta should be rejected")
	}
}

func TestQueueServiceIncrementsNeedRepeatableProject(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := svc.IncrementGamesPlayed(ctx, owner.ID, project.ID, entry.ID); err == nil {
		t.Error("played increment should fail on a non-repeatable project")
	}
	if _, err := svc.IncrementGamesRequested(ctx, owner.ID, project.ID, entry.ID, 1); err == nil {
		t.Error("requested increment should fail on a non-repeatable project")
	}
}

func TestQueueServiceToggleFastTrackNeedsLane(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := svc.ToggleFastTrack(ctx, owner.ID, project.ID, entry.ID); err == nil {
		t.Error("toggle should fail on a project without a fast-track lane")
	}
}

func TestQueueServiceToggleFastTrackFlips(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, true)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	flipped, err := svc.ToggleFastTrack(ctx, owner.ID, project.ID, entry.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !flipped.IsFastTrack {
		t.Error("entry should be fast-tracked after toggle")
	}

	flipped, err = svc.ToggleFastTrack(ctx, owner.ID, project.ID, entry.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if flipped.IsFastTrack {
		t.Error("entry should be regular after the second toggle")
	}
}

func TestQueueServiceRemovePlayer(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	svc := newTestQueueService(db)
	ctx := context.Background()

	entry, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.RemovePlayer(ctx, owner.ID, project.ID, entry.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	var count int64
	db.Model(&models.QueueEntry{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected empty queue, got %d entries", count)
	}

	if err := svc.RemovePlayer(ctx, owner.ID, project.ID, entry.ID); err == nil {
		t.Error("removing a missing entry should fail")
	}
}

func TestQueueServiceListEntriesOrdersFastTrackFirst(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, true)
	svc := newTestQueueService(db)
	ctx := context.Background()

	if _, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "early"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddPlayer(ctx, owner.ID, project.ID, queue.AddPlayerInput{GameID: "vip", IsFastTrack: true}); err != nil {
		t.Fatalf("add vip: %v", err)
	}

	entries, err := svc.ListEntries(ctx, project.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].GameID != "vip" {
		t.Errorf("fast-track entry should come first: %+v", entries)
	}
}

func TestQueueServicePublishesChangeEvents(t *testing.T) {
	db := setupTestDB(t)
	owner, project := seedProject(t, db, false, false)
	hub := NewEventHub()
	svc := NewQueueService(db, NewMemberService(db), hub)

	ch := hub.Subscribe("viewer", project.ID)

	if _, err := svc.AddPlayer(context.Background(), owner.ID, project.ID, queue.AddPlayerInput{GameID: "shadowfox"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Table != TableEntries || ev.Action != ActionInsert {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Error("expected an insert event after AddPlayer")
	}
}

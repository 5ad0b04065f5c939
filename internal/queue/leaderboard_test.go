package queue

import (
	"testing"

	"github.com/alfianmry16/open-mabar/internal/models"
)

func TestLeaderboardAggregatesByGameID(t *testing.T) {
	entries := []models.QueueEntry{
		{GameID: "shadowfox", DisplayName: "Budi", GamesPlayed: 3, Status: models.StatusDone},
		{GameID: "ShadowFox", GamesPlayed: 2, Status: models.StatusDone},
		{GameID: "nightowl", GamesPlayed: 4, Status: models.StatusDone},
		{GameID: "stormcall", GamesPlayed: 0, Status: models.StatusWaiting},
		{GameID: "", GamesPlayed: 9, Status: models.StatusDone},
	}

	rows := Leaderboard(entries, 5)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (zero plays and blank handles skipped)", len(rows))
	}
	if rows[0].GameID != "shadowfox" || rows[0].GamesPlayed != 5 {
		t.Errorf("case-insensitive merge failed: %+v", rows[0])
	}
	if rows[0].DisplayName != "Budi" {
		t.Errorf("first occurrence should name the row, got %q", rows[0].DisplayName)
	}
	if rows[1].GameID != "nightowl" || rows[1].GamesPlayed != 4 {
		t.Errorf("unexpected second row: %+v", rows[1])
	}
}

func TestLeaderboardTruncatesToSize(t *testing.T) {
	entries := []models.QueueEntry{
		{GameID: "a", GamesPlayed: 6},
		{GameID: "b", GamesPlayed: 5},
		{GameID: "c", GamesPlayed: 4},
		{GameID: "d", GamesPlayed: 3},
		{GameID: "e", GamesPlayed: 2},
		{GameID: "f", GamesPlayed: 1},
	}

	rows := Leaderboard(entries, 5)
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	if rows[0].GameID != "a" || rows[4].GameID != "e" {
		t.Errorf("rows should be ordered by plays: %+v", rows)
	}
}

func TestLeaderboardTieBreaksAlphabetically(t *testing.T) {
	entries := []models.QueueEntry{
		{GameID: "zulu", GamesPlayed: 2},
		{GameID: "alpha", GamesPlayed: 2},
	}

	rows := Leaderboard(entries, 5)
	if rows[0].GameID != "alpha" {
		t.Errorf("ties should order alphabetically, got %q first", rows[0].GameID)
	}
}

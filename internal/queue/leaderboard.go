package queue

import (
	"sort"
	"strings"

	"github.com/alfianmry16/open-mabar/internal/models"
)

// LeaderboardRow is one player's aggregated play count.
type LeaderboardRow struct {
	GameID      string `json:"game_id"`
	DisplayName string `json:"display_name"`
	GamesPlayed int    `json:"games_played"`
}

// Leaderboard aggregates games played per game handle across all entries
// and returns the top rows, most games first. Entries without a handle and
// handles with zero plays are skipped. Ties break alphabetically so the
// ordering stays stable across refreshes.
func Leaderboard(entries []models.QueueEntry, size int) []LeaderboardRow {
	type acc struct {
		name  string
		total int
	}
	totals := make(map[string]*acc)
	for i := range entries {
		e := &entries[i]
		gameID := strings.TrimSpace(e.GameID)
		if gameID == "" {
			continue
		}
		key := strings.ToLower(gameID)
		a, ok := totals[key]
		if !ok {
			a = &acc{name: ResolvePlayerName(e)}
			totals[key] = a
		}
		a.total += e.GamesPlayed
	}

	rows := make([]LeaderboardRow, 0, len(totals))
	for key, a := range totals {
		if a.total <= 0 {
			continue
		}
		rows = append(rows, LeaderboardRow{GameID: key, DisplayName: a.name, GamesPlayed: a.total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].GamesPlayed != rows[j].GamesPlayed {
			return rows[i].GamesPlayed > rows[j].GamesPlayed
		}
		return rows[i].DisplayName < rows[j].DisplayName
	})
	if size > 0 && len(rows) > size {
		rows = rows[:size]
	}
	return rows
}

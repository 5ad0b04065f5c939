// Package queue holds the pure ordering, naming and aggregation rules for
// project queues, plus the Session type that client views drive. Nothing in
// this package touches the database directly; persistence goes through the
// Store interface.
package queue

import (
	"sort"
	"strings"

	"github.com/alfianmry16/open-mabar/internal/models"
)

// Bucket identifiers for list filtering.
const (
	BucketAll     = "all"
	BucketWaiting = models.StatusWaiting
	BucketPlaying = models.StatusPlaying
	BucketDone    = models.StatusDone
)

// SortEntries orders entries in place: fast-track first, then by join time,
// with the entry ID as a stable tiebreak for same-instant joins.
func SortEntries(entries []models.QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.IsFastTrack != b.IsFastTrack {
			return a.IsFastTrack
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
}

// Partition splits sorted entries into the three lifecycle buckets,
// preserving order within each.
func Partition(entries []models.QueueEntry) (waiting, playing, done []models.QueueEntry) {
	for _, e := range entries {
		switch e.Status {
		case models.StatusPlaying:
			playing = append(playing, e)
		case models.StatusDone:
			done = append(done, e)
		default:
			waiting = append(waiting, e)
		}
	}
	return waiting, playing, done
}

// FilterSpec narrows a bucket listing. Zero values mean "no constraint".
type FilterSpec struct {
	Bucket    string // all, waiting, playing or done
	Search    string // case-insensitive match on resolved name or game id
	FastTrack *bool  // nil for all, true for fast-track only, false for regular only
	RoleID    uint
}

// Filter returns the entries matching spec, preserving input order.
func Filter(entries []models.QueueEntry, spec FilterSpec) []models.QueueEntry {
	needle := strings.ToLower(strings.TrimSpace(spec.Search))
	out := make([]models.QueueEntry, 0, len(entries))
	for _, e := range entries {
		if spec.Bucket != "" && spec.Bucket != BucketAll && e.Status != spec.Bucket {
			continue
		}
		if spec.FastTrack != nil && e.IsFastTrack != *spec.FastTrack {
			continue
		}
		if spec.RoleID != 0 && !hasRole(e.RoleIDs, spec.RoleID) {
			continue
		}
		if needle != "" {
			name := strings.ToLower(ResolvePlayerName(&e))
			gameID := strings.ToLower(e.GameID)
			if !strings.Contains(name, needle) && !strings.Contains(gameID, needle) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func hasRole(ids models.RoleIDList, roleID uint) bool {
	for _, id := range ids {
		if id == roleID {
			return true
		}
	}
	return false
}

// VisibleWindow returns at most size entries starting at the top of the
// list. A size of zero or less means no limit.
func VisibleWindow(entries []models.QueueEntry, size int) []models.QueueEntry {
	if size <= 0 || len(entries) <= size {
		return entries
	}
	return entries[:size]
}

// Position returns the 1-based position of entry id within entries, or 0
// when the entry is not present.
func Position(entries []models.QueueEntry, id uint) int {
	for i := range entries {
		if entries[i].ID == id {
			return i + 1
		}
	}
	return 0
}

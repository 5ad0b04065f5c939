package queue

import (
	"strings"

	"github.com/alfianmry16/open-mabar/internal/models"
)

// roleColors is the badge palette cycled by role position.
var roleColors = []string{
	"violet",
	"cyan",
	"rose",
	"lime",
	"orange",
	"sky",
	"pink",
	"teal",
}

// RoleColor returns the palette color for a role at the given position in
// the project's ordered role list.
func RoleColor(index int) string {
	if index < 0 {
		index = -index
	}
	return roleColors[index%len(roleColors)]
}

// ResolvePlayerName picks the best display label for an entry. Preference
// order: explicit display name, game handle, then the linked account's full
// name or the local part of its email.
func ResolvePlayerName(e *models.QueueEntry) string {
	if name := strings.TrimSpace(e.DisplayName); name != "" {
		return name
	}
	if id := strings.TrimSpace(e.GameID); id != "" {
		return id
	}
	if e.User != nil {
		if name := strings.TrimSpace(e.User.FullName); name != "" {
			return name
		}
		if e.User.Email != "" {
			if at := strings.Index(e.User.Email, "@"); at > 0 {
				return e.User.Email[:at]
			}
			return e.User.Email
		}
	}
	return "Unknown"
}

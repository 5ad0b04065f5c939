package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a name into a URL-safe slug with a short random suffix
// so equal names never collide.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	if s == "" {
		return suffix
	}
	return s + "-" + suffix
}

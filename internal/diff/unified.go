package diff

import (
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// Unified renders a unified text diff between two lists of display lines.
// It returns an empty string when both lists are equal.
func Unified(oldLabel, newLabel string, old, new []string) string {
	return udiff.Unified(oldLabel, newLabel, joinLines(old), joinLines(new))
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

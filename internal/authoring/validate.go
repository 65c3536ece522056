package authoring

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"recommread-server/internal/models"
)

const (
	// MaxTitleChars is the upper bound on title length.
	MaxTitleChars = 80
	// MinBodyChars is the minimum body length required for a manual
	// save or publish. Autosave is exempt.
	MinBodyChars = 300
)

// ValidationError carries every violated rule, not just the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "draft validation failed: " + strings.Join(e.Violations, "; ")
}

// Validate checks the full rule set against the draft. All rules are
// evaluated; a non-nil result is always a *ValidationError listing every
// violation.
func Validate(d Draft) error {
	var violations []string

	if strings.TrimSpace(d.Title) == "" {
		violations = append(violations, "title must not be empty")
	} else if utf8.RuneCountInString(d.Title) > MaxTitleChars {
		violations = append(violations, fmt.Sprintf("title must be at most %d characters", MaxTitleChars))
	}

	if d.Genre == "" || !models.ValidGenre(d.Genre) {
		violations = append(violations, "genre must be one of: "+genreList())
	}

	if d.CharCount < MinBodyChars {
		violations = append(violations, fmt.Sprintf("body must be at least %d characters (currently %d)", MinBodyChars, d.CharCount))
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func genreList() string {
	names := make([]string, len(models.Genres))
	for i, g := range models.Genres {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"yatube/internal/models"
)

var groupSlugRegex = regexp.MustCompile(`^[a-z0-9-]{3,50}$`)

// reservedWords collide with top-level routes and cannot be used as slugs or usernames.
var reservedWords = map[string]struct{}{
	"admin":    {},
	"api":      {},
	"auth":     {},
	"follow":   {},
	"groups":   {},
	"posts":    {},
	"profiles": {},
	"comments": {},
	"media":    {},
	"swagger":  {},
	"metrics":  {},
	"health":   {},
	"login":    {},
	"signup":   {},
	"create":   {},
}

const maxPostTextLength = 50000

// ValidateGroupSlug validates group slug format and reserved names.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 3-50 characters and contain only lowercase letters, numbers, and hyphens")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}
	if _, exists := reservedWords[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}
	return nil
}

// ValidateGroupTitle requires a non-blank title of at most 200 characters.
func ValidateGroupTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > models.GroupTitleMaxLength {
		return fmt.Errorf("title must not exceed %d characters", models.GroupTitleMaxLength)
	}
	return nil
}

// ValidateText requires post or comment text that is not blank.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	if utf8.RuneCountInString(text) > maxPostTextLength {
		return fmt.Errorf("text must not exceed %d characters", maxPostTextLength)
	}
	return nil
}

package seed

import (
	_ "embed"
	"fmt"

	"yatube/internal/models"
	"yatube/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed groups.yml
var builtInGroupsYAML []byte

// BuiltInGroup is a permanent group created on seed.
type BuiltInGroup struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// BuiltInGroups parses the embedded group list and validates every entry.
func BuiltInGroups() ([]BuiltInGroup, error) {
	return parseGroups(builtInGroupsYAML)
}

func parseGroups(data []byte) ([]BuiltInGroup, error) {
	var groups []BuiltInGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parse built-in groups: %w", err)
	}

	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if err := validation.ValidateGroupSlug(g.Slug); err != nil {
			return nil, fmt.Errorf("built-in group %q: %w", g.Slug, err)
		}
		if err := validation.ValidateGroupTitle(g.Title); err != nil {
			return nil, fmt.Errorf("built-in group %q: %w", g.Slug, err)
		}
		if _, dup := seen[g.Slug]; dup {
			return nil, fmt.Errorf("built-in group %q listed twice", g.Slug)
		}
		seen[g.Slug] = struct{}{}
	}
	return groups, nil
}

// Groups upserts the built-in groups by slug. Running it again refreshes
// titles and descriptions and never duplicates a group.
func Groups(db *gorm.DB) error {
	items, err := BuiltInGroups()
	if err != nil {
		return err
	}

	for _, item := range items {
		group := models.Group{
			Title:       item.Title,
			Slug:        item.Slug,
			Description: item.Description,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error; err != nil {
			return fmt.Errorf("seed built-in group %s: %w", item.Slug, err)
		}
	}
	return nil
}

package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/devika/graphchat/internal/domain"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonSlugRegex    = regexp.MustCompile(`[^a-z0-9]+`)
)

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// slugify derives a stable entity identifier from a label.
func slugify(label string) string {
	slug := nonSlugRegex.ReplaceAllString(strings.ToLower(label), "_")
	return strings.Trim(slug, "_")
}

// normalizeEntity sanitizes an entity payload: the label is required, a
// missing ID is derived from the label, and aliases are deduplicated
// case-insensitively with empties and label echoes dropped.
func normalizeEntity(input domain.EntityInput) (domain.EntityInput, error) {
	input.Label = sanitizeString(input.Label)
	if input.Label == "" {
		return domain.EntityInput{}, errors.New("entity label is required")
	}

	input.ID = strings.TrimSpace(input.ID)
	if input.ID == "" {
		input.ID = slugify(input.Label)
	}
	if input.ID == "" {
		return domain.EntityInput{}, errors.New("entity id could not be derived from label")
	}

	input.Type = sanitizeString(input.Type)
	input.Description = sanitizeString(input.Description)

	seen := map[string]struct{}{strings.ToLower(input.Label): {}}
	aliases := make([]string, 0, len(input.Aliases))
	for _, alias := range input.Aliases {
		alias = sanitizeString(alias)
		if alias == "" {
			continue
		}
		key := strings.ToLower(alias)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		aliases = append(aliases, alias)
	}
	input.Aliases = aliases

	return input, nil
}

// normalizeRelationship sanitizes a relationship payload. Relation names are
// lowercased with spaces collapsed to underscores so the same predicate never
// splits into multiple edge variants.
func normalizeRelationship(input domain.RelationshipInput) (domain.RelationshipInput, error) {
	input.SourceID = strings.TrimSpace(input.SourceID)
	input.TargetID = strings.TrimSpace(input.TargetID)
	if input.SourceID == "" || input.TargetID == "" {
		return domain.RelationshipInput{}, errors.New("both source and target entity IDs are required")
	}

	relation := sanitizeString(strings.ToLower(input.Relation))
	relation = strings.ReplaceAll(relation, " ", "_")
	if relation == "" {
		return domain.RelationshipInput{}, errors.New("relation type is required")
	}
	input.Relation = relation

	return input, nil
}

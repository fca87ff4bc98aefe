package llmservice

import (
	"strings"

	"docqa/internal/models"
)

// Category is the classifier's verdict on a question.
type Category string

const (
	CategoryGeneralKnowledge Category = Category(models.LabelGeneralKnowledge)
	CategoryContextSpecific  Category = Category(models.LabelContextSpecific)
)

// ParseCategory maps a free-text classifier label onto the closed category
// set. Matching is case-insensitive and tolerant of surrounding prose. An
// unrecognized label falls toward context-specific.
func ParseCategory(label string) Category {
	normalized := strings.ToLower(label)
	if strings.Contains(normalized, models.LabelGeneralKnowledge) {
		return CategoryGeneralKnowledge
	}
	return CategoryContextSpecific
}

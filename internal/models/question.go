package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is one catalog entry for a framework. Catalog rows are immutable
// once imported; the evaluation path only ever reads them.
type Question struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	Framework        string                      `gorm:"size:32;not null;index:idx_questions_framework_group" json:"framework"`
	GroupKey         string                      `gorm:"size:128;not null;index:idx_questions_framework_group" json:"group_key"`
	Category         string                      `gorm:"size:255" json:"category"`
	Subcategory      string                      `gorm:"size:255" json:"subcategory"`
	SubcategoryDescr string                      `gorm:"column:subcategory_description;type:text" json:"subcategory_description"`
	Text             string                      `gorm:"type:text;not null" json:"text"`
	Options          datatypes.JSONSlice[string] `json:"options"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// OptionLabel returns the scoring option for a mark, where mark 1 maps to the
// first option. Out-of-range marks fall back to the default label.
func (q Question) OptionLabel(mark int, fallback string) string {
	if mark < 1 || mark > len(q.Options) {
		return fallback
	}
	return q.Options[mark-1]
}

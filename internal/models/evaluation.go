package models

import "time"

// Evaluation is the header record for one attempt at a framework's
// questionnaire. AverageScore is a cached copy of the engine output and is
// refreshed on every write; reads may always recompute instead.
type Evaluation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Framework    string    `gorm:"size:32;not null;index" json:"framework"`
	OwnerID      uint      `gorm:"not null;index" json:"owner_id"`
	Status       string    `gorm:"size:16;not null;default:draft" json:"status"`
	AverageScore float64   `json:"average_score"`
	TakenAt      time.Time `gorm:"not null" json:"taken_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Answers      []Answer  `gorm:"foreignKey:EvaluationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// EvaluationStatusDraft marks an evaluation the owner is still editing.
	EvaluationStatusDraft = "draft"
	// EvaluationStatusSubmitted marks a completed evaluation.
	EvaluationStatusSubmitted = "submitted"
)

// IsSubmitted reports whether the evaluation has been finalized.
func (e Evaluation) IsSubmitted() bool {
	return e.Status == EvaluationStatusSubmitted
}

// StatusFor maps the submit flag carried by create/update payloads onto a
// stored status value.
func StatusFor(submitted bool) string {
	if submitted {
		return EvaluationStatusSubmitted
	}
	return EvaluationStatusDraft
}

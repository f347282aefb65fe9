package models

import "time"

// Answer stores the caller's current mark for one question within an
// evaluation. The composite unique index is what makes repeated submissions
// of the same question idempotent: concurrent upserts for one pair can only
// ever leave a single row behind.
type Answer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EvaluationID uint      `gorm:"not null;uniqueIndex:idx_answers_evaluation_question" json:"evaluation_id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:idx_answers_evaluation_question" json:"question_id"`
	Mark         int       `gorm:"not null" json:"mark"`
	GroupKey     string    `gorm:"size:128" json:"group_key"`
	SubmittedBy  uint      `json:"submitted_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

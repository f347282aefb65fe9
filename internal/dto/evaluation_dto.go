package dto

import (
	"time"

	"github.com/noah-isme/secura-go-api/internal/models"
	"github.com/noah-isme/secura-go-api/internal/scoring"
)

// AnswerInput is one (question, mark) pair inside a submission payload. Mark
// is a pointer so that an explicit zero survives JSON binding; the
// framework-specific upper bound is enforced by the service.
type AnswerInput struct {
	QuestionID uint `json:"question_id" validate:"required,gt=0"`
	Mark       *int `json:"mark" validate:"required,gte=0"`
}

// EvaluationSubmitRequest carries the answers for a create or update call.
// Submit=false saves a draft, Submit=true finalizes the evaluation.
type EvaluationSubmitRequest struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
	Submit  bool          `json:"submit"`
}

// EvaluationCreateResponse is returned after a new evaluation is stored.
type EvaluationCreateResponse struct {
	EvaluationID uint    `json:"evaluation_id"`
	Status       string  `json:"status"`
	AverageScore float64 `json:"average_score"`
}

// EvaluationUpdateResponse summarizes the refreshed aggregate after an update.
type EvaluationUpdateResponse struct {
	EvaluationID   uint    `json:"evaluation_id"`
	Status         string  `json:"status"`
	TotalQuestions int     `json:"total_questions"`
	TotalMarks     int     `json:"total_marks"`
	AverageScore   float64 `json:"average_score"`
}

// AnswerResponse serializes one stored answer.
type AnswerResponse struct {
	QuestionID uint   `json:"question_id"`
	Mark       int    `json:"mark"`
	GroupKey   string `json:"group_key"`
}

// EvaluationStatsResponse is the full statistics view for one evaluation.
type EvaluationStatsResponse struct {
	EvaluationID   uint             `json:"evaluation_id"`
	OwnerID        uint             `json:"owner_id"`
	Status         string           `json:"status"`
	TotalQuestions int              `json:"total_questions"`
	TotalMarks     int              `json:"total_marks"`
	Average        float64          `json:"average"`
	PerGroupCounts map[string]int64 `json:"per_group_counts"`
	AnswersGiven   []AnswerResponse `json:"answers_given"`
}

// GroupAverageResponse reports the average score for one grouping key.
type GroupAverageResponse struct {
	GroupKey     string  `json:"group_key"`
	AverageScore float64 `json:"average_score"`
}

// QuestionWithAnswerResponse pairs a catalog question with the evaluation's
// resolved answer, filling unanswered questions with the baseline.
type QuestionWithAnswerResponse struct {
	QuestionID   uint     `json:"question_id"`
	QuestionText string   `json:"question_text"`
	GroupKey     string   `json:"group_key"`
	Answer       string   `json:"answer"`
	Mark         int      `json:"mark"`
	Options      []string `json:"options"`
}

// EvaluationSummaryResponse lists an evaluation in history views.
type EvaluationSummaryResponse struct {
	EvaluationID uint      `json:"evaluation_id"`
	Status       string    `json:"status"`
	AverageScore float64   `json:"average_score"`
	TakenAt      time.Time `json:"taken_at"`
}

// DraftStatusResponse reports whether the caller has a pending draft.
type DraftStatusResponse struct {
	Status bool `json:"status"`
}

// NewGroupAverageResponses converts engine group results into DTOs.
func NewGroupAverageResponses(groups []scoring.GroupAverage) []GroupAverageResponse {
	responses := make([]GroupAverageResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, GroupAverageResponse{
			GroupKey:     group.Key,
			AverageScore: group.Average,
		})
	}

	return responses
}

// NewAnswerResponses converts answer models into DTOs.
func NewAnswerResponses(answers []models.Answer) []AnswerResponse {
	responses := make([]AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		responses = append(responses, AnswerResponse{
			QuestionID: answer.QuestionID,
			Mark:       answer.Mark,
			GroupKey:   answer.GroupKey,
		})
	}

	return responses
}

// NewEvaluationSummaryResponses converts evaluation models into history DTOs.
func NewEvaluationSummaryResponses(evaluations []models.Evaluation) []EvaluationSummaryResponse {
	responses := make([]EvaluationSummaryResponse, 0, len(evaluations))
	for _, evaluation := range evaluations {
		responses = append(responses, EvaluationSummaryResponse{
			EvaluationID: evaluation.ID,
			Status:       evaluation.Status,
			AverageScore: scoring.Round2(evaluation.AverageScore),
			TakenAt:      evaluation.TakenAt,
		})
	}

	return responses
}

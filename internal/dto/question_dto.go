package dto

import (
	"github.com/noah-isme/secura-go-api/internal/models"
)

// QuestionCreateRequest describes a single catalog question submission.
type QuestionCreateRequest struct {
	GroupKey               string   `json:"group_key" validate:"required"`
	Category               string   `json:"category"`
	Subcategory            string   `json:"subcategory"`
	SubcategoryDescription string   `json:"subcategory_description"`
	Text                   string   `json:"text" validate:"required"`
	Options                []string `json:"options" validate:"required,min=1,dive,required"`
}

// QuestionResponse serializes one catalog question.
type QuestionResponse struct {
	ID                     uint     `json:"id"`
	Framework              string   `json:"framework"`
	GroupKey               string   `json:"group_key"`
	Category               string   `json:"category"`
	Subcategory            string   `json:"subcategory"`
	SubcategoryDescription string   `json:"subcategory_description"`
	Text                   string   `json:"text"`
	Options                []string `json:"options"`
}

// QuestionListResponse wraps a catalog listing with its count.
type QuestionListResponse struct {
	Count     int                `json:"count"`
	Questions []QuestionResponse `json:"questions"`
}

// ImportResultResponse reports the outcome of a catalog import.
type ImportResultResponse struct {
	InsertedCount int `json:"inserted_count"`
}

// NewQuestionResponse converts a Question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:                     model.ID,
		Framework:              model.Framework,
		GroupKey:               model.GroupKey,
		Category:               model.Category,
		Subcategory:            model.Subcategory,
		SubcategoryDescription: model.SubcategoryDescr,
		Text:                   model.Text,
		Options:                model.Options,
	}
}

// NewQuestionListResponse converts question models into a listing DTO.
func NewQuestionListResponse(questions []models.Question) QuestionListResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuestionResponse(question))
	}

	return QuestionListResponse{Count: len(responses), Questions: responses}
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/secura-go-api/internal/models"
)

// AnswerRepository persists per-evaluation answers. Upserts are keyed on the
// (evaluation_id, question_id) unique index so replays of the same submission
// always converge on a single row per question.
type AnswerRepository interface {
	Upsert(ctx context.Context, answer *models.Answer) error
	// UpsertBatch applies every upsert inside one transaction: either all
	// answers in the batch land or none do.
	UpsertBatch(ctx context.Context, answers []models.Answer) error
	ListByEvaluation(ctx context.Context, evaluationID uint) ([]models.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

var answerConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "evaluation_id"}, {Name: "question_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"mark", "group_key", "submitted_by", "updated_at"}),
}

func (r *answerRepository) Upsert(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Clauses(answerConflict).Create(answer).Error
}

func (r *answerRepository) UpsertBatch(ctx context.Context, answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range answers {
			if err := tx.Clauses(answerConflict).Create(&answers[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *answerRepository) ListByEvaluation(ctx context.Context, evaluationID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", evaluationID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/secura-go-api/internal/models"
)

// QuestionRepository exposes read access to the framework catalogs plus the
// inserts used by catalog import. The evaluation path never mutates catalog
// rows.
type QuestionRepository interface {
	ListByFramework(ctx context.Context, framework string) ([]models.Question, error)
	ListByGroup(ctx context.Context, framework, groupKey string) ([]models.Question, error)
	CountByGroup(ctx context.Context, framework string) (map[string]int64, error)
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []models.Question) (int64, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) ListByFramework(ctx context.Context, framework string) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("framework = ?", framework).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) ListByGroup(ctx context.Context, framework, groupKey string) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("framework = ?", framework).
		Where("group_key = ?", groupKey).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) CountByGroup(ctx context.Context, framework string) (map[string]int64, error) {
	type groupCount struct {
		GroupKey string
		Count    int64
	}

	var rows []groupCount
	if err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Select("group_key, COUNT(*) AS count").
		Where("framework = ?", framework).
		Group("group_key").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupKey] = row.Count
	}

	return counts, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) CreateBatch(ctx context.Context, questions []models.Question) (int64, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Create(&questions)
	return result.RowsAffected, result.Error
}

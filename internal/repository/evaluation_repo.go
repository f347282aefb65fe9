package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/secura-go-api/internal/models"
)

// EvaluationRepository defines data operations for evaluation headers.
type EvaluationRepository interface {
	GetByID(ctx context.Context, framework string, id uint) (models.Evaluation, error)
	ListByOwner(ctx context.Context, framework string, ownerID uint) ([]models.Evaluation, error)
	HasDraft(ctx context.Context, framework string, ownerID uint) (bool, error)
	Create(ctx context.Context, evaluation *models.Evaluation) error
	Update(ctx context.Context, evaluation *models.Evaluation) error
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) GetByID(ctx context.Context, framework string, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("framework = ?", framework).
		First(&evaluation, id).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) ListByOwner(ctx context.Context, framework string, ownerID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("framework = ?", framework).
		Where("owner_id = ?", ownerID).
		Order("taken_at DESC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}

	return evaluations, nil
}

func (r *evaluationRepository) HasDraft(ctx context.Context, framework string, ownerID uint) (bool, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Select("id").
		Where("framework = ?", framework).
		Where("owner_id = ?", ownerID).
		Where("status = ?", models.EvaluationStatusDraft).
		First(&evaluation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Save(evaluation).Error
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/secura-go-api/internal/dto"
	"github.com/noah-isme/secura-go-api/internal/models"
	"github.com/noah-isme/secura-go-api/internal/repository"
	"github.com/noah-isme/secura-go-api/internal/scoring"
)

// ErrFrameworkNotFound indicates the route named an unregistered framework.
var ErrFrameworkNotFound = errors.New("framework not found")

// ErrEvaluationNotFound indicates an evaluation could not be found.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrEvaluationLocked indicates an update was attempted on a submitted
// evaluation whose framework does not allow reopening.
var ErrEvaluationLocked = errors.New("evaluation already submitted")

// ErrUnknownQuestion indicates a submitted answer referenced a question that
// is not part of the framework's catalog.
var ErrUnknownQuestion = errors.New("unknown question")

// ErrMarkOutOfRange indicates a submitted mark is outside the framework's
// scoring range.
var ErrMarkOutOfRange = errors.New("mark out of range")

// ErrUnknownGroup indicates a grouping key that does not exist in the
// catalog.
var ErrUnknownGroup = errors.New("unknown group")

// EvaluationService orchestrates the evaluation lifecycle: validated writes
// through the answer store, status transitions and aggregate refreshes.
type EvaluationService interface {
	Create(ctx context.Context, framework string, ownerID uint, payload dto.EvaluationSubmitRequest) (dto.EvaluationCreateResponse, error)
	Update(ctx context.Context, framework string, id uint, ownerID uint, payload dto.EvaluationSubmitRequest) (dto.EvaluationUpdateResponse, error)
	ListByOwner(ctx context.Context, framework string, ownerID uint) ([]dto.EvaluationSummaryResponse, error)
	HasDraft(ctx context.Context, framework string, ownerID uint) (bool, error)
	Stats(ctx context.Context, framework string, id uint) (dto.EvaluationStatsResponse, error)
	GroupAverages(ctx context.Context, framework string, id uint) ([]dto.GroupAverageResponse, error)
	QuestionsWithAnswers(ctx context.Context, framework string, id uint, groupKey string) ([]dto.QuestionWithAnswerResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	answers     repository.AnswerRepository
	questions   repository.QuestionRepository
	validator   *validator.Validate
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEvaluationService constructs an EvaluationService instance.
func NewEvaluationService(evaluationRepo repository.EvaluationRepository, answerRepo repository.AnswerRepository, questionRepo repository.QuestionRepository, validate *validator.Validate, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluations: evaluationRepo,
		answers:     answerRepo,
		questions:   questionRepo,
		validator:   validate,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		now:         time.Now,
	}
}

func (s *evaluationService) Create(ctx context.Context, framework string, ownerID uint, payload dto.EvaluationSubmitRequest) (dto.EvaluationCreateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationCreateResponse{}, err
	}

	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return dto.EvaluationCreateResponse{}, ErrFrameworkNotFound
	}

	catalog, err := s.questions.ListByFramework(ctx, descriptor.Name)
	if err != nil {
		return dto.EvaluationCreateResponse{}, err
	}

	if err := validateAnswers(descriptor, catalog, payload.Answers); err != nil {
		return dto.EvaluationCreateResponse{}, err
	}

	evaluation := models.Evaluation{
		Framework: descriptor.Name,
		OwnerID:   ownerID,
		Status:    models.StatusFor(payload.Submit),
		TakenAt:   s.now(),
	}
	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		return dto.EvaluationCreateResponse{}, err
	}

	answers := buildAnswers(evaluation.ID, ownerID, catalog, payload.Answers)
	if err := s.answers.UpsertBatch(ctx, answers); err != nil {
		return dto.EvaluationCreateResponse{}, err
	}

	aggregate := scoring.ComputeAggregate(catalog, scoring.AnswerMap(answers), descriptor.BaselineMark)
	evaluation.AverageScore = aggregate.Average
	if err := s.evaluations.Update(ctx, &evaluation); err != nil {
		return dto.EvaluationCreateResponse{}, err
	}

	s.invalidateViews(ctx, descriptor.Name, evaluation.ID)

	s.logger.Info().
		Str("framework", descriptor.Name).
		Uint("evaluation_id", evaluation.ID).
		Str("status", evaluation.Status).
		Float64("average", aggregate.Average).
		Msg("evaluation created")

	return dto.EvaluationCreateResponse{
		EvaluationID: evaluation.ID,
		Status:       evaluation.Status,
		AverageScore: aggregate.Average,
	}, nil
}

func (s *evaluationService) Update(ctx context.Context, framework string, id uint, ownerID uint, payload dto.EvaluationSubmitRequest) (dto.EvaluationUpdateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationUpdateResponse{}, err
	}

	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return dto.EvaluationUpdateResponse{}, ErrFrameworkNotFound
	}

	evaluation, err := s.evaluations.GetByID(ctx, descriptor.Name, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationUpdateResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationUpdateResponse{}, err
	}

	if evaluation.IsSubmitted() && !descriptor.AllowReopen {
		return dto.EvaluationUpdateResponse{}, ErrEvaluationLocked
	}

	catalog, err := s.questions.ListByFramework(ctx, descriptor.Name)
	if err != nil {
		return dto.EvaluationUpdateResponse{}, err
	}

	if err := validateAnswers(descriptor, catalog, payload.Answers); err != nil {
		return dto.EvaluationUpdateResponse{}, err
	}

	// Only the questions named in this call are touched; answers stored by
	// earlier partial submissions persist.
	if err := s.answers.UpsertBatch(ctx, buildAnswers(evaluation.ID, ownerID, catalog, payload.Answers)); err != nil {
		return dto.EvaluationUpdateResponse{}, err
	}

	stored, err := s.answers.ListByEvaluation(ctx, evaluation.ID)
	if err != nil {
		return dto.EvaluationUpdateResponse{}, err
	}

	aggregate := scoring.ComputeAggregate(catalog, scoring.AnswerMap(stored), descriptor.BaselineMark)
	evaluation.AverageScore = aggregate.Average
	evaluation.Status = models.StatusFor(payload.Submit)
	if err := s.evaluations.Update(ctx, &evaluation); err != nil {
		return dto.EvaluationUpdateResponse{}, err
	}

	s.invalidateViews(ctx, descriptor.Name, evaluation.ID)

	s.logger.Info().
		Str("framework", descriptor.Name).
		Uint("evaluation_id", evaluation.ID).
		Str("status", evaluation.Status).
		Float64("average", aggregate.Average).
		Msg("evaluation updated")

	return dto.EvaluationUpdateResponse{
		EvaluationID:   evaluation.ID,
		Status:         evaluation.Status,
		TotalQuestions: aggregate.TotalQuestions,
		TotalMarks:     aggregate.TotalMarks,
		AverageScore:   aggregate.Average,
	}, nil
}

func (s *evaluationService) ListByOwner(ctx context.Context, framework string, ownerID uint) ([]dto.EvaluationSummaryResponse, error) {
	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return nil, ErrFrameworkNotFound
	}

	evaluations, err := s.evaluations.ListByOwner(ctx, descriptor.Name, ownerID)
	if err != nil {
		return nil, err
	}

	return dto.NewEvaluationSummaryResponses(evaluations), nil
}

func (s *evaluationService) HasDraft(ctx context.Context, framework string, ownerID uint) (bool, error) {
	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return false, ErrFrameworkNotFound
	}

	return s.evaluations.HasDraft(ctx, descriptor.Name, ownerID)
}

func (s *evaluationService) Stats(ctx context.Context, framework string, id uint) (dto.EvaluationStatsResponse, error) {
	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return dto.EvaluationStatsResponse{}, ErrFrameworkNotFound
	}

	cacheKey := viewCacheKey(descriptor.Name, id, "stats")
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.EvaluationStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("evaluation_id", id).Msg("stats cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
	}

	evaluation, catalog, answers, err := s.loadView(ctx, descriptor.Name, id)
	if err != nil {
		return dto.EvaluationStatsResponse{}, err
	}

	aggregate := scoring.ComputeAggregate(catalog, scoring.AnswerMap(answers), descriptor.BaselineMark)

	perGroupCounts := make(map[string]int64, len(aggregate.Groups))
	for _, group := range aggregate.Groups {
		perGroupCounts[group.Key] = int64(group.Questions)
	}

	response := dto.EvaluationStatsResponse{
		EvaluationID:   evaluation.ID,
		OwnerID:        evaluation.OwnerID,
		Status:         evaluation.Status,
		TotalQuestions: aggregate.TotalQuestions,
		TotalMarks:     aggregate.TotalMarks,
		Average:        aggregate.Average,
		PerGroupCounts: perGroupCounts,
		AnswersGiven:   dto.NewAnswerResponses(answers),
	}

	s.storeView(ctx, cacheKey, response)

	return response, nil
}

func (s *evaluationService) GroupAverages(ctx context.Context, framework string, id uint) ([]dto.GroupAverageResponse, error) {
	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return nil, ErrFrameworkNotFound
	}

	_, catalog, answers, err := s.loadView(ctx, descriptor.Name, id)
	if err != nil {
		return nil, err
	}

	aggregate := scoring.ComputeAggregate(catalog, scoring.AnswerMap(answers), descriptor.BaselineMark)

	return dto.NewGroupAverageResponses(aggregate.Groups), nil
}

func (s *evaluationService) QuestionsWithAnswers(ctx context.Context, framework string, id uint, groupKey string) ([]dto.QuestionWithAnswerResponse, error) {
	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return nil, ErrFrameworkNotFound
	}

	evaluation, err := s.evaluations.GetByID(ctx, descriptor.Name, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}

	var catalog []models.Question
	if groupKey == "" {
		catalog, err = s.questions.ListByFramework(ctx, descriptor.Name)
	} else {
		catalog, err = s.questions.ListByGroup(ctx, descriptor.Name, groupKey)
		if err == nil && len(catalog) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, groupKey)
		}
	}
	if err != nil {
		return nil, err
	}

	answers, err := s.answers.ListByEvaluation(ctx, evaluation.ID)
	if err != nil {
		return nil, err
	}

	answerMap := scoring.AnswerMap(answers)
	result := make([]dto.QuestionWithAnswerResponse, 0, len(catalog))
	for _, question := range catalog {
		mark := descriptor.BaselineMark
		if answer, ok := answerMap[question.ID]; ok {
			mark = answer.Mark
		}

		result = append(result, dto.QuestionWithAnswerResponse{
			QuestionID:   question.ID,
			QuestionText: question.Text,
			GroupKey:     question.GroupKey,
			Answer:       scoring.ResolveLabel(question, mark),
			Mark:         mark,
			Options:      question.Options,
		})
	}

	return result, nil
}

func (s *evaluationService) loadView(ctx context.Context, framework string, id uint) (models.Evaluation, []models.Question, []models.Answer, error) {
	evaluation, err := s.evaluations.GetByID(ctx, framework, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Evaluation{}, nil, nil, ErrEvaluationNotFound
		}
		return models.Evaluation{}, nil, nil, err
	}

	catalog, err := s.questions.ListByFramework(ctx, framework)
	if err != nil {
		return models.Evaluation{}, nil, nil, err
	}

	answers, err := s.answers.ListByEvaluation(ctx, evaluation.ID)
	if err != nil {
		return models.Evaluation{}, nil, nil, err
	}

	return evaluation, catalog, answers, nil
}

func (s *evaluationService) storeView(ctx context.Context, key string, view interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(view)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store view cache")
	}
}

// invalidateViews drops cached read views after a write. The cache is an
// optimization only; a stale miss just triggers a recompute.
func (s *evaluationService) invalidateViews(ctx context.Context, framework string, id uint) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, viewCacheKey(framework, id, "stats")).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate view cache")
	}
}

func viewCacheKey(framework string, id uint, view string) string {
	return fmt.Sprintf("evaluation:%s:%d:%s", framework, id, view)
}

// validateAnswers checks the whole batch against the catalog before any write
// so a bad item never leaves a partial submission behind.
func validateAnswers(descriptor models.Framework, catalog []models.Question, answers []dto.AnswerInput) error {
	known := make(map[uint]struct{}, len(catalog))
	for _, question := range catalog {
		known[question.ID] = struct{}{}
	}

	for _, input := range answers {
		if _, ok := known[input.QuestionID]; !ok {
			return fmt.Errorf("%w: question %d is not part of the %s catalog", ErrUnknownQuestion, input.QuestionID, descriptor.Name)
		}
		if input.Mark == nil || !descriptor.ValidMark(*input.Mark) {
			return fmt.Errorf("%w: question %d must score between 0 and %d", ErrMarkOutOfRange, input.QuestionID, descriptor.MaxMark)
		}
	}

	return nil
}

func buildAnswers(evaluationID, ownerID uint, catalog []models.Question, inputs []dto.AnswerInput) []models.Answer {
	groupByQuestion := make(map[uint]string, len(catalog))
	for _, question := range catalog {
		groupByQuestion[question.ID] = question.GroupKey
	}

	answers := make([]models.Answer, 0, len(inputs))
	for _, input := range inputs {
		answers = append(answers, models.Answer{
			EvaluationID: evaluationID,
			QuestionID:   input.QuestionID,
			Mark:         *input.Mark,
			GroupKey:     groupByQuestion[input.QuestionID],
			SubmittedBy:  ownerID,
		})
	}

	return answers
}

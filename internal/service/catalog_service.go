package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/secura-go-api/internal/dto"
	"github.com/noah-isme/secura-go-api/internal/models"
	"github.com/noah-isme/secura-go-api/internal/repository"
)

// ErrMissingColumn indicates a required header is absent from an import file.
var ErrMissingColumn = errors.New("missing required column")

// ErrEmptyImport indicates the uploaded file contained no question rows.
var ErrEmptyImport = errors.New("import file has no rows")

// ErrUnsupportedImportFile indicates the upload is not a CSV document.
var ErrUnsupportedImportFile = errors.New("unsupported import file type")

// CatalogService manages framework question catalogs: listing, single
// creation and bulk CSV import.
type CatalogService interface {
	List(ctx context.Context, framework, groupKey string) (dto.QuestionListResponse, error)
	Create(ctx context.Context, framework string, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	Import(ctx context.Context, framework string, file *multipart.FileHeader) (dto.ImportResultResponse, error)
}

type catalogService struct {
	questions repository.QuestionRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCatalogService constructs a CatalogService instance.
func NewCatalogService(questionRepo repository.QuestionRepository, validate *validator.Validate, logger zerolog.Logger) CatalogService {
	return &catalogService{
		questions: questionRepo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) List(ctx context.Context, framework, groupKey string) (dto.QuestionListResponse, error) {
	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return dto.QuestionListResponse{}, ErrFrameworkNotFound
	}

	var (
		questions []models.Question
		err       error
	)
	if groupKey == "" {
		questions, err = s.questions.ListByFramework(ctx, descriptor.Name)
	} else {
		questions, err = s.questions.ListByGroup(ctx, descriptor.Name, groupKey)
	}
	if err != nil {
		return dto.QuestionListResponse{}, err
	}

	return dto.NewQuestionListResponse(questions), nil
}

func (s *catalogService) Create(ctx context.Context, framework string, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return dto.QuestionResponse{}, ErrFrameworkNotFound
	}

	question := models.Question{
		Framework:        descriptor.Name,
		GroupKey:         strings.TrimSpace(payload.GroupKey),
		Category:         strings.TrimSpace(payload.Category),
		Subcategory:      strings.TrimSpace(payload.Subcategory),
		SubcategoryDescr: strings.TrimSpace(payload.SubcategoryDescription),
		Text:             s.sanitizer.Sanitize(strings.TrimSpace(payload.Text)),
		Options:          datatypes.NewJSONSlice(payload.Options),
	}

	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	s.logger.Info().
		Str("framework", descriptor.Name).
		Uint("question_id", question.ID).
		Msg("question created")

	return dto.NewQuestionResponse(question), nil
}

func (s *catalogService) Import(ctx context.Context, framework string, file *multipart.FileHeader) (dto.ImportResultResponse, error) {
	descriptor, ok := models.FrameworkByName(framework)
	if !ok {
		return dto.ImportResultResponse{}, ErrFrameworkNotFound
	}

	if file == nil {
		return dto.ImportResultResponse{}, fmt.Errorf("import file is required")
	}

	if err := validateImportFileType(file); err != nil {
		return dto.ImportResultResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.ImportResultResponse{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer reader.Close()

	questions, err := parseCatalogCSV(descriptor, csv.NewReader(reader), s.sanitizer)
	if err != nil {
		return dto.ImportResultResponse{}, err
	}

	inserted, err := s.questions.CreateBatch(ctx, questions)
	if err != nil {
		return dto.ImportResultResponse{}, err
	}

	s.logger.Info().
		Str("framework", descriptor.Name).
		Int64("inserted", inserted).
		Msg("catalog imported")

	return dto.ImportResultResponse{InsertedCount: int(inserted)}, nil
}

// importColumns is the explicit header-to-field mapping for catalog imports.
// Headers are matched case-insensitively after trimming; option columns are
// any headers beginning with "option", kept in sheet order.
type importColumns struct {
	group       int
	category    int
	subcategory int
	subDescr    int
	question    int
	options     []int
}

func mapImportColumns(descriptor models.Framework, header []string) (importColumns, error) {
	columns := importColumns{group: -1, category: -1, subcategory: -1, subDescr: -1, question: -1}

	for idx, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case descriptor.GroupingKey:
			columns.group = idx
		case "category":
			columns.category = idx
		case "subcategory":
			columns.subcategory = idx
		case "subcategory description":
			columns.subDescr = idx
		case "question":
			columns.question = idx
		default:
			if strings.HasPrefix(name, "option") {
				columns.options = append(columns.options, idx)
			}
		}
	}

	if columns.group == -1 {
		return importColumns{}, fmt.Errorf("%w: %s", ErrMissingColumn, descriptor.GroupingKey)
	}
	if columns.question == -1 {
		return importColumns{}, fmt.Errorf("%w: question", ErrMissingColumn)
	}
	if len(columns.options) == 0 {
		return importColumns{}, fmt.Errorf("%w: at least one option column", ErrMissingColumn)
	}

	return columns, nil
}

// groupingContext carries the last seen grouping cells across rows, giving
// merged-cell spreadsheets their intended values when cells arrive blank.
type groupingContext struct {
	group       string
	category    string
	subcategory string
	subDescr    string
}

func (g *groupingContext) apply(row []string, columns importColumns) {
	if value := cell(row, columns.group); value != "" {
		g.group = value
	}
	if value := cell(row, columns.category); value != "" {
		g.category = value
	}
	if value := cell(row, columns.subcategory); value != "" {
		g.subcategory = value
	}
	if value := cell(row, columns.subDescr); value != "" {
		g.subDescr = value
	}
}

func parseCatalogCSV(descriptor models.Framework, reader *csv.Reader, sanitizer *bluemonday.Policy) ([]models.Question, error) {
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	if len(records) < 2 {
		return nil, ErrEmptyImport
	}

	columns, err := mapImportColumns(descriptor, records[0])
	if err != nil {
		return nil, err
	}

	var context groupingContext
	questions := make([]models.Question, 0, len(records)-1)

	for rowIdx, row := range records[1:] {
		context.apply(row, columns)

		text := cell(row, columns.question)
		if text == "" {
			continue
		}

		if context.group == "" {
			return nil, fmt.Errorf("row %d: no %s value carried or present", rowIdx+2, descriptor.GroupingKey)
		}

		options := make([]string, 0, len(columns.options))
		for _, optionIdx := range columns.options {
			if value := cell(row, optionIdx); value != "" {
				options = append(options, value)
			}
		}
		if len(options) == 0 {
			return nil, fmt.Errorf("row %d: at least one option is required", rowIdx+2)
		}

		questions = append(questions, models.Question{
			Framework:        descriptor.Name,
			GroupKey:         context.group,
			Category:         context.category,
			Subcategory:      context.subcategory,
			SubcategoryDescr: context.subDescr,
			Text:             sanitizer.Sanitize(text),
			Options:          datatypes.NewJSONSlice(options),
		})
	}

	if len(questions) == 0 {
		return nil, ErrEmptyImport
	}

	return questions, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func validateImportFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect import file type: %w", err)
	}

	allowed := []string{"text/csv", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedImportFile, mime.String())
}

package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/secura-go-api/internal/dto"
	"github.com/noah-isme/secura-go-api/internal/service"
	"github.com/noah-isme/secura-go-api/internal/utils"
)

// QuestionHandler manages catalog endpoints for every framework.
type QuestionHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewQuestionHandler builds a question handler instance.
func NewQuestionHandler(service service.CatalogService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		logger:  logger.With().Str("component", "question_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Catalog writes
// sit behind the supplied admin guard.
func (h *QuestionHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Post("", adminOnly, h.create)
	router.Post("/import", adminOnly, h.importCatalog)
}

func (h *QuestionHandler) list(c *fiber.Ctx) error {
	questions, err := h.service.List(c.Context(), c.Params("framework"), c.Query("group"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *QuestionHandler) create(c *fiber.Ctx) error {
	var payload dto.QuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	question, err := h.service.Create(c.Context(), c.Params("framework"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "question created", question)
}

func (h *QuestionHandler) importCatalog(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Import(c.Context(), c.Params("framework"), file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions imported", result)
}

func (h *QuestionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrFrameworkNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "framework not found")
	case errors.Is(err, service.ErrMissingColumn),
		errors.Is(err, service.ErrEmptyImport),
		errors.Is(err, service.ErrUnsupportedImportFile):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

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

// EvaluationHandler manages evaluation endpoints for every framework.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler builds an evaluation handler instance.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The group is
// expected to carry a :framework parameter.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/draft", h.hasDraft)
	router.Patch("/:id", h.update)
	router.Get("/:id/stats", h.stats)
	router.Get("/:id/group-averages", h.groupAverages)
	router.Get("/:id/questions", h.questionsWithAnswers)
	router.Get("/:id/groups/:group/questions", h.questionsByGroup)
}

func (h *EvaluationHandler) create(c *fiber.Ctx) error {
	ownerID := userIDFromContext(c)
	if ownerID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user identity missing")
	}

	var payload dto.EvaluationSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.Context(), c.Params("framework"), ownerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation saved", result)
}

func (h *EvaluationHandler) update(c *fiber.Ctx) error {
	ownerID := userIDFromContext(c)
	if ownerID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user identity missing")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EvaluationSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Update(c.Context(), c.Params("framework"), id, ownerID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation updated", result)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	ownerID := userIDFromContext(c)
	if ownerID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user identity missing")
	}

	evaluations, err := h.service.ListByOwner(c.Context(), c.Params("framework"), ownerID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluations retrieved", evaluations)
}

func (h *EvaluationHandler) hasDraft(c *fiber.Ctx) error {
	ownerID := userIDFromContext(c)
	if ownerID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user identity missing")
	}

	exists, err := h.service.HasDraft(c.Context(), c.Params("framework"), ownerID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft status retrieved", dto.DraftStatusResponse{Status: exists})
}

func (h *EvaluationHandler) stats(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.service.Stats(c.Context(), c.Params("framework"), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation stats retrieved", stats)
}

func (h *EvaluationHandler) groupAverages(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	averages, err := h.service.GroupAverages(c.Context(), c.Params("framework"), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "group averages retrieved", averages)
}

func (h *EvaluationHandler) questionsWithAnswers(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	questions, err := h.service.QuestionsWithAnswers(c.Context(), c.Params("framework"), id, "")
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *EvaluationHandler) questionsByGroup(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	group := c.Params("group")
	questions, err := h.service.QuestionsWithAnswers(c.Context(), c.Params("framework"), id, group)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "questions retrieved", questions)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrFrameworkNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "framework not found")
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrEvaluationLocked):
		return utils.SendError(c, fiber.StatusConflict, "evaluation already submitted")
	case errors.Is(err, service.ErrUnknownQuestion),
		errors.Is(err, service.ErrMarkOutOfRange),
		errors.Is(err, service.ErrUnknownGroup):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

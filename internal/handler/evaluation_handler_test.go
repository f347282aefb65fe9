package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/secura-go-api/internal/config"
	"github.com/noah-isme/secura-go-api/internal/dto"
	"github.com/noah-isme/secura-go-api/internal/handler"
	"github.com/noah-isme/secura-go-api/internal/models"
	"github.com/noah-isme/secura-go-api/internal/repository"
	"github.com/noah-isme/secura-go-api/internal/router"
	"github.com/noah-isme/secura-go-api/internal/service"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupTestApp(t *testing.T, auth fiber.Handler) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Question{}, &models.Evaluation{}, &models.Answer{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM answers")
		db.Exec("DELETE FROM evaluations")
		db.Exec("DELETE FROM questions")
	})

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)

	evaluationService := service.NewEvaluationService(evaluationRepo, answerRepo, questionRepo, validate, nil, 0, logger)
	catalogService := service.NewCatalogService(questionRepo, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "secura-test"}, router.Dependencies{
		EvaluationHandler: handler.NewEvaluationHandler(evaluationService, logger),
		QuestionHandler:   handler.NewQuestionHandler(catalogService, logger),
		JWTMiddleware:     auth,
	})

	return app, db
}

func authAs(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	}
}

func seedNistCatalog(t *testing.T, db *gorm.DB) []models.Question {
	t.Helper()
	options := datatypes.NewJSONSlice([]string{"Never", "Rarely", "Sometimes", "Often", "Always"})
	questions := []models.Question{
		{Framework: models.FrameworkNist, GroupKey: "Identify", Text: "Are devices inventoried?", Options: options},
		{Framework: models.FrameworkNist, GroupKey: "Identify", Text: "Are software platforms inventoried?", Options: options},
		{Framework: models.FrameworkNist, GroupKey: "Protect", Text: "Are identities managed?", Options: options},
	}
	require.NoError(t, db.Create(&questions).Error)
	return questions
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, apiEnvelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var envelope apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, resp.Body.Close())
	return resp, envelope
}

func decodeData(t *testing.T, envelope apiEnvelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func TestEvaluationLifecycleOverHTTP(t *testing.T) {
	app, db := setupTestApp(t, authAs(7, "user"))
	questions := seedNistCatalog(t, db)

	// A partial draft: one question answered, two fall back to the baseline.
	resp, envelope := doRequest(t, app, jsonRequest(t, fiber.MethodPost,
		"/api/v1/frameworks/nist/evaluations",
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: questions[0].ID, Mark: intPtr(5)},
		}}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	var created dto.EvaluationCreateResponse
	decodeData(t, envelope, &created)
	require.Equal(t, models.EvaluationStatusDraft, created.Status)
	require.Equal(t, 2.33, created.AverageScore)

	// The pending draft shows up on the draft probe.
	resp, envelope = doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		"/api/v1/frameworks/nist/evaluations/draft", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var draft dto.DraftStatusResponse
	decodeData(t, envelope, &draft)
	require.True(t, draft.Status)

	// Completing the remaining answers and submitting locks in the final score.
	resp, envelope = doRequest(t, app, jsonRequest(t, fiber.MethodPatch,
		fmt.Sprintf("/api/v1/frameworks/nist/evaluations/%d", created.EvaluationID),
		dto.EvaluationSubmitRequest{
			Answers: []dto.AnswerInput{
				{QuestionID: questions[1].ID, Mark: intPtr(3)},
				{QuestionID: questions[2].ID, Mark: intPtr(5)},
			},
			Submit: true,
		}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated dto.EvaluationUpdateResponse
	decodeData(t, envelope, &updated)
	require.Equal(t, models.EvaluationStatusSubmitted, updated.Status)
	require.Equal(t, 3, updated.TotalQuestions)
	require.Equal(t, 13, updated.TotalMarks)
	require.Equal(t, 4.33, updated.AverageScore)

	// Further edits are rejected once submitted.
	resp, _ = doRequest(t, app, jsonRequest(t, fiber.MethodPatch,
		fmt.Sprintf("/api/v1/frameworks/nist/evaluations/%d", created.EvaluationID),
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: questions[0].ID, Mark: intPtr(1)},
		}}))
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, envelope = doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		fmt.Sprintf("/api/v1/frameworks/nist/evaluations/%d/stats", created.EvaluationID), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stats dto.EvaluationStatsResponse
	decodeData(t, envelope, &stats)
	require.Equal(t, 3, stats.TotalQuestions)
	require.Equal(t, 13, stats.TotalMarks)
	require.Equal(t, 4.33, stats.Average)
	require.Equal(t, map[string]int64{"Identify": 2, "Protect": 1}, stats.PerGroupCounts)

	resp, envelope = doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		fmt.Sprintf("/api/v1/frameworks/nist/evaluations/%d/group-averages", created.EvaluationID), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var averages []dto.GroupAverageResponse
	decodeData(t, envelope, &averages)
	require.Equal(t, []dto.GroupAverageResponse{
		{GroupKey: "Identify", AverageScore: 4.00},
		{GroupKey: "Protect", AverageScore: 5.00},
	}, averages)

	// The submitted evaluation appears in the owner's history.
	resp, envelope = doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		"/api/v1/frameworks/nist/evaluations", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var history []dto.EvaluationSummaryResponse
	decodeData(t, envelope, &history)
	require.Len(t, history, 1)
	require.Equal(t, 4.33, history[0].AverageScore)
}

func TestEvaluationQuestionsWithAnswersOverHTTP(t *testing.T) {
	app, db := setupTestApp(t, authAs(7, "user"))
	questions := seedNistCatalog(t, db)

	_, envelope := doRequest(t, app, jsonRequest(t, fiber.MethodPost,
		"/api/v1/frameworks/nist/evaluations",
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: questions[0].ID, Mark: intPtr(4)},
		}}))

	var created dto.EvaluationCreateResponse
	decodeData(t, envelope, &created)

	resp, envelope := doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		fmt.Sprintf("/api/v1/frameworks/nist/evaluations/%d/questions", created.EvaluationID), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var all []dto.QuestionWithAnswerResponse
	decodeData(t, envelope, &all)
	require.Len(t, all, 3)
	require.Equal(t, "Often", all[0].Answer)
	require.Equal(t, 4, all[0].Mark)
	require.Equal(t, "Never", all[1].Answer)
	require.Equal(t, 1, all[1].Mark)

	resp, envelope = doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		fmt.Sprintf("/api/v1/frameworks/nist/evaluations/%d/groups/Protect/questions", created.EvaluationID), nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var grouped []dto.QuestionWithAnswerResponse
	decodeData(t, envelope, &grouped)
	require.Len(t, grouped, 1)
	require.Equal(t, "Protect", grouped[0].GroupKey)

	resp, _ = doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		fmt.Sprintf("/api/v1/frameworks/nist/evaluations/%d/groups/Respond/questions", created.EvaluationID), nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEvaluationEndpointsErrorMapping(t *testing.T) {
	app, db := setupTestApp(t, authAs(7, "user"))
	questions := seedNistCatalog(t, db)

	// Unregistered framework names map to 404.
	resp, _ := doRequest(t, app, jsonRequest(t, fiber.MethodPost,
		"/api/v1/frameworks/iso27001/evaluations",
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: questions[0].ID, Mark: intPtr(1)},
		}}))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Questions outside the catalog are rejected before anything is stored.
	resp, envelope := doRequest(t, app, jsonRequest(t, fiber.MethodPost,
		"/api/v1/frameworks/nist/evaluations",
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: 9999, Mark: intPtr(1)},
		}}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, envelope.Success)

	var count int64
	require.NoError(t, db.Model(&models.Evaluation{}).Count(&count).Error)
	require.Zero(t, count)

	// Marks above the framework ceiling map to 400.
	resp, _ = doRequest(t, app, jsonRequest(t, fiber.MethodPost,
		"/api/v1/frameworks/nist/evaluations",
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: questions[0].ID, Mark: intPtr(6)},
		}}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// An empty answer list fails request validation.
	resp, _ = doRequest(t, app, jsonRequest(t, fiber.MethodPost,
		"/api/v1/frameworks/nist/evaluations",
		dto.EvaluationSubmitRequest{}))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Updates against a missing evaluation map to 404.
	resp, _ = doRequest(t, app, jsonRequest(t, fiber.MethodPatch,
		"/api/v1/frameworks/nist/evaluations/424242",
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: questions[0].ID, Mark: intPtr(1)},
		}}))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		"/api/v1/frameworks/nist/evaluations/not-a-number/stats", nil))
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEvaluationEndpointsRequireIdentity(t *testing.T) {
	app, db := setupTestApp(t, nil)
	seedNistCatalog(t, db)

	resp, _ := doRequest(t, app, jsonRequest(t, fiber.MethodGet,
		"/api/v1/frameworks/nist/evaluations", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, app, jsonRequest(t, fiber.MethodPost,
		"/api/v1/frameworks/nist/evaluations",
		dto.EvaluationSubmitRequest{Answers: []dto.AnswerInput{
			{QuestionID: 1, Mark: intPtr(1)},
		}}))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func intPtr(value int) *int {
	return &value
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/secura-go-api/internal/config"
	"github.com/noah-isme/secura-go-api/internal/handler"
	"github.com/noah-isme/secura-go-api/internal/middleware"
	"github.com/noah-isme/secura-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
	QuestionHandler   *handler.QuestionHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Every framework
// shares one handler set; the :framework parameter selects the catalog and
// scoring rules.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	frameworks := api.Group("/frameworks/:framework", jwtMiddleware)

	if deps.EvaluationHandler != nil {
		evaluations := frameworks.Group("/evaluations",
			middleware.RateLimit("evaluations", 30, time.Minute))
		deps.EvaluationHandler.Register(evaluations)
	}

	if deps.QuestionHandler != nil {
		questions := frameworks.Group("/questions")
		deps.QuestionHandler.Register(questions, middleware.RequireRole("admin"))
	}
}

// Package main provides the Debugattor API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gustavoteixeirah/debugattor/pkg/eventbus"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
	"github.com/gustavoteixeirah/debugattor/pkg/services"
	"github.com/gustavoteixeirah/debugattor/pkg/sse"
	"github.com/gustavoteixeirah/debugattor/pkg/storage"
	"github.com/gustavoteixeirah/debugattor/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	blobs       storage.BlobStore
	eventBus    eventbus.EventBus
	broker      *sse.Broker
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	blobs storage.BlobStore,
	eventBus eventbus.EventBus,
	heartbeatInterval time.Duration,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		blobs:       blobs,
		eventBus:    eventBus,
		broker:      sse.NewBroker(logger, heartbeatInterval),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// App assembles the fiber application and wires the event bus into the SSE
// broker. Subscribe must happen before Listen so no event published during
// startup is lost.
func (a *API) App(ctx context.Context) (*fiber.App, error) {
	executionService := services.NewExecution(a.persistence, a.blobs, a.logger)
	stepService := services.NewStep(a.persistence, a.eventBus, a.logger)
	artifactService := services.NewArtifact(a.persistence, a.blobs, a.eventBus, a.logger)

	handlers := web.NewAPIHandlers(executionService, stepService, artifactService, a.blobs, a.validate)
	sseHandlers := web.NewSSEHandlers(a.broker, a.logger)

	err := sse.RegisterHandlers(a.eventBus, a.broker)
	if err != nil {
		return nil, err
	}

	err = a.eventBus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Debugattor API")
	})

	api := app.Group("/api")

	e := api.Group("/executions")
	e.Post("/", handlers.StartExecution)
	e.Get("/", handlers.ListExecutions)
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/complete", handlers.CompleteExecution)
	e.Post("/:id/fail", handlers.FailExecution)
	e.Delete("/:id", handlers.DeleteExecution)

	e.Post("/:id/steps", handlers.RegisterStep)
	e.Post("/:id/steps/:stepId/complete", handlers.CompleteStep)
	e.Post("/:id/steps/:stepId/fail", handlers.FailStep)
	e.Post("/:id/steps/:stepId/artifacts", handlers.LogArtifact)
	e.Post("/:id/steps/:stepId/artifacts/upload", handlers.UploadArtifact)

	api.Get("/events/steps", sseHandlers.StreamSteps)
	api.Get("/events/artifacts", sseHandlers.StreamArtifacts)
	api.Get("/files/:objectName", handlers.DownloadFile)

	app.Get("/health", handlers.HealthCheck)

	return app, nil
}

func (a *API) Start(ctx context.Context, port int) error {
	app, err := a.App(ctx)
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}

// Close stops the SSE broker, dropping every connected subscriber.
func (a *API) Close() {
	a.broker.Close()
}

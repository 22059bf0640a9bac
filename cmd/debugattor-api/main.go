package main

import (
	"context"
	"os"
	"time"

	"github.com/gustavoteixeirah/debugattor/pkg/cmd"
	"github.com/gustavoteixeirah/debugattor/pkg/log"
	"github.com/gustavoteixeirah/debugattor/pkg/otelhelper"
	"github.com/gustavoteixeirah/debugattor/pkg/storage"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "debugattor-api",
		Usage:                 "Track executions, steps and artifacts with live SSE feeds",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "minio-endpoint",
				Usage:   "MinIO endpoint host:port",
				Value:   "localhost:9000",
				Sources: cli.EnvVars("MINIO_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "minio-access-key",
				Usage:   "MinIO access key",
				Sources: cli.EnvVars("MINIO_ACCESS_KEY"),
			},
			&cli.StringFlag{
				Name:    "minio-secret-key",
				Usage:   "MinIO secret key",
				Sources: cli.EnvVars("MINIO_SECRET_KEY"),
			},
			&cli.StringFlag{
				Name:    "minio-bucket",
				Usage:   "Bucket holding uploaded artifact files",
				Value:   "debugattor",
				Sources: cli.EnvVars("MINIO_BUCKET"),
			},
			&cli.StringFlag{
				Name:    "minio-public-url",
				Usage:   "Base URL clients use to fetch stored objects",
				Sources: cli.EnvVars("MINIO_PUBLIC_URL"),
			},
			&cli.BoolFlag{
				Name:    "minio-use-ssl",
				Usage:   "Use TLS when talking to MinIO",
				Sources: cli.EnvVars("MINIO_USE_SSL"),
			},
			&cli.DurationFlag{
				Name:    "heartbeat-interval",
				Usage:   "Interval between SSE heartbeat frames",
				Value:   15 * time.Second,
				Sources: cli.EnvVars("SSE_HEARTBEAT_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Debugattor API")

			if command.Bool("tracing") {
				_, err := otelhelper.NewTracer(ctx, "debugattor-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)
				}
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			blobs := cmd.NewBlobStore(ctx, logger, storage.Config{
				Endpoint:  command.String("minio-endpoint"),
				AccessKey: command.String("minio-access-key"),
				SecretKey: command.String("minio-secret-key"),
				Bucket:    command.String("minio-bucket"),
				PublicURL: command.String("minio-public-url"),
				UseSSL:    command.Bool("minio-use-ssl"),
			})

			api := NewAPI(
				logger,
				persistence,
				blobs,
				eventBus,
				command.Duration("heartbeat-interval"),
			)
			defer api.Close()

			err := api.Start(ctx, command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "API server stopped with error", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

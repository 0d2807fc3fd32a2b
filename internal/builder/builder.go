// Package builder wires configuration, storage, integrations, use cases
// and the HTTP surface into a runnable App.
package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/geoscribe/report-backend/internal/api"
	conversationapi "github.com/geoscribe/report-backend/internal/api/conversation"
	documentapi "github.com/geoscribe/report-backend/internal/api/document"
	"github.com/geoscribe/report-backend/internal/config"
	"github.com/geoscribe/report-backend/internal/integration/assistant"
	"github.com/geoscribe/report-backend/internal/pkg/validator"
	"github.com/geoscribe/report-backend/internal/renderqueue"
	"github.com/geoscribe/report-backend/internal/repository"
	"github.com/geoscribe/report-backend/internal/runner"
	"github.com/geoscribe/report-backend/internal/usecase/conversation"
	"github.com/geoscribe/report-backend/internal/usecase/document"
	"github.com/geoscribe/report-backend/internal/usecase/sections"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AssistantChannel is the full assistant connector surface the app
// depends on, satisfied by both the real and the mock connector.
type AssistantChannel interface {
	conversation.ThreadConnector
	runner.ChannelConnector
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	documentRepo := repository.NewDocumentPostgres(db)
	projectRepo := repository.NewProjectPostgres(db)
	sectionRepo := repository.NewSectionDataPostgres(db)
	approvedRepo := repository.NewApprovedPostgres(db)
	activeRepo := repository.NewActiveSubsectionPostgres(db)
	chatRepo := repository.NewChatMessagePostgres(db)
	fileRepo := repository.NewDocumentFilePostgres(db)
	coverRepo := repository.NewCoverPagePostgres(db)
	logger.Info("Repositories initialized")

	// Initialize assistant connector (with mock support)
	var channel AssistantChannel
	if cfg.EnableMocks {
		logger.Info("Using mock assistant connector")
		channel = assistant.NewMockConnector(logger)
	} else {
		logger.Info("Using real assistant connector")
		channel = assistant.NewConnector(cfg.AssistantCfg, logger)
	}

	// Run coordination
	coordinator := runner.NewCoordinator(channel, cfg.AssistantCfg.PollInterval, logger)

	// Initialize validators
	v := validator.NewValidator(cfg.FileUploadCfg)

	// Initialize use cases
	drafts := sections.NewDraftStore(sectionRepo, logger)
	approvals := sections.NewApprovalStore(drafts, approvedRepo, cfg.Taxonomy, logger)

	conversationUC := conversation.NewUsecase(
		documentRepo,
		activeRepo,
		chatRepo,
		drafts,
		channel,
		coordinator,
		cfg.Taxonomy,
		cfg.AssistantCfg.AssistantID,
		logger,
	)

	// The render queue is constructed in two steps: the document usecase
	// publishes into it, and the queue assembles through the usecase.
	var queue *renderqueue.Queue
	notifier := renderNotifierFunc(func(ctx context.Context, documentID string) error {
		return queue.NotifyRender(ctx, documentID)
	})

	documentUC := document.NewUsecase(
		projectRepo,
		documentRepo,
		fileRepo,
		chatRepo,
		sectionRepo,
		coverRepo,
		drafts,
		approvals,
		cfg.Taxonomy,
		v,
		notifier,
		logger,
	)

	queue = renderqueue.NewQueue(documentRepo, documentUC, logger)
	if err := queue.Start(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("start render queue: %w", err)
	}
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(documentUC, cfg.FileUploadCfg, v)
	conversationHandler := conversationapi.NewHandler(conversationUC, v)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(documentHandler, conversationHandler, cfg.RateLimitCfg, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		queue:  queue,
		logger: logger,
	}, nil
}

// BuildCleanup builds the pared-down dependency set for the stuck-run
// cleanup command: config, logger, connector and coordinator only.
func BuildCleanup() (*runner.Coordinator, *config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	var channel AssistantChannel
	if cfg.EnableMocks {
		channel = assistant.NewMockConnector(logger)
	} else {
		channel = assistant.NewConnector(cfg.AssistantCfg, logger)
	}

	return runner.NewCoordinator(channel, cfg.AssistantCfg.PollInterval, logger), cfg, logger, nil
}

type renderNotifierFunc func(ctx context.Context, documentID string) error

func (f renderNotifierFunc) NotifyRender(ctx context.Context, documentID string) error {
	return f(ctx, documentID)
}

func setupLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

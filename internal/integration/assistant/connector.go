package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/geoscribe/report-backend/internal/config"
	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/integration/common"
	pkghttp "github.com/geoscribe/report-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector is the client for the remote assistant channel: isolated
// conversation threads, messages posted to them and generation runs.
type Connector struct {
	config    config.AssistantConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.AssistantConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type createThreadResponse struct {
	ID string `json:"id"`
}

type postMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createRunRequest struct {
	AssistantID string `json:"assistant_id"`
}

type listMessagesResponse struct {
	Messages []entity.AssistantMessage `json:"messages"`
}

type listOutstandingRunsResponse struct {
	Runs []entity.OutstandingRun `json:"runs"`
}

// CreateThread creates a new isolated conversation thread.
func (c *Connector) CreateThread(ctx context.Context) (string, error) {
	var resp createThreadResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ThreadsEndpoint, struct{}{}, &resp)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	if resp.ID == "" {
		return "", fmt.Errorf("create thread: empty thread id in response")
	}

	ctxzap.Info(ctx, "assistant thread created", zap.String("thread_id", resp.ID))

	return resp.ID, nil
}

// PostMessage appends a message to a thread.
func (c *Connector) PostMessage(ctx context.Context, threadID string, role entity.MessageRole, text string) error {
	endpoint := fmt.Sprintf(c.config.MessagesEndpoint, url.PathEscape(threadID))

	req := postMessageRequest{
		Role:    string(role),
		Content: text,
	}

	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	return nil
}

// CreateRun starts a new generation run on a thread.
func (c *Connector) CreateRun(ctx context.Context, threadID, assistantID string) (*entity.Run, error) {
	endpoint := fmt.Sprintf(c.config.RunsEndpoint, url.PathEscape(threadID))

	var run entity.Run
	err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, createRunRequest{AssistantID: assistantID}, &run)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	ctxzap.Info(ctx, "assistant run started",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
	)

	return &run, nil
}

// GetRun retrieves the current state of a run. Polled with short
// intervals by the run coordinator, so transient failures are retried.
func (c *Connector) GetRun(ctx context.Context, threadID, runID string) (*entity.Run, error) {
	endpoint := fmt.Sprintf(c.config.RunEndpoint, url.PathEscape(threadID), url.PathEscape(runID))

	var run entity.Run
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &run)
	}, c.retryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	return &run, nil
}

// ListRunMessages returns the most recent messages produced by a run,
// newest first.
func (c *Connector) ListRunMessages(ctx context.Context, threadID, runID string, limit int) ([]entity.AssistantMessage, error) {
	endpoint := fmt.Sprintf(c.config.MessagesEndpoint, url.PathEscape(threadID))

	query := url.Values{}
	query.Set("run_id", runID)
	query.Set("limit", fmt.Sprintf("%d", limit))
	endpoint = endpoint + "?" + query.Encode()

	var resp listMessagesResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &resp)
	}, c.retryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("list run messages: %w", err)
	}

	return resp.Messages, nil
}

// CancelRun asks the channel to cancel an outstanding run.
func (c *Connector) CancelRun(ctx context.Context, threadID, runID string) error {
	endpoint := fmt.Sprintf(c.config.CancelEndpoint, url.PathEscape(threadID), url.PathEscape(runID))

	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, struct{}{}, nil); err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}

	ctxzap.Info(ctx, "assistant run cancelled",
		zap.String("thread_id", threadID),
		zap.String("run_id", runID),
	)

	return nil
}

// ListOutstandingRuns returns every run the channel still reports as not
// finished, with its start time. Ages are computed against the local
// clock.
func (c *Connector) ListOutstandingRuns(ctx context.Context) ([]entity.OutstandingRun, error) {
	var resp listOutstandingRunsResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodGet, c.config.RunsListEndpoint, nil, &resp)
	}, c.retryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("list outstanding runs: %w", err)
	}

	now := time.Now()
	for i := range resp.Runs {
		resp.Runs[i].Age = now.Sub(resp.Runs[i].StartedAt)
	}

	return resp.Runs, nil
}

func (c *Connector) retryOptions(ctx context.Context) []retry.Option {
	opts := c.config.Retry.ToRetryOptions()
	return append(opts,
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

// Package runner owns the lifecycle of remote generation runs. Its one
// hard invariant: at most one outstanding run per thread. A caller that
// finds a run already in flight attaches to it instead of starting a
// competing one, so double-submits never trigger duplicate generations.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/protocol"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// recentMessagesLimit bounds how many messages are fetched after a run;
// only the newest assistant-authored one is used.
const recentMessagesLimit = 5

// ChannelConnector is the subset of the assistant channel the
// coordinator needs.
type ChannelConnector interface {
	CreateRun(ctx context.Context, threadID, assistantID string) (*entity.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*entity.Run, error)
	ListRunMessages(ctx context.Context, threadID, runID string, limit int) ([]entity.AssistantMessage, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	ListOutstandingRuns(ctx context.Context) ([]entity.OutstandingRun, error)
}

type runResult struct {
	data    map[string]any
	message string
	err     error
}

// activeRun is the in-memory bookkeeping entry for one in-flight run.
// done is closed exactly once, after result is set.
type activeRun struct {
	done   chan struct{}
	result runResult
}

// Coordinator tracks in-flight runs per thread and turns completed runs
// into parsed (data, message) pairs.
type Coordinator struct {
	connector    ChannelConnector
	pollInterval time.Duration
	logger       *zap.Logger

	mu     sync.Mutex
	active map[string]*activeRun
}

func NewCoordinator(connector ChannelConnector, pollInterval time.Duration, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		connector:    connector,
		pollInterval: pollInterval,
		logger:       logger,
		active:       make(map[string]*activeRun),
	}
}

// RunAndParse starts a run on the thread, or attaches to the run already
// in flight for it, waits for completion and returns the parsed reply.
// Service failures are reported as entity.ErrGenerationFailed; a reply
// that merely violates the format contract is not an error.
func (c *Coordinator) RunAndParse(ctx context.Context, threadID, assistantID string) (map[string]any, string, error) {
	c.mu.Lock()
	if ar, ok := c.active[threadID]; ok {
		c.mu.Unlock()

		ctxzap.Info(ctx, "attaching to in-flight run", zap.String("thread_id", threadID))

		select {
		case <-ar.done:
			return ar.result.data, ar.result.message, ar.result.err
		case <-ctx.Done():
			return nil, "", fmt.Errorf("%w: %v", entity.ErrGenerationFailed, ctx.Err())
		}
	}

	ar := &activeRun{done: make(chan struct{})}
	c.active[threadID] = ar
	c.mu.Unlock()

	// The entry is removed unconditionally, success or failure, so a
	// failed run never blocks the thread for later callers.
	defer func() {
		c.mu.Lock()
		delete(c.active, threadID)
		c.mu.Unlock()
		close(ar.done)
	}()

	ar.result = c.execute(ctx, threadID, assistantID)
	return ar.result.data, ar.result.message, ar.result.err
}

func (c *Coordinator) execute(ctx context.Context, threadID, assistantID string) runResult {
	run, err := c.connector.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return runResult{err: fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)}
	}

	run, err = c.pollUntilTerminal(ctx, threadID, run)
	if err != nil {
		return runResult{err: fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)}
	}

	if run.Status != entity.RunStatusCompleted {
		return runResult{err: fmt.Errorf("%w: run %s finished with status %s", entity.ErrGenerationFailed, run.ID, run.Status)}
	}

	raw, err := c.newestAssistantMessage(ctx, threadID, run.ID)
	if err != nil {
		return runResult{err: fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)}
	}

	data, message := protocol.Parse(raw)

	ctxzap.Info(ctx, "run completed",
		zap.String("thread_id", threadID),
		zap.String("run_id", run.ID),
		zap.Int("extracted_keys", len(data)),
	)

	return runResult{data: data, message: message}
}

// pollUntilTerminal polls the run with a short interval instead of one
// long blocking wait, to bound perceived latency.
func (c *Coordinator) pollUntilTerminal(ctx context.Context, threadID string, run *entity.Run) (*entity.Run, error) {
	for !run.Status.Terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		updated, err := c.connector.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return nil, fmt.Errorf("poll run %s: %w", run.ID, err)
		}
		run = updated
	}

	return run, nil
}

// newestAssistantMessage fetches only the recent messages of the run and
// returns the newest assistant-authored one.
func (c *Coordinator) newestAssistantMessage(ctx context.Context, threadID, runID string) (string, error) {
	msgs, err := c.connector.ListRunMessages(ctx, threadID, runID, recentMessagesLimit)
	if err != nil {
		return "", fmt.Errorf("list messages for run %s: %w", runID, err)
	}

	for _, msg := range msgs {
		if msg.Role == entity.RoleAssistant {
			return msg.Content, nil
		}
	}

	return "", fmt.Errorf("run %s produced no assistant message", runID)
}

// CleanupStuckRuns cancels every outstanding run older than maxAge.
// Individual cancellation failures are collected in the report instead
// of aborting the sweep.
func (c *Coordinator) CleanupStuckRuns(ctx context.Context, maxAge time.Duration) (*entity.CleanupReport, error) {
	runs, err := c.connector.ListOutstandingRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outstanding runs: %w", err)
	}

	report := &entity.CleanupReport{Checked: len(runs)}

	for _, run := range runs {
		if run.Age <= maxAge {
			continue
		}
		report.Stuck++

		if err := c.connector.CancelRun(ctx, run.ThreadID, run.RunID); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("thread %s run %s: %v", run.ThreadID, run.RunID, err))
			continue
		}
		report.Cancelled++

		ctxzap.Info(ctx, "stuck run cancelled",
			zap.String("thread_id", run.ThreadID),
			zap.String("run_id", run.RunID),
			zap.Duration("age", run.Age),
		)
	}

	return report, nil
}

// ActiveRunCount reports how many runs the coordinator is tracking.
func (c *Coordinator) ActiveRunCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

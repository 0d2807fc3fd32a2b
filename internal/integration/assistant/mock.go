package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is an in-memory assistant channel for local development
// and tests. Runs complete immediately and always produce a reply that
// honors the two-part format contract.
type MockConnector struct {
	mu       sync.Mutex
	threads  map[string][]entity.AssistantMessage
	runSeq   int
	threadSq int
	logger   *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		threads: make(map[string][]entity.AssistantMessage),
		logger:  logger,
	}
}

func (m *MockConnector) CreateThread(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.threadSq++
	threadID := fmt.Sprintf("thread-mock-%d", m.threadSq)
	m.threads[threadID] = nil

	ctxzap.Info(ctx, "[MOCK] thread created", zap.String("thread_id", threadID))
	return threadID, nil
}

func (m *MockConnector) PostMessage(ctx context.Context, threadID string, role entity.MessageRole, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[threadID]; !ok {
		return fmt.Errorf("unknown thread %s", threadID)
	}

	m.threads[threadID] = append(m.threads[threadID], entity.AssistantMessage{
		ID:      fmt.Sprintf("msg-mock-%d", len(m.threads[threadID])+1),
		Role:    role,
		Content: text,
	})

	return nil
}

func (m *MockConnector) CreateRun(ctx context.Context, threadID, assistantID string) (*entity.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[threadID]; !ok {
		return nil, fmt.Errorf("unknown thread %s", threadID)
	}

	m.runSeq++
	runID := fmt.Sprintf("run-mock-%d", m.runSeq)

	reply := "{\"Feldarbeiten\": {\"Untergrundverhältnisse\": \"Bis 3,5 m unter GOK Auffüllung aus Sand und Bauschutt, darunter Geschiebemergel.\"}}\n\n" +
		"Ich habe die Angaben zu den Untergrundverhältnissen übernommen. Gibt es Bohrprofile, die ich noch berücksichtigen soll?"

	m.threads[threadID] = append(m.threads[threadID], entity.AssistantMessage{
		ID:      fmt.Sprintf("msg-mock-%d", len(m.threads[threadID])+1),
		Role:    entity.RoleAssistant,
		Content: reply,
		RunID:   runID,
	})

	ctxzap.Info(ctx, "[MOCK] run completed immediately",
		zap.String("thread_id", threadID),
		zap.String("run_id", runID),
	)

	return &entity.Run{ID: runID, ThreadID: threadID, Status: entity.RunStatusCompleted}, nil
}

func (m *MockConnector) GetRun(ctx context.Context, threadID, runID string) (*entity.Run, error) {
	return &entity.Run{ID: runID, ThreadID: threadID, Status: entity.RunStatusCompleted}, nil
}

func (m *MockConnector) ListRunMessages(ctx context.Context, threadID, runID string, limit int) ([]entity.AssistantMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs, ok := m.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("unknown thread %s", threadID)
	}

	// Newest first, like the real channel.
	out := make([]entity.AssistantMessage, 0, limit)
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if msgs[i].RunID == runID {
			out = append(out, msgs[i])
		}
	}

	return out, nil
}

func (m *MockConnector) CancelRun(ctx context.Context, threadID, runID string) error {
	ctxzap.Info(ctx, "[MOCK] run cancel requested",
		zap.String("thread_id", threadID),
		zap.String("run_id", runID),
	)
	return nil
}

func (m *MockConnector) ListOutstandingRuns(ctx context.Context) ([]entity.OutstandingRun, error) {
	// Mock runs finish synchronously, nothing is ever outstanding.
	return nil, nil
}

package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDocID = "2f4c9c39-4a81-47f5-9a11-3f9fbc1f77aa"

type fakeDocumentRepo struct {
	doc *entity.Document
}

func (f *fakeDocumentRepo) Create(_ context.Context, doc entity.Document) (*entity.Document, error) {
	return &doc, nil
}

func (f *fakeDocumentRepo) Get(_ context.Context, id string) (*entity.Document, error) {
	if f.doc == nil || f.doc.ID != id {
		return nil, entity.ErrDocumentNotFound
	}
	doc := *f.doc
	return &doc, nil
}

func (f *fakeDocumentRepo) SetThreadID(_ context.Context, _, threadID string) error {
	f.doc.ThreadID = &threadID
	return nil
}

func (f *fakeDocumentRepo) SetPDF(_ context.Context, _ string, _ []byte) error { return nil }

func (f *fakeDocumentRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeActiveRepo struct {
	current *entity.ActiveSubsection
	touches int
}

func (f *fakeActiveRepo) Touch(_ context.Context, documentID, section, subsection string) (*entity.ActiveSubsection, error) {
	f.touches++
	f.current = &entity.ActiveSubsection{DocumentID: documentID, Section: section, Subsection: subsection}
	return f.current, nil
}

func (f *fakeActiveRepo) Current(_ context.Context, _ string) (*entity.ActiveSubsection, error) {
	if f.current == nil {
		return nil, entity.ErrNoActiveSubsection
	}
	return f.current, nil
}

type fakeChatRepo struct {
	messages []entity.ChatMessage
}

func (f *fakeChatRepo) Append(_ context.Context, msg entity.ChatMessage) (*entity.ChatMessage, error) {
	msg.ID = len(f.messages) + 1
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeChatRepo) ListBySubsection(_ context.Context, _, section, subsection string, limit, offset int) ([]*entity.ChatMessage, error) {
	out := make([]*entity.ChatMessage, 0)
	for i := range f.messages {
		m := f.messages[i]
		if m.Section != nil && *m.Section == section && m.Subsection != nil && *m.Subsection == subsection {
			out = append(out, &m)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeChatRepo) CountByDocument(_ context.Context, _ string) (int, error) {
	return len(f.messages), nil
}

func (f *fakeChatRepo) LatestAssistant(_ context.Context, _, section, subsection string) (*entity.ChatMessage, error) {
	for i := len(f.messages) - 1; i >= 0; i-- {
		m := f.messages[i]
		if m.Role == entity.RoleAssistant && m.Section != nil && *m.Section == section &&
			m.Subsection != nil && *m.Subsection == subsection {
			return &m, nil
		}
	}
	return nil, nil
}

type fakeDrafts struct {
	merged []map[string]any
}

func (f *fakeDrafts) MergeSectionData(_ context.Context, _ string, data map[string]any) error {
	f.merged = append(f.merged, data)
	return nil
}

type fakeThreadConnector struct {
	threads int
	posted  []string
}

func (f *fakeThreadConnector) CreateThread(_ context.Context) (string, error) {
	f.threads++
	return fmt.Sprintf("thread-%d", f.threads), nil
}

func (f *fakeThreadConnector) PostMessage(_ context.Context, _ string, _ entity.MessageRole, text string) error {
	f.posted = append(f.posted, text)
	return nil
}

// fakeRunner replays scripted (data, message) results in order; the last
// entry repeats.
type fakeRunner struct {
	results []struct {
		data    map[string]any
		message string
	}
	calls int
}

func (f *fakeRunner) RunAndParse(_ context.Context, _, _ string) (map[string]any, string, error) {
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	r := f.results[idx]
	return r.data, r.message, nil
}

func scriptedRunner(results ...[2]any) *fakeRunner {
	r := &fakeRunner{}
	for _, res := range results {
		r.results = append(r.results, struct {
			data    map[string]any
			message string
		}{res[0].(map[string]any), res[1].(string)})
	}
	return r
}

type fixture struct {
	uc        *Usecase
	docs      *fakeDocumentRepo
	active    *fakeActiveRepo
	chat      *fakeChatRepo
	drafts    *fakeDrafts
	connector *fakeThreadConnector
	runner    *fakeRunner
}

func newFixture(runner *fakeRunner) *fixture {
	f := &fixture{
		docs:      &fakeDocumentRepo{doc: &entity.Document{ID: testDocID, Topic: "Baugrundgutachten"}},
		active:    &fakeActiveRepo{},
		chat:      &fakeChatRepo{},
		drafts:    &fakeDrafts{},
		connector: &fakeThreadConnector{},
		runner:    runner,
	}
	tax := taxonomy.New(
		[]string{"Baugrundgutachten"},
		map[string][]taxonomy.Section{
			"Baugrundgutachten": {
				{Name: "Feldarbeiten", Subsections: []string{"Bohrungen", "Sondierungen"}},
			},
		},
	)
	f.uc = NewUsecase(f.docs, f.active, f.chat, f.drafts, f.connector, runner, tax, "asst-test", zap.NewNop())
	return f
}

func TestSelectSubsection(t *testing.T) {
	f := newFixture(scriptedRunner())

	active, err := f.uc.SelectSubsection(context.Background(), testDocID, &entity.SelectSubsectionRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bohrungen", active.Subsection)
	assert.Equal(t, 1, f.active.touches)
}

func TestSelectSubsectionInvalidLeavesStateUntouched(t *testing.T) {
	f := newFixture(scriptedRunner())
	ctx := context.Background()

	_, err := f.uc.SelectSubsection(ctx, testDocID, &entity.SelectSubsectionRequest{
		Section: "Feldarbeiten", Subsection: "Erdbeben",
	})
	require.ErrorIs(t, err, entity.ErrUnknownSubsection)
	assert.Zero(t, f.active.touches, "failed validation must not record a working position")

	_, err = f.uc.SelectSubsection(ctx, testDocID, &entity.SelectSubsectionRequest{
		Section: "Gibtesnicht", Subsection: "Bohrungen",
	})
	require.ErrorIs(t, err, entity.ErrUnknownSection)
}

func TestStartConversation(t *testing.T) {
	runner := scriptedRunner([2]any{
		map[string]any{"Feldarbeiten": map[string]any{"Bohrungen": "3 Kernbohrungen"}},
		"Wie tief wurde gebohrt?",
	})
	f := newFixture(runner)

	resp, err := f.uc.StartConversation(context.Background(), testDocID, &entity.StartConversationRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)

	assert.Equal(t, "thread-1", resp.ThreadID)
	assert.Equal(t, "Wie tief wurde gebohrt?", resp.Message)
	assert.False(t, resp.Resumed)

	// the opening instruction carries outline, focus and format contract
	require.Len(t, f.connector.posted, 1)
	instruction := f.connector.posted[0]
	assert.Contains(t, instruction, "Baugrundgutachten")
	assert.Contains(t, instruction, "Untersektion 'Bohrungen'")
	assert.Contains(t, instruction, "zwei Teilen")

	// both turns recorded, draft merged
	require.Len(t, f.chat.messages, 2)
	assert.Equal(t, entity.RoleUser, f.chat.messages[0].Role)
	assert.Equal(t, entity.RoleAssistant, f.chat.messages[1].Role)
	require.Len(t, f.drafts.merged, 1)
}

func TestStartConversationResume(t *testing.T) {
	runner := scriptedRunner([2]any{
		map[string]any{"Feldarbeiten": map[string]any{"Bohrungen": "3 Kernbohrungen"}},
		"Wie tief wurde gebohrt?",
	})
	f := newFixture(runner)
	ctx := context.Background()

	req := &entity.StartConversationRequest{Section: "Feldarbeiten", Subsection: "Bohrungen"}
	_, err := f.uc.StartConversation(ctx, testDocID, req)
	require.NoError(t, err)
	require.Equal(t, 1, f.runner.calls)

	resp, err := f.uc.StartConversation(ctx, testDocID, req)
	require.NoError(t, err)

	assert.True(t, resp.Resumed)
	assert.Equal(t, "Wie tief wurde gebohrt?", resp.Message)
	assert.Equal(t, 1, f.runner.calls, "resume must not trigger a new run")
	assert.Equal(t, 1, f.connector.threads, "resume must not create a new thread")
}

func TestStartConversationCorrectionRetry(t *testing.T) {
	runner := scriptedRunner(
		[2]any{map[string]any{}, "Nur Prosa, kein JSON."},
		[2]any{
			map[string]any{"Feldarbeiten": map[string]any{"Bohrungen": "3 Kernbohrungen"}},
			"Hier die korrigierte Antwort.",
		},
	)
	f := newFixture(runner)

	resp, err := f.uc.StartConversation(context.Background(), testDocID, &entity.StartConversationRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.runner.calls, "a format miss on the opening run triggers one resend")
	assert.Equal(t, "Hier die korrigierte Antwort.", resp.Message)
	require.Len(t, f.drafts.merged, 1)

	// instruction plus correction went to the thread, but history keeps
	// only the instruction and the final assistant turn
	require.Len(t, f.connector.posted, 2)
	assert.Contains(t, f.connector.posted[1], "JSON")
	require.Len(t, f.chat.messages, 2)
	assert.Equal(t, entity.RoleAssistant, f.chat.messages[1].Role)
	assert.Equal(t, "Hier die korrigierte Antwort.", f.chat.messages[1].Content)
}

func TestStartConversationNewPairReplacesThread(t *testing.T) {
	runner := scriptedRunner([2]any{map[string]any{}, "Erzähl mir von den Sondierungen."})
	f := newFixture(runner)
	ctx := context.Background()

	_, err := f.uc.StartConversation(ctx, testDocID, &entity.StartConversationRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)

	resp, err := f.uc.StartConversation(ctx, testDocID, &entity.StartConversationRequest{
		Section: "Feldarbeiten", Subsection: "Sondierungen",
	})
	require.NoError(t, err)

	assert.Equal(t, "thread-2", resp.ThreadID)
	require.NotNil(t, f.docs.doc.ThreadID)
	assert.Equal(t, "thread-2", *f.docs.doc.ThreadID)
}

func TestStartConversationUnknownDocument(t *testing.T) {
	f := newFixture(scriptedRunner())

	_, err := f.uc.StartConversation(context.Background(), "not-a-doc", &entity.StartConversationRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.ErrorIs(t, err, entity.ErrDocumentNotFound)
}

func TestReplyRequiresThread(t *testing.T) {
	f := newFixture(scriptedRunner())

	_, err := f.uc.Reply(context.Background(), testDocID, &entity.ReplyRequest{Message: "Hallo"})
	require.ErrorIs(t, err, entity.ErrNotInitialized)
}

func TestReplyRequiresActiveSubsection(t *testing.T) {
	f := newFixture(scriptedRunner())
	threadID := "thread-1"
	f.docs.doc.ThreadID = &threadID

	_, err := f.uc.Reply(context.Background(), testDocID, &entity.ReplyRequest{Message: "Hallo"})
	require.ErrorIs(t, err, entity.ErrNoActiveSubsection)
}

func TestReply(t *testing.T) {
	runner := scriptedRunner(
		[2]any{map[string]any{}, "Willkommen."},
		[2]any{
			map[string]any{"Feldarbeiten": map[string]any{"Bohrungen": "5 Bohrungen"}},
			"Fünf Bohrungen notiert.",
		},
	)
	f := newFixture(runner)
	ctx := context.Background()

	_, err := f.uc.StartConversation(ctx, testDocID, &entity.StartConversationRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)

	resp, err := f.uc.Reply(ctx, testDocID, &entity.ReplyRequest{Message: "Es waren fünf Bohrungen."})
	require.NoError(t, err)

	assert.Equal(t, "Fünf Bohrungen notiert.", resp.Message)
	assert.Contains(t, resp.Data, "Feldarbeiten")

	// assistant turn tagged with the active pair
	last := f.chat.messages[len(f.chat.messages)-1]
	assert.Equal(t, entity.RoleAssistant, last.Role)
	require.NotNil(t, last.Subsection)
	assert.Equal(t, "Bohrungen", *last.Subsection)
}

func TestReplySingleCorrectionRetry(t *testing.T) {
	runner := scriptedRunner(
		[2]any{map[string]any{}, "Nur Prosa, kein JSON."},
		[2]any{
			map[string]any{"Feldarbeiten": map[string]any{"Bohrungen": "5 Bohrungen"}},
			"Jetzt im richtigen Format.",
		},
	)
	f := newFixture(runner)
	ctx := context.Background()

	threadID := "thread-1"
	f.docs.doc.ThreadID = &threadID
	_, err := f.active.Touch(ctx, testDocID, "Feldarbeiten", "Bohrungen")
	require.NoError(t, err)

	resp, err := f.uc.Reply(ctx, testDocID, &entity.ReplyRequest{Message: "Fünf."})
	require.NoError(t, err)

	assert.Equal(t, 2, f.runner.calls, "exactly one correction retry")
	assert.Equal(t, "Jetzt im richtigen Format.", resp.Message)

	// the correction message itself is posted to the thread but kept out
	// of the visible history
	require.Len(t, f.connector.posted, 2)
	assert.Contains(t, f.connector.posted[1], "keinen JSON-Teil")
	require.Len(t, f.chat.messages, 2)
}

func TestReplyCorrectionRetryIsBounded(t *testing.T) {
	runner := scriptedRunner(
		[2]any{map[string]any{}, "Immer noch Prosa."},
	)
	f := newFixture(runner)
	ctx := context.Background()

	threadID := "thread-1"
	f.docs.doc.ThreadID = &threadID
	_, err := f.active.Touch(ctx, testDocID, "Feldarbeiten", "Bohrungen")
	require.NoError(t, err)

	resp, err := f.uc.Reply(ctx, testDocID, &entity.ReplyRequest{Message: "Fünf."})
	require.NoError(t, err)

	assert.Equal(t, 2, f.runner.calls, "a second non-compliant reply is accepted as-is")
	assert.Equal(t, "Immer noch Prosa.", resp.Message)
	assert.Empty(t, resp.Data)
}

func TestSubsectionMessages(t *testing.T) {
	runner := scriptedRunner([2]any{map[string]any{}, "Los geht's."})
	f := newFixture(runner)
	ctx := context.Background()

	_, err := f.uc.StartConversation(ctx, testDocID, &entity.StartConversationRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)

	msgs, err := f.uc.SubsectionMessages(ctx, testDocID, "Feldarbeiten", "Bohrungen", 100, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)

	paged, err := f.uc.SubsectionMessages(ctx, testDocID, "Feldarbeiten", "Bohrungen", 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "assistant", paged[0].Role)

	other, err := f.uc.SubsectionMessages(ctx, testDocID, "Feldarbeiten", "Sondierungen", 100, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

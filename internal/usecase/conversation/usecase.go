// Package conversation drives the subsection-focused extraction dialog:
// selecting a working position, starting or resuming a thread, and
// relaying replies through the generation runner into the draft store.
package conversation

import (
	"context"
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/repository"
	"github.com/geoscribe/report-backend/internal/taxonomy"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Usecase implements conversation business logic
type Usecase struct {
	documentRepo repository.DocumentRepository
	activeRepo   repository.ActiveSubsectionRepository
	chatRepo     repository.ChatMessageRepository
	drafts       DraftMerger
	connector    ThreadConnector
	runner       RunExecutor
	taxonomy     *taxonomy.Taxonomy
	assistantID  string
	logger       *zap.Logger
}

// NewUsecase creates a new conversation use case
func NewUsecase(
	documentRepo repository.DocumentRepository,
	activeRepo repository.ActiveSubsectionRepository,
	chatRepo repository.ChatMessageRepository,
	drafts DraftMerger,
	connector ThreadConnector,
	runner RunExecutor,
	tax *taxonomy.Taxonomy,
	assistantID string,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		documentRepo: documentRepo,
		activeRepo:   activeRepo,
		chatRepo:     chatRepo,
		drafts:       drafts,
		connector:    connector,
		runner:       runner,
		taxonomy:     tax,
		assistantID:  assistantID,
		logger:       logger,
	}
}

// SelectSubsection validates the pair against the document topic's
// outline and records it as the current working position. Validation
// failures leave all state untouched.
func (uc *Usecase) SelectSubsection(ctx context.Context, documentID string, req *entity.SelectSubsectionRequest) (*entity.ActiveSubsection, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := uc.taxonomy.Validate(doc.Topic, req.Section, req.Subsection); err != nil {
		return nil, err
	}

	active, err := uc.activeRepo.Touch(ctx, documentID, req.Section, req.Subsection)
	if err != nil {
		return nil, fmt.Errorf("record active subsection: %w", err)
	}

	ctxzap.Info(ctx, "subsection selected",
		zap.String("document_id", documentID),
		zap.String("section", req.Section),
		zap.String("subsection", req.Subsection),
	)

	return active, nil
}

// StartConversation opens the extraction dialog for one subsection.
// When turns for the pair already exist under the document's current
// thread, the call resumes: the latest stored assistant turn is returned
// and no generation run happens. Otherwise a fresh thread is created,
// force-replacing any previous one so conversations never share context,
// and the opening instruction is posted and run. The opening run gets
// the same single format-correction retry as Reply.
func (uc *Usecase) StartConversation(ctx context.Context, documentID string, req *entity.StartConversationRequest) (*entity.ConversationResponse, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := uc.taxonomy.Validate(doc.Topic, req.Section, req.Subsection); err != nil {
		return nil, err
	}

	if _, err := uc.activeRepo.Touch(ctx, documentID, req.Section, req.Subsection); err != nil {
		return nil, fmt.Errorf("record active subsection: %w", err)
	}

	if doc.ThreadID != nil {
		latest, err := uc.chatRepo.LatestAssistant(ctx, documentID, req.Section, req.Subsection)
		if err != nil {
			return nil, fmt.Errorf("load conversation history: %w", err)
		}
		if latest != nil {
			ctxzap.Info(ctx, "conversation resumed",
				zap.String("document_id", documentID),
				zap.String("section", req.Section),
				zap.String("subsection", req.Subsection),
			)
			return &entity.ConversationResponse{
				ThreadID: *doc.ThreadID,
				Message:  latest.Content,
				Data:     map[string]any{},
				Resumed:  true,
			}, nil
		}
	}

	threadID, err := uc.connector.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	if err := uc.documentRepo.SetThreadID(ctx, documentID, threadID); err != nil {
		return nil, err
	}

	outline, err := uc.taxonomy.Sections(doc.Topic)
	if err != nil {
		return nil, err
	}

	instruction := buildStartInstruction(doc.Topic, outline, req.Section, req.Subsection)

	if err := uc.connector.PostMessage(ctx, threadID, entity.RoleUser, instruction); err != nil {
		return nil, fmt.Errorf("post instruction: %w", err)
	}

	if err := uc.recordTurn(ctx, documentID, entity.RoleUser, instruction, req.Section, req.Subsection); err != nil {
		return nil, err
	}

	data, message, err := uc.runWithCorrection(ctx, documentID, threadID, req.Section, req.Subsection)
	if err != nil {
		return nil, err
	}

	if err := uc.drafts.MergeSectionData(ctx, documentID, data); err != nil {
		return nil, err
	}

	if err := uc.recordTurn(ctx, documentID, entity.RoleAssistant, message, req.Section, req.Subsection); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "conversation started",
		zap.String("document_id", documentID),
		zap.String("thread_id", threadID),
		zap.String("section", req.Section),
		zap.String("subsection", req.Subsection),
	)

	return &entity.ConversationResponse{
		ThreadID: threadID,
		Message:  message,
		Data:     data,
	}, nil
}

// Reply relays one user message into the thread, runs generation and
// merges the extracted data. A reply that carries prose but no data gets
// exactly one format-correction retry; the second result is taken as-is
// either way.
func (uc *Usecase) Reply(ctx context.Context, documentID string, req *entity.ReplyRequest) (*entity.ConversationResponse, error) {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.ThreadID == nil {
		return nil, entity.ErrNotInitialized
	}
	threadID := *doc.ThreadID

	active, err := uc.activeRepo.Current(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := uc.connector.PostMessage(ctx, threadID, entity.RoleUser, req.Message); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	if err := uc.recordTurn(ctx, documentID, entity.RoleUser, req.Message, active.Section, active.Subsection); err != nil {
		return nil, err
	}

	data, message, err := uc.runWithCorrection(ctx, documentID, threadID, active.Section, active.Subsection)
	if err != nil {
		return nil, err
	}

	if err := uc.drafts.MergeSectionData(ctx, documentID, data); err != nil {
		return nil, err
	}

	if err := uc.recordTurn(ctx, documentID, entity.RoleAssistant, message, active.Section, active.Subsection); err != nil {
		return nil, err
	}

	return &entity.ConversationResponse{
		ThreadID: threadID,
		Message:  message,
		Data:     data,
	}, nil
}

// runWithCorrection executes one generation run. A result that carries
// prose but no data gets exactly one format-correction retry; the second
// result is taken as-is either way. The correction message goes to the
// thread only, never into the stored history.
func (uc *Usecase) runWithCorrection(ctx context.Context, documentID, threadID, section, subsection string) (map[string]any, string, error) {
	data, message, err := uc.runner.RunAndParse(ctx, threadID, uc.assistantID)
	if err != nil {
		return nil, "", err
	}

	if len(data) > 0 || message == "" {
		return data, message, nil
	}

	ctxzap.Info(ctx, "reply missed format contract, requesting resend",
		zap.String("document_id", documentID),
		zap.String("thread_id", threadID),
	)

	correction := buildCorrectionMessage(section, subsection)
	if err := uc.connector.PostMessage(ctx, threadID, entity.RoleUser, correction); err != nil {
		return nil, "", fmt.Errorf("post correction: %w", err)
	}

	data, message, err = uc.runner.RunAndParse(ctx, threadID, uc.assistantID)
	if err != nil {
		return nil, "", err
	}

	return data, message, nil
}

// SubsectionMessages lists the stored turns for one (section,
// subsection) pair, oldest first.
func (uc *Usecase) SubsectionMessages(ctx context.Context, documentID, section, subsection string, limit, offset int) ([]*entity.ChatMessageDTO, error) {
	if _, err := uc.documentRepo.Get(ctx, documentID); err != nil {
		return nil, err
	}

	messages, err := uc.chatRepo.ListBySubsection(ctx, documentID, section, subsection, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	dtos := make([]*entity.ChatMessageDTO, 0, len(messages))
	for _, msg := range messages {
		dtos = append(dtos, toChatMessageDTO(msg))
	}

	return dtos, nil
}

func (uc *Usecase) recordTurn(ctx context.Context, documentID string, role entity.MessageRole, content, section, subsection string) error {
	_, err := uc.chatRepo.Append(ctx, entity.ChatMessage{
		DocumentID: documentID,
		Role:       role,
		Content:    content,
		Section:    &section,
		Subsection: &subsection,
	})
	if err != nil {
		return fmt.Errorf("record %s turn: %w", role, err)
	}
	return nil
}

package conversation

import (
	"context"

	"github.com/geoscribe/report-backend/internal/entity"
)

type ConversationUsecase interface {
	SelectSubsection(ctx context.Context, documentID string, req *entity.SelectSubsectionRequest) (*entity.ActiveSubsection, error)
	StartConversation(ctx context.Context, documentID string, req *entity.StartConversationRequest) (*entity.ConversationResponse, error)
	Reply(ctx context.Context, documentID string, req *entity.ReplyRequest) (*entity.ConversationResponse, error)
	SubsectionMessages(ctx context.Context, documentID, section, subsection string, limit, offset int) ([]*entity.ChatMessageDTO, error)
}

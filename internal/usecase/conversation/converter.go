package conversation

import (
	"github.com/geoscribe/report-backend/internal/entity"
)

func toChatMessageDTO(msg *entity.ChatMessage) *entity.ChatMessageDTO {
	return &entity.ChatMessageDTO{
		ID:         msg.ID,
		Role:       string(msg.Role),
		Content:    msg.Content,
		Section:    msg.Section,
		Subsection: msg.Subsection,
		Timestamp:  msg.CreatedAt,
	}
}

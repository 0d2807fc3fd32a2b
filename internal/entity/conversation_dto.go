package entity

import "time"

// SelectSubsectionRequest activates a (section, subsection) pair.
type SelectSubsectionRequest struct {
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
}

// StartConversationRequest starts (or resumes) a document conversation
// focused on one subsection.
type StartConversationRequest struct {
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
}

// ReplyRequest continues the conversation with a user message.
type ReplyRequest struct {
	Message string `json:"message"`
}

// ConversationResponse carries one assistant turn back to the caller.
// Data holds the structured values extracted from the reply; it is empty
// when the assistant did not honor the format contract.
type ConversationResponse struct {
	ThreadID string         `json:"thread_id"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data"`
	Resumed  bool           `json:"resumed,omitempty"`
}

// ChatMessageDTO is one turn of the stored conversation history.
type ChatMessageDTO struct {
	ID         int       `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Section    *string   `json:"section,omitempty"`
	Subsection *string   `json:"subsection,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

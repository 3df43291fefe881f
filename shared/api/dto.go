package api

import "time"

// Request and response DTOs of the UI-facing surface.

type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

type AttachmentResponse struct {
	FileName    string `json:"file_name"`
	SizeBytes   int64  `json:"size_bytes"`
	MimeType    string `json:"mime_type"`
	URL         string `json:"url"`
	Progress    int    `json:"progress"`
	ImageWidth  *int   `json:"image_width,omitempty"`
	ImageHeight *int   `json:"image_height,omitempty"`
}

type MessageResponse struct {
	Id          int64               `json:"id"`
	Provisional bool                `json:"provisional"`
	Mine        bool                `json:"mine"`
	SenderName  string              `json:"sender_name,omitempty"`
	Content     string              `json:"content"`
	ContentHTML string              `json:"content_html,omitempty"`
	Kind        string              `json:"kind"`
	Status      string              `json:"status"`
	SendState   string              `json:"send_state,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	Attachment  *AttachmentResponse `json:"attachment,omitempty"`
}

type MessagesResponse struct {
	ConversationKey string            `json:"conversation_key,omitempty"`
	ConversationId  int64             `json:"conversation_id,omitempty"`
	ScrollSeq       uint64            `json:"scroll_seq"`
	Messages        []MessageResponse `json:"messages"`
}

type ConversationResponse struct {
	Key         string     `json:"key"`
	Id          *int64     `json:"id,omitempty"`
	Virtual     bool       `json:"virtual"`
	Title       string     `json:"title"`
	Unread      bool       `json:"unread"`
	Active      bool       `json:"active"`
	LastMessage string     `json:"last_message,omitempty"`
	ActivityAt  *time.Time `json:"activity_at,omitempty"`
}

type ConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

type ProgressResponse struct {
	Files map[string]int `json:"files"`
}

type BatchFileResult struct {
	FileName string `json:"file_name"`
	Uploaded bool   `json:"uploaded"`
	Error    string `json:"error,omitempty"`
}

type BatchUploadResponse struct {
	Files []BatchFileResult `json:"files"`
}

type NotificationResponse struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

type PollingResponse struct {
	Polling bool `json:"polling"`
}

type PollResponse struct {
	Fetched int `json:"fetched"`
}

type SelectConversationRequest struct {
	Key string `json:"key" validate:"required"`
}

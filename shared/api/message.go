package api

import "time"

// Wire DTOs of the directory/transport service.

type MessageDTO struct {
	Id          int64            `json:"id"`
	ChatId      int64            `json:"chat_id"`
	SenderId    int64            `json:"sender_id"`
	SenderType  string           `json:"sender_type"`
	SenderName  string           `json:"sender_name,omitempty"`
	Content     string           `json:"content"`
	MessageType string           `json:"message_type"`
	Status      string           `json:"status,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Attachment  *AttachmentField `json:"attachment,omitempty"`
	ClientRef   string           `json:"client_ref,omitempty"`
}

type MessageListResponse struct {
	Messages []MessageDTO `json:"messages"`
}

type CreateMessageRequest struct {
	Content   string `json:"content" validate:"required"`
	ClientRef string `json:"client_ref,omitempty"`
}

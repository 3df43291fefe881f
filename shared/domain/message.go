package domain

import (
	"strings"
	"time"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
)

// KindFromMime classifies an attachment by its MIME type.
func KindFromMime(mimeType string) MessageKind {
	if strings.HasPrefix(mimeType, "image/") {
		return KindImage
	}
	return KindFile
}

type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// SendState tracks a locally originated message through the send pipeline.
type SendState string

const (
	SendCreated   SendState = "created"
	SendPending   SendState = "pending"
	SendConfirmed SendState = "confirmed"
	SendFailed    SendState = "failed"
)

type Message struct {
	Id             MsgId // server id, or negative while provisional
	ConversationId ConversationId
	SenderId       UserId
	SenderType     ParticipantType
	SenderName     string
	Content        MsgText
	Kind           MessageKind
	Status         DeliveryStatus
	CreatedAt      time.Time
	Attachment     *Attachment

	// ClientRef correlates a provisional message with its server counterpart.
	ClientRef string
	SendState SendState
}

func (m *Message) IsProvisional() bool { return m.Id < 0 }

// Summary builds the conversation list entry for this message.
func (m *Message) Summary() *LastMessage {
	content := m.Content
	if m.Attachment != nil && content == "" {
		content = m.Attachment.FileName
	}
	return &LastMessage{
		Id:         m.Id,
		SenderId:   m.SenderId,
		SenderType: m.SenderType,
		Content:    content,
		Kind:       m.Kind,
		CreatedAt:  m.CreatedAt,
	}
}

// Clone returns a copy that shares no mutable state with m.
func (m Message) Clone() Message {
	if m.Attachment != nil {
		a := m.Attachment.Clone()
		m.Attachment = &a
	}
	return m
}

// MessageQuery selects a page of messages. SinceId > 0 limits the result to
// messages newer than that id.
type MessageQuery struct {
	Limit   int
	Offset  int
	SinceId MsgId
}

// MessageDraft is what the create-message call sends.
type MessageDraft struct {
	ConversationId ConversationId
	Content        MsgText
	ClientRef      string
}

// AttachmentUpload is what the upload-file call sends.
type AttachmentUpload struct {
	ConversationId ConversationId
	ClientRef      string
	File           *PendingFile
}

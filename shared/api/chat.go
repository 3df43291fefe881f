package api

import "time"

// Wire DTOs of the directory/transport service.

// ParticipantDTO is loosely typed: the populated name fields depend on the role.
type ParticipantDTO struct {
	Id          int64  `json:"id"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	ClinicName  string `json:"clinic_name,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	InsurerName string `json:"insurer_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

type LastMessageDTO struct {
	Id          int64     `json:"id"`
	SenderId    int64     `json:"sender_id"`
	SenderType  string    `json:"sender_type"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatDTO struct {
	Id                 *int64          `json:"id"`
	ClinicId           int64           `json:"clinic_id"`
	OperatorId         int64           `json:"operator_id"`
	Clinic             *ParticipantDTO `json:"clinic,omitempty"`
	Operator           *ParticipantDTO `json:"operator,omitempty"`
	LastMessage        *LastMessageDTO `json:"last_message,omitempty"`
	LastMessageTime    *time.Time      `json:"last_message_time,omitempty"`
	ClinicLastReadAt   *time.Time      `json:"clinic_last_read_at,omitempty"`
	OperatorLastReadAt *time.Time      `json:"operator_last_read_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          *time.Time      `json:"updated_at,omitempty"`
}

type ChatListResponse struct {
	Chats []ChatDTO `json:"chats"`
}

type ClinicListResponse struct {
	Clinics []ParticipantDTO `json:"clinics"`
}

type FindOrCreateChatRequest struct {
	ClinicId   int64 `json:"clinic_id" validate:"required"`
	OperatorId int64 `json:"operator_id" validate:"required"`
}

type FindOrCreateChatResponse struct {
	Id      int64 `json:"id"`
	Created bool  `json:"created"`
}

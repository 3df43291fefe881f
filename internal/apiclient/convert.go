package apiclient

import (
	"strings"
	"time"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
)

// ResolveParticipant turns the loosely typed wire participant into a Clinic
// or an Operator. The declared type wins; without one the role-specific name
// fields decide, and fallback is used when nothing does.
func ResolveParticipant(p api.ParticipantDTO, fallback domain.ParticipantType) domain.Participant {
	typ := domain.ParticipantType(strings.ToLower(strings.TrimSpace(p.Type)))
	switch typ {
	case domain.ParticipantClinic, domain.ParticipantOperator:
	default:
		switch {
		case p.ClinicName != "":
			typ = domain.ParticipantClinic
		case p.InsurerName != "" || p.FirstName != "" || p.LastName != "":
			typ = domain.ParticipantOperator
		default:
			typ = fallback
		}
	}
	if typ == domain.ParticipantOperator {
		return operatorFromDTO(p)
	}
	return clinicFromDTO(p)
}

func clinicFromDTO(p api.ParticipantDTO) domain.Clinic {
	return domain.Clinic{Id: p.Id, Name: firstNonEmpty(p.ClinicName, p.Name, p.FullName, p.Email)}
}

func operatorFromDTO(p api.ParticipantDTO) domain.Operator {
	fullName := strings.TrimSpace(p.FirstName + " " + p.LastName)
	return domain.Operator{
		Id:          p.Id,
		Name:        firstNonEmpty(p.FullName, fullName, p.Name, p.Email),
		InsurerName: p.InsurerName,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func conversationFromDTO(dto api.ChatDTO) domain.Conversation {
	c := domain.Conversation{
		Pair:      domain.Pair{ClinicId: dto.ClinicId, OperatorId: dto.OperatorId},
		Clinic:    domain.Clinic{Id: dto.ClinicId},
		Operator:  domain.Operator{Id: dto.OperatorId},
		CreatedAt: dto.CreatedAt,
	}
	if dto.Id != nil {
		id := *dto.Id
		c.Id = &id
	}
	if dto.Clinic != nil {
		if clinic, ok := ResolveParticipant(*dto.Clinic, domain.ParticipantClinic).(domain.Clinic); ok {
			c.Clinic = clinic
		}
		c.Clinic.Id = dto.ClinicId
	}
	if dto.Operator != nil {
		if operator, ok := ResolveParticipant(*dto.Operator, domain.ParticipantOperator).(domain.Operator); ok {
			c.Operator = operator
		}
		c.Operator.Id = dto.OperatorId
	}
	if dto.UpdatedAt != nil {
		c.UpdatedAt = *dto.UpdatedAt
	}

	switch {
	case dto.LastMessage != nil:
		lm := dto.LastMessage
		c.LastMessage = &domain.LastMessage{
			Id:         lm.Id,
			SenderId:   lm.SenderId,
			SenderType: domain.ParticipantType(lm.SenderType),
			Content:    lm.Content,
			Kind:       kindFromWire(lm.MessageType, ""),
			CreatedAt:  lm.CreatedAt,
		}
		if c.LastMessage.CreatedAt.IsZero() && dto.LastMessageTime != nil {
			c.LastMessage.CreatedAt = *dto.LastMessageTime
		}
		if isAttachmentType(lm.MessageType) && api.LooksLikeLegacyAttachment(lm.Content) {
			if a, err := api.ParseLegacyAttachment(lm.Content); err == nil {
				c.LastMessage.Content = a.FileName
			}
		}
	case dto.LastMessageTime != nil:
		c.LastMessage = &domain.LastMessage{CreatedAt: *dto.LastMessageTime}
	}

	reads := make(map[domain.ParticipantType]time.Time, 2)
	if dto.ClinicLastReadAt != nil {
		reads[domain.ParticipantClinic] = *dto.ClinicLastReadAt
	}
	if dto.OperatorLastReadAt != nil {
		reads[domain.ParticipantOperator] = *dto.OperatorLastReadAt
	}
	if len(reads) > 0 {
		c.LastReadAt = reads
	}
	return c
}

func kindFromWire(messageType, mimeType string) domain.MessageKind {
	switch domain.MessageKind(strings.ToLower(messageType)) {
	case domain.KindText:
		return domain.KindText
	case domain.KindImage:
		return domain.KindImage
	case domain.KindFile:
		return domain.KindFile
	}
	if mimeType != "" {
		return domain.KindFromMime(mimeType)
	}
	return domain.KindText
}

func attachmentFromDTO(a api.AttachmentDTO) *domain.Attachment {
	return &domain.Attachment{
		FileName:    a.FileName,
		SizeBytes:   a.Size,
		MimeType:    a.MimeType,
		URL:         a.URL,
		Progress:    100,
		ImageWidth:  a.Width,
		ImageHeight: a.Height,
	}
}

func messageFromDTO(dto api.MessageDTO) domain.Message {
	m := domain.Message{
		Id:             dto.Id,
		ConversationId: dto.ChatId,
		SenderId:       dto.SenderId,
		SenderType:     domain.ParticipantType(dto.SenderType),
		SenderName:     dto.SenderName,
		Content:        dto.Content,
		Status:         domain.DeliveryStatus(dto.Status),
		CreatedAt:      dto.CreatedAt,
		ClientRef:      dto.ClientRef,
		SendState:      domain.SendConfirmed,
	}
	if m.Status == "" {
		m.Status = domain.StatusSent
	}

	mimeType := ""
	switch {
	case dto.Attachment != nil:
		m.Attachment = attachmentFromDTO(dto.Attachment.AttachmentDTO)
		mimeType = dto.Attachment.MimeType
	case isAttachmentType(dto.MessageType) && api.LooksLikeLegacyAttachment(dto.Content):
		if a, err := api.ParseLegacyAttachment(dto.Content); err == nil {
			m.Attachment = attachmentFromDTO(*a)
			m.Content = ""
			mimeType = a.MimeType
		}
	}
	m.Kind = kindFromWire(dto.MessageType, mimeType)
	return m
}

// isAttachmentType reports whether the wire message type carries a file.
// Untyped messages are text even when the content contains '|'.
func isAttachmentType(messageType string) bool {
	switch domain.MessageKind(strings.ToLower(messageType)) {
	case domain.KindImage, domain.KindFile:
		return true
	}
	return false
}

package chat

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
)

// --- Mocks ---

type mockTransport struct {
	fetchMessagesFunc     func(ctx context.Context, conversationId domain.ConversationId, q domain.MessageQuery) ([]domain.Message, error)
	listConversationsFunc func(ctx context.Context) ([]domain.Conversation, error)
	createMessageFunc     func(ctx context.Context, draft domain.MessageDraft) (domain.Message, error)
	uploadAttachmentFunc  func(ctx context.Context, upload domain.AttachmentUpload, progress domain.ProgressFunc) (domain.Message, error)
	uploadDocumentFunc    func(ctx context.Context, requestId domain.ClinicalRequestId, file *domain.PendingFile, progress domain.ProgressFunc) error

	mu            sync.Mutex
	fetchQueries  []domain.MessageQuery
	drafts        []domain.MessageDraft
	uploads       []domain.AttachmentUpload
	documentNames []string
}

func (m *mockTransport) FetchMessages(ctx context.Context, conversationId domain.ConversationId, q domain.MessageQuery) ([]domain.Message, error) {
	m.mu.Lock()
	m.fetchQueries = append(m.fetchQueries, q)
	m.mu.Unlock()
	if m.fetchMessagesFunc != nil {
		return m.fetchMessagesFunc(ctx, conversationId, q)
	}
	return nil, nil
}

func (m *mockTransport) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	if m.listConversationsFunc != nil {
		return m.listConversationsFunc(ctx)
	}
	return nil, nil
}

func (m *mockTransport) CreateMessage(ctx context.Context, draft domain.MessageDraft) (domain.Message, error) {
	m.mu.Lock()
	m.drafts = append(m.drafts, draft)
	m.mu.Unlock()
	if m.createMessageFunc != nil {
		return m.createMessageFunc(ctx, draft)
	}
	return domain.Message{Id: 1, ConversationId: draft.ConversationId, Content: draft.Content, Kind: domain.KindText, ClientRef: draft.ClientRef}, nil
}

func (m *mockTransport) UploadAttachment(ctx context.Context, upload domain.AttachmentUpload, progress domain.ProgressFunc) (domain.Message, error) {
	m.mu.Lock()
	m.uploads = append(m.uploads, upload)
	m.mu.Unlock()
	if m.uploadAttachmentFunc != nil {
		return m.uploadAttachmentFunc(ctx, upload, progress)
	}
	return domain.Message{Id: 1, ConversationId: upload.ConversationId, Kind: domain.KindFromMime(upload.File.MimeType)}, nil
}

func (m *mockTransport) UploadDocument(ctx context.Context, requestId domain.ClinicalRequestId, file *domain.PendingFile, progress domain.ProgressFunc) error {
	m.mu.Lock()
	m.documentNames = append(m.documentNames, file.Filename)
	m.mu.Unlock()
	if m.uploadDocumentFunc != nil {
		return m.uploadDocumentFunc(ctx, requestId, file, progress)
	}
	return nil
}

func (m *mockTransport) networkCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts) + len(m.uploads) + len(m.documentNames)
}

type mockDirectory struct {
	listAffiliatedClinicsFunc    func(ctx context.Context, operatorId domain.OperatorId) ([]domain.Clinic, error)
	findOrCreateConversationFunc func(ctx context.Context, pair domain.Pair) (domain.ConversationId, error)

	mu               sync.Mutex
	findOrCreateArgs []domain.Pair
}

func (m *mockDirectory) ListAffiliatedClinics(ctx context.Context, operatorId domain.OperatorId) ([]domain.Clinic, error) {
	if m.listAffiliatedClinicsFunc != nil {
		return m.listAffiliatedClinicsFunc(ctx, operatorId)
	}
	return nil, nil
}

func (m *mockDirectory) FindOrCreateConversation(ctx context.Context, pair domain.Pair) (domain.ConversationId, error) {
	m.mu.Lock()
	m.findOrCreateArgs = append(m.findOrCreateArgs, pair)
	m.mu.Unlock()
	if m.findOrCreateConversationFunc != nil {
		return m.findOrCreateConversationFunc(ctx, pair)
	}
	return 100, nil
}

func (m *mockDirectory) findOrCreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.findOrCreateArgs)
}

// --- Helpers ---

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return baseTime.Add(time.Duration(minutes) * time.Minute) }

func idPtr(id domain.ConversationId) *domain.ConversationId { return &id }

func serverMsg(id domain.MsgId, conversationId domain.ConversationId, minutes int) domain.Message {
	return domain.Message{
		Id:             id,
		ConversationId: conversationId,
		SenderId:       7,
		SenderType:     domain.ParticipantClinic,
		SenderName:     "Clinic",
		Content:        "message",
		Kind:           domain.KindText,
		Status:         domain.StatusDelivered,
		CreatedAt:      at(minutes),
	}
}

func persisted(id domain.ConversationId, clinicId domain.ClinicId, operatorId domain.OperatorId, clinicName string, lastMinutes int) domain.Conversation {
	c := domain.Conversation{
		Id:        idPtr(id),
		Pair:      domain.Pair{ClinicId: clinicId, OperatorId: operatorId},
		Clinic:    domain.Clinic{Id: clinicId, Name: clinicName},
		Operator:  domain.Operator{Id: operatorId, Name: "Olga"},
		CreatedAt: baseTime,
	}
	if lastMinutes > 0 {
		c.LastMessage = &domain.LastMessage{Id: domain.MsgId(lastMinutes), Content: "hi", CreatedAt: at(lastMinutes)}
	}
	return c
}

var (
	operatorViewer = domain.Viewer{Id: 5, Role: domain.ParticipantOperator, Name: "Olga"}
	clinicViewer   = domain.Viewer{Id: 7, Role: domain.ParticipantClinic, Name: "Clinic"}
)

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/carebridge-dev/carebridge/internal/chat"
	"github.com/carebridge-dev/carebridge/internal/render"
	"github.com/carebridge-dev/carebridge/shared/domain"
	mw "github.com/carebridge-dev/carebridge/shared/middleware"
	"github.com/carebridge-dev/carebridge/shared/validation"
)

var (
	testViewer = domain.Viewer{Id: 5, Role: domain.ParticipantOperator, Name: "Olga"}
	baseTime   = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
)

const (
	persistedKey = "clinic:7/operator:5"
	virtualKey   = "clinic:8/operator:5"
)

// --- Mocks ---

type MockTransport struct {
	MockFetchMessages     func(ctx context.Context, conversationId domain.ConversationId, q domain.MessageQuery) ([]domain.Message, error)
	MockListConversations func(ctx context.Context) ([]domain.Conversation, error)
	MockCreateMessage     func(ctx context.Context, draft domain.MessageDraft) (domain.Message, error)
	MockUploadAttachment  func(ctx context.Context, upload domain.AttachmentUpload, progress domain.ProgressFunc) (domain.Message, error)
	MockUploadDocument    func(ctx context.Context, requestId domain.ClinicalRequestId, file *domain.PendingFile, progress domain.ProgressFunc) error
}

func (m *MockTransport) FetchMessages(ctx context.Context, conversationId domain.ConversationId, q domain.MessageQuery) ([]domain.Message, error) {
	if m.MockFetchMessages != nil {
		return m.MockFetchMessages(ctx, conversationId, q)
	}
	return nil, nil
}

func (m *MockTransport) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	if m.MockListConversations != nil {
		return m.MockListConversations(ctx)
	}
	return nil, nil
}

func (m *MockTransport) CreateMessage(ctx context.Context, draft domain.MessageDraft) (domain.Message, error) {
	if m.MockCreateMessage != nil {
		return m.MockCreateMessage(ctx, draft)
	}
	return domain.Message{}, nil
}

func (m *MockTransport) UploadAttachment(ctx context.Context, upload domain.AttachmentUpload, progress domain.ProgressFunc) (domain.Message, error) {
	if m.MockUploadAttachment != nil {
		return m.MockUploadAttachment(ctx, upload, progress)
	}
	return domain.Message{}, nil
}

func (m *MockTransport) UploadDocument(ctx context.Context, requestId domain.ClinicalRequestId, file *domain.PendingFile, progress domain.ProgressFunc) error {
	if m.MockUploadDocument != nil {
		return m.MockUploadDocument(ctx, requestId, file, progress)
	}
	return nil
}

type MockDirectory struct {
	MockListAffiliatedClinics    func(ctx context.Context, operatorId domain.OperatorId) ([]domain.Clinic, error)
	MockFindOrCreateConversation func(ctx context.Context, pair domain.Pair) (domain.ConversationId, error)
}

func (m *MockDirectory) ListAffiliatedClinics(ctx context.Context, operatorId domain.OperatorId) ([]domain.Clinic, error) {
	if m.MockListAffiliatedClinics != nil {
		return m.MockListAffiliatedClinics(ctx, operatorId)
	}
	return nil, nil
}

func (m *MockDirectory) FindOrCreateConversation(ctx context.Context, pair domain.Pair) (domain.ConversationId, error) {
	if m.MockFindOrCreateConversation != nil {
		return m.MockFindOrCreateConversation(ctx, pair)
	}
	return 0, nil
}

type stubSessions struct {
	engine *chat.Engine
	err    error
	tokens []string
}

func (s *stubSessions) Acquire(viewer domain.Viewer, token string) (*chat.Engine, bool, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, false, s.err
	}
	return s.engine, false, nil
}

// --- Helpers ---

func createRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, url, bytes.NewBuffer(body))
}

type testFile struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, url, field string, files ...testFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mpw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mpw.Close())
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func persistedConversation() domain.Conversation {
	id := domain.ConversationId(1)
	return domain.Conversation{
		Id:       &id,
		Pair:     domain.Pair{ClinicId: 7, OperatorId: 5},
		Clinic:   domain.Clinic{Id: 7, Name: "Sunrise Clinic"},
		Operator: domain.Operator{Id: 5, Name: "Olga"},
		LastMessage: &domain.LastMessage{
			Id: 10, SenderId: 7, SenderType: domain.ParticipantClinic, Content: "hello", Kind: domain.KindText, CreatedAt: baseTime,
		},
		CreatedAt: baseTime.Add(-time.Hour),
	}
}

func clinicMessage(id domain.MsgId, conversationId domain.ConversationId, text string) domain.Message {
	return domain.Message{
		Id: id, ConversationId: conversationId, SenderId: 7, SenderType: domain.ParticipantClinic, SenderName: "Sunrise Clinic",
		Content: text, Kind: domain.KindText, Status: domain.StatusSent, CreatedAt: baseTime, SendState: domain.SendConfirmed,
	}
}

func newTestTransport() *MockTransport {
	return &MockTransport{
		MockListConversations: func(ctx context.Context) ([]domain.Conversation, error) {
			return []domain.Conversation{persistedConversation()}, nil
		},
		MockFetchMessages: func(ctx context.Context, conversationId domain.ConversationId, q domain.MessageQuery) ([]domain.Message, error) {
			if q.SinceId > 0 {
				return nil, nil
			}
			return []domain.Message{clinicMessage(10, conversationId, "**hello**")}, nil
		},
		MockCreateMessage: func(ctx context.Context, draft domain.MessageDraft) (domain.Message, error) {
			return domain.Message{
				Id: 11, ConversationId: draft.ConversationId, SenderId: 5, SenderType: domain.ParticipantOperator,
				Content: draft.Content, Kind: domain.KindText, Status: domain.StatusSent, ClientRef: draft.ClientRef,
				CreatedAt: baseTime.Add(time.Minute),
			}, nil
		},
	}
}

func newTestDirectory() *MockDirectory {
	return &MockDirectory{
		MockListAffiliatedClinics: func(ctx context.Context, operatorId domain.OperatorId) ([]domain.Clinic, error) {
			return []domain.Clinic{{Id: 7, Name: "Sunrise Clinic"}, {Id: 8, Name: "Bay Clinic"}}, nil
		},
		MockFindOrCreateConversation: func(ctx context.Context, pair domain.Pair) (domain.ConversationId, error) {
			return 2, nil
		},
	}
}

func newTestEngine(t *testing.T, transport *MockTransport, directory *MockDirectory) *chat.Engine {
	t.Helper()
	engine := chat.New(chat.Options{
		Viewer:    testViewer,
		Transport: transport,
		Directory: directory,
		Policy:    validation.DefaultPolicy(),
		PageSize:  50,
	})
	t.Cleanup(engine.Close)
	return engine
}

func setupTestHandler(sessions Sessions, policy validation.AttachmentPolicy) *chi.Mux {
	h := New(sessions, render.New(), policy)
	router := chi.NewRouter()
	router.Get("/health", h.Health)

	router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := context.WithValue(r.Context(), mw.SessionKey, &mw.Session{Viewer: testViewer, Token: "token-1"})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		r.Get("/v1/me", h.GetViewer)
		r.Get("/v1/conversations", h.GetConversations)
		r.Post("/v1/conversations/select", h.SelectConversation)
		r.Get("/v1/messages", h.GetMessages)
		r.Post("/v1/messages", h.SendMessage)
		r.Post("/v1/messages/{id}/retry", h.RetryMessage)
		r.Post("/v1/attachments", h.SendAttachment)
		r.Get("/v1/uploads/progress", h.GetUploadProgress)
		r.Get("/v1/previews/{id}", h.GetPreview)
		r.Post("/v1/clinical-requests/{id}/documents", h.UploadDocuments)
		r.Post("/v1/polling/start", h.StartPolling)
		r.Post("/v1/polling/stop", h.StopPolling)
		r.Post("/v1/polling/tick", h.PollNow)
		r.Get("/v1/notifications", h.GetNotifications)
	})

	// No session middleware
	router.Get("/anonymous/messages", h.GetMessages)
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func selectConversation(t *testing.T, router http.Handler, key string) {
	t.Helper()
	rr := serve(router, createRequest(t, http.MethodPost, "/v1/conversations/select", selectBody(key)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func selectBody(key string) []byte {
	body, _ := json.Marshal(map[string]string{"key": key})
	return body
}

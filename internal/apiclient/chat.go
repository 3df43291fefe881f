package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

func (c *APIClient) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var resp api.ChatListResponse
	if err := c.doJSON(ctx, "list conversations", http.MethodGet, "/v1/chats", nil, &resp); err != nil {
		return nil, err
	}
	convs := make([]domain.Conversation, 0, len(resp.Chats))
	for _, dto := range resp.Chats {
		convs = append(convs, conversationFromDTO(dto))
	}
	return convs, nil
}

func (c *APIClient) ListAffiliatedClinics(ctx context.Context, operatorId domain.OperatorId) ([]domain.Clinic, error) {
	var resp api.ClinicListResponse
	path := fmt.Sprintf("/v1/operators/%d/clinics", operatorId)
	if err := c.doJSON(ctx, "list affiliated clinics", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	clinics := make([]domain.Clinic, 0, len(resp.Clinics))
	for _, dto := range resp.Clinics {
		if dto.Id == 0 {
			continue
		}
		clinics = append(clinics, clinicFromDTO(dto))
	}
	return clinics, nil
}

func (c *APIClient) FindOrCreateConversation(ctx context.Context, pair domain.Pair) (domain.ConversationId, error) {
	var resp api.FindOrCreateChatResponse
	req := api.FindOrCreateChatRequest{ClinicId: pair.ClinicId, OperatorId: pair.OperatorId}
	if err := c.doJSON(ctx, "find or create conversation", http.MethodPost, "/v1/chats/find-or-create", req, &resp); err != nil {
		return 0, err
	}
	if resp.Id <= 0 {
		return 0, fmt.Errorf("find or create conversation: server returned invalid id %d", resp.Id)
	}
	logger.Log.Debug("find or create conversation",
		"component", "apiclient",
		"key", pair.Key(),
		"conversation_id", resp.Id,
		"created", resp.Created)
	return resp.Id, nil
}

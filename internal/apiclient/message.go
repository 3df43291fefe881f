package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
)

func (c *APIClient) FetchMessages(ctx context.Context, conversationId domain.ConversationId, q domain.MessageQuery) ([]domain.Message, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.SinceId > 0 {
		params.Set("since_id", strconv.FormatInt(q.SinceId, 10))
	}
	path := fmt.Sprintf("/v1/chats/%d/messages", conversationId)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp api.MessageListResponse
	if err := c.doJSON(ctx, "fetch messages", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(resp.Messages))
	for _, dto := range resp.Messages {
		m := messageFromDTO(dto)
		if m.ConversationId == 0 {
			m.ConversationId = conversationId
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (c *APIClient) CreateMessage(ctx context.Context, draft domain.MessageDraft) (domain.Message, error) {
	var resp api.MessageDTO
	path := fmt.Sprintf("/v1/chats/%d/messages", draft.ConversationId)
	req := api.CreateMessageRequest{Content: draft.Content, ClientRef: draft.ClientRef}
	if err := c.doJSON(ctx, "create message", http.MethodPost, path, req, &resp); err != nil {
		return domain.Message{}, err
	}
	m := messageFromDTO(resp)
	if m.ConversationId == 0 {
		m.ConversationId = draft.ConversationId
	}
	return m, nil
}

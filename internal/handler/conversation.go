package handler

import (
	"net/http"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/utils"
)

func toConversationResponse(c domain.Conversation, viewer domain.Viewer, activeKey string) api.ConversationResponse {
	resp := api.ConversationResponse{
		Key:     c.Key(),
		Id:      c.Id,
		Virtual: c.IsVirtual(),
		Title:   c.Title(viewer),
		Unread:  c.Unread(viewer),
		Active:  c.Key() == activeKey,
	}
	if c.LastMessage != nil {
		resp.LastMessage = c.LastMessage.Content
	}
	if at := c.ActivityAt(); !at.IsZero() {
		resp.ActivityAt = &at
	}
	return resp
}

// GetConversations reloads the conversation list and returns it in display order.
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	if err := engine.Refresh(r.Context()); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var activeKey string
	if active, ok := engine.ActiveConversation(); ok {
		activeKey = active.Key()
	}
	convs := engine.Conversations()
	resp := api.ConversationsResponse{Conversations: make([]api.ConversationResponse, len(convs))}
	for i, c := range convs {
		resp.Conversations[i] = toConversationResponse(c, engine.Viewer(), activeKey)
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// SelectConversation opens the conversation and returns its messages.
func (h *Handler) SelectConversation(w http.ResponseWriter, r *http.Request) {
	var body api.SelectConversationRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if _, err := domain.ParsePairKey(body.Key); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	if err := engine.SelectConversation(r.Context(), body.Key); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.messagesResponse(engine))
}

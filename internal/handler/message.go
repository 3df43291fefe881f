package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge-dev/carebridge/internal/chat"
	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/utils"
)

func (h *Handler) toMessageResponse(m domain.Message, viewer domain.Viewer) api.MessageResponse {
	resp := api.MessageResponse{
		Id:          m.Id,
		Provisional: m.IsProvisional(),
		Mine:        viewer.Is(m.SenderId, m.SenderType),
		SenderName:  m.SenderName,
		Content:     m.Content,
		Kind:        string(m.Kind),
		Status:      string(m.Status),
		SendState:   string(m.SendState),
		CreatedAt:   m.CreatedAt,
	}
	if m.Kind == domain.KindText {
		resp.ContentHTML = h.renderer.Render(m.Content)
	}
	if a := m.Attachment; a != nil {
		resp.Attachment = &api.AttachmentResponse{
			FileName:    a.FileName,
			SizeBytes:   a.SizeBytes,
			MimeType:    a.MimeType,
			URL:         a.URL,
			Progress:    a.Progress,
			ImageWidth:  a.ImageWidth,
			ImageHeight: a.ImageHeight,
		}
	}
	return resp
}

func (h *Handler) messagesResponse(engine *chat.Engine) api.MessagesResponse {
	msgs := engine.Messages()
	resp := api.MessagesResponse{
		ScrollSeq: engine.ScrollSeq(),
		Messages:  make([]api.MessageResponse, len(msgs)),
	}
	if active, ok := engine.ActiveConversation(); ok {
		resp.ConversationKey = active.Key()
		if active.Id != nil {
			resp.ConversationId = *active.Id
		}
	}
	for i, m := range msgs {
		resp.Messages[i] = h.toMessageResponse(m, engine.Viewer())
	}
	return resp
}

// writeSendResult answers a send or retry. A message that reached the view
// but failed delivery is returned with the error status so the client can
// offer a retry.
func (h *Handler) writeSendResult(w http.ResponseWriter, engine *chat.Engine, msg domain.Message, err error) {
	if err != nil {
		if msg.SendState == domain.SendFailed {
			utils.WriteJSON(w, utils.StatusCode(err), h.toMessageResponse(msg, engine.Viewer()))
			return
		}
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, h.toMessageResponse(msg, engine.Viewer()))
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.messagesResponse(engine))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body api.SendMessageRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	msg, err := engine.Send(r.Context(), body.Text)
	h.writeSendResult(w, engine, msg, err)
}

func (h *Handler) RetryMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(chi.URLParam(r, "id"), "message id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	msg, err := engine.Retry(r.Context(), domain.MsgId(id))
	h.writeSendResult(w, engine, msg, err)
}

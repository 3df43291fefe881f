package handler

import (
	"net/http"

	"github.com/carebridge-dev/carebridge/internal/chat"
	"github.com/carebridge-dev/carebridge/internal/render"
	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/domain"
	mw "github.com/carebridge-dev/carebridge/shared/middleware"
	"github.com/carebridge-dev/carebridge/shared/utils"
	"github.com/carebridge-dev/carebridge/shared/validation"
)

// Sessions hands out the sync engine of the authenticated viewer.
type Sessions interface {
	Acquire(viewer domain.Viewer, token string) (engine *chat.Engine, created bool, err error)
}

type Handler struct {
	sessions Sessions
	renderer *render.TextRenderer
	policy   validation.AttachmentPolicy
}

func New(sessions Sessions, renderer *render.TextRenderer, policy validation.AttachmentPolicy) *Handler {
	return &Handler{sessions: sessions, renderer: renderer, policy: policy}
}

// engine writes the error response itself and returns nil when the request
// has no usable session.
func (h *Handler) engine(w http.ResponseWriter, r *http.Request) *chat.Engine {
	session := mw.GetSessionFromContext(r)
	if session == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return nil
	}
	engine, _, err := h.sessions.Acquire(session.Viewer, session.Token)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return nil
	}
	return engine
}

func (h *Handler) GetViewer(w http.ResponseWriter, r *http.Request) {
	session := mw.GetSessionFromContext(r)
	if session == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.ViewerResponse{
		Id:   session.Viewer.Id,
		Role: string(session.Viewer.Role),
		Name: session.Viewer.Name,
	})
}

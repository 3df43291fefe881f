package handler

import (
	"net/http"

	"github.com/carebridge-dev/carebridge/shared/api"
	"github.com/carebridge-dev/carebridge/shared/utils"
)

func (h *Handler) StartPolling(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	engine.StartPolling()
	utils.WriteJSON(w, http.StatusOK, api.PollingResponse{Polling: engine.Polling()})
}

func (h *Handler) StopPolling(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	engine.StopPolling()
	utils.WriteJSON(w, http.StatusOK, api.PollingResponse{Polling: engine.Polling()})
}

// PollNow runs one reconciliation pass for clients that drive polling themselves.
func (h *Handler) PollNow(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	n, err := engine.PollNow(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.PollResponse{Fetched: n})
}

// GetNotifications drains the notifications produced since the last call.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w, r)
	if engine == nil {
		return
	}
	notes := engine.Notifications()
	resp := api.NotificationsResponse{Notifications: make([]api.NotificationResponse, len(notes))}
	for i, n := range notes {
		resp.Notifications[i] = api.NotificationResponse{Level: string(n.Level), Message: n.Message, At: n.At}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

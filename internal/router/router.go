package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/carebridge-dev/carebridge/internal/setup"
	mw "github.com/carebridge-dev/carebridge/shared/middleware"
	"github.com/carebridge-dev/carebridge/shared/middleware/metrics"
)

// JSON API only, previews are fetched by the UI as blobs
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// New creates the chi router with all the routes.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, apiCSP))

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.NeedAuth())
		r.Use(mw.RateLimit(deps.RateLimiters.Requests, mw.GetViewerIdentity))
		sendLimit := mw.RateLimit(deps.RateLimiters.Sends, mw.GetViewerIdentity)

		r.Get("/me", h.GetViewer)

		r.Get("/conversations", h.GetConversations)
		r.Post("/conversations/select", h.SelectConversation)

		r.Get("/messages", h.GetMessages)
		r.With(sendLimit).Post("/messages", h.SendMessage)
		r.With(sendLimit).Post("/messages/{id}/retry", h.RetryMessage)

		r.With(sendLimit).Post("/attachments", h.SendAttachment)
		r.Get("/uploads/progress", h.GetUploadProgress)
		r.Get("/previews/{id}", h.GetPreview)
		r.With(sendLimit).Post("/clinical-requests/{id}/documents", h.UploadDocuments)

		r.Post("/polling/start", h.StartPolling)
		r.Post("/polling/stop", h.StopPolling)
		r.Post("/polling/tick", h.PollNow)

		r.Get("/notifications", h.GetNotifications)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})
	return r
}

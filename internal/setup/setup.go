package setup

import (
	"time"

	"github.com/carebridge-dev/carebridge/internal/apiclient"
	"github.com/carebridge-dev/carebridge/internal/chat"
	"github.com/carebridge-dev/carebridge/internal/handler"
	"github.com/carebridge-dev/carebridge/internal/render"
	"github.com/carebridge-dev/carebridge/internal/session"
	"github.com/carebridge-dev/carebridge/shared/config"
	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/carebridge-dev/carebridge/shared/jwt"
	mw "github.com/carebridge-dev/carebridge/shared/middleware"
	"github.com/carebridge-dev/carebridge/shared/middleware/ratelimiter"
)

const limiterIdleTTL = time.Hour

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	Sessions       *session.Registry
	Jwt            jwt.JwtService
	RateLimiters   RateLimiters
}

type RateLimiters struct {
	Requests *ratelimiter.Limiter
	Sends    *ratelimiter.Limiter
}

// All returns every limiter, for background sweeping.
func (r RateLimiters) All() []*ratelimiter.Limiter {
	return []*ratelimiter.Limiter{r.Requests, r.Sends}
}

// EngineFactory builds one engine per viewer. All engines share the HTTP
// connection pool of base and authenticate with the viewer's own token.
func EngineFactory(cfg *config.Config, base *apiclient.APIClient) session.Factory {
	return func(viewer domain.Viewer, creds *session.Credentials) *chat.Engine {
		client := base.WithTokens(creds)
		return chat.New(chat.Options{
			Viewer:             viewer,
			Transport:          client,
			Directory:          client,
			Policy:             cfg.AttachmentPolicy(),
			PollInterval:       cfg.Public.Chat.PollInterval,
			PageSize:           cfg.Public.Chat.PageSize,
			ProgressClearDelay: cfg.Public.Attachments.ProgressClearDelay,
			BatchDelay:         cfg.Public.Attachments.BatchDelay,
		})
	}
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	base := apiclient.New(cfg.Public.ApiBaseURL, cfg.Public.HTTPTimeout, nil)
	sessions := session.NewRegistry(EngineFactory(cfg, base), cfg.Public.SessionIdleTTL)

	rl := cfg.Public.RateLimit
	h := handler.New(sessions, render.New(), cfg.AttachmentPolicy())

	return &Dependencies{
		Config:         cfg,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(jwtService),
		Sessions:       sessions,
		Jwt:            jwtService,
		RateLimiters: RateLimiters{
			Requests: ratelimiter.New(rl.RequestsPerSecond, rl.RequestBurst, limiterIdleTTL),
			Sends:    ratelimiter.New(rl.SendsPerSecond, rl.SendBurst, limiterIdleTTL),
		},
	}, nil
}

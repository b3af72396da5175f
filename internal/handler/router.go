package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventcorner/assistant/internal/middleware"
	"github.com/eventcorner/assistant/pkg/logger"
)

// RouterOptions configures the HTTP boundary.
type RouterOptions struct {
	Logger             *logger.Logger
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// Handlers groups the endpoint handlers. Drafts is nil when the draft stream
// is disabled.
type Handlers struct {
	Health       *HealthHandler
	Conversation *ConversationHandler
	Analyze      *AnalyzeHandler
	Drafts       *DraftHandler
}

// NewRouter wires middleware and routes.
func NewRouter(opts RouterOptions, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(opts.CORSAllowedOrigins))

	r.Get("/", h.Health.Root)
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitRequests, opts.RateLimitWindow))
		}
		r.Post("/analyze", h.Analyze.Analyze)
		r.Post("/chat", h.Conversation.Chat)
		r.Post("/create-event-conversation", h.Conversation.CreateEventConversation)
	})

	if h.Drafts != nil {
		r.Get("/drafts", h.Drafts.List)
	}

	return r
}

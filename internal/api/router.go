package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"supportline-backend/internal/config"
	"supportline-backend/internal/handlers"
)

// RouterDependencies holds everything the router setup needs, primarily
// handlers and configuration.
type RouterDependencies struct {
	AuthHandler       *handlers.AuthHandler
	ChatHandler       *handlers.ChatHandler
	OrgHandler        *handlers.OrgHandler
	SlackEventHandler *handlers.SlackEventHandler
	Config            *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Chat requests block on the assistant run, so the request timeout must
	// outlast the run deadline.
	r.Use(middleware.Timeout(deps.Config.AssistantRunTimeout + 30*time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173", "https://*.vercel.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Inbound message entry point for the web widget. Authenticated by
	// knowledge of the conversation id, not by JWT.
	r.Post("/chat", deps.ChatHandler.HandleChat)

	// Slack event webhooks have to stay public for Slack to reach them.
	r.Route("/events", func(r chi.Router) {
		r.Post("/slack", deps.SlackEventHandler.HandleSlashEvent)
		r.Post("/slack-bot", deps.SlackEventHandler.HandleBotEvent)
	})

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		r.Route("/organisations", func(r chi.Router) {
			r.Post("/", deps.OrgHandler.HandleCreateOrganisation)

			r.Route("/{orgID}", func(r chi.Router) {
				r.Get("/", deps.OrgHandler.HandleGetOrganisation)
				r.Patch("/settings", deps.OrgHandler.HandleUpdateSettings)

				r.Get("/conversations", deps.OrgHandler.HandleListConversations)
				r.Get("/conversations/{conversationID}/messages", deps.OrgHandler.HandleListMessages)

				r.Post("/knowledge-files", deps.OrgHandler.HandleUploadKnowledgeFile)
				r.Get("/knowledge-files", deps.OrgHandler.HandleListKnowledgeFiles)
			})
		})
	})

	return r
}

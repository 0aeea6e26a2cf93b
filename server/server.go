// ABOUTME: HTTP server with chi router exposing the canvas API over JSON.
// ABOUTME: Wires session, project, template, settings, credit, and history routes with auth middleware.

package server

import (
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/litai12/Tanva-sub008/store"
)

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *log.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server holds the chi router, the live session store, and the persistence
// layer. It implements http.Handler.
type Server struct {
	router   chi.Router
	sessions *SessionStore
	db       *store.Store
	cfg      *Config
	md       goldmark.Markdown
	logger   *log.Logger
}

// NewServer creates a Server with all routes configured.
func NewServer(cfg *Config, db *store.Store, sessions *SessionStore, opts ...ServerOption) *Server {
	s := &Server{
		sessions: sessions,
		db:       db,
		cfg:      cfg,
		md:       goldmark.New(),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthToken))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)

				r.Get("/document", s.handleExportDocument)
				r.Post("/document", s.handleLoadDocument)
				r.Post("/save", s.handleSaveToProject)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)

				r.Post("/nodes", s.handleAddNode)
				r.Get("/nodes/{nodeID}", s.handleGetNode)
				r.Delete("/nodes/{nodeID}", s.handleRemoveNode)
				r.Post("/nodes/{nodeID}/fields", s.handleSetField)
				r.Post("/nodes/{nodeID}/options", s.handleSetOptions)
				r.Post("/nodes/{nodeID}/run", s.handleRunNode)
				r.Post("/nodes/{nodeID}/reset", s.handleResetNode)

				r.Post("/edges", s.handleConnect)
				r.Delete("/edges/{edgeID}", s.handleDisconnect)

				r.Get("/events", s.handleEvents)
				r.Get("/history", s.handleSessionHistory)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Get("/{id}", s.handleGetProject)
			r.Post("/{id}/rename", s.handleRenameProject)
			r.Delete("/{id}", s.handleDeleteProject)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Get("/{id}", s.handleGetTemplate)
			r.Put("/{id}", requireAdmin(cfg.AdminToken, s.handlePutTemplate))
			r.Delete("/{id}", requireAdmin(cfg.AdminToken, s.handleDeleteTemplate))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", requireAdmin(cfg.AdminToken, s.handleListSettings))
			r.Put("/{key}", requireAdmin(cfg.AdminToken, s.handleSetSetting))
			r.Delete("/{key}", requireAdmin(cfg.AdminToken, s.handleDeleteSetting))
		})

		r.Route("/credits", func(r chi.Router) {
			r.Get("/", s.handleCreditBalance)
			r.Get("/ledger", s.handleCreditLedger)
			r.Post("/grant", requireAdmin(cfg.AdminToken, s.handleCreditGrant))
		})

		r.Get("/history", s.handleGlobalHistory)
	})

	s.router = r
	return s
}

// ServeHTTP implements the http.Handler interface, delegating to the chi
// router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

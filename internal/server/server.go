// Package server exposes the GitHub tools to MCP clients, either as JSON over
// HTTP (this file) or as MCP over stdio (stdio.go).
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-mcp/internal/tools"
)

// maxRequestBytes bounds the size of a /mcp/call body.
const maxRequestBytes = 10 << 20

// Config contains HTTP transport settings.
type Config struct {
	// Token guards /mcp/* with a bearer check when non-empty.
	Token string
}

// Server holds the configured router and the tool dispatcher behind it.
type Server struct {
	cfg    Config
	router *chi.Mux
	tools  Caller
	logger *slog.Logger
}

// New constructs a Server with middleware and routes configured.
func New(cfg Config, caller Caller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		tools:  caller,
		logger: logger,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/tools", s.handleListTools)
		r.Post("/call", s.handleCall)
		r.Get("/resources", s.handleListResources)
		r.Get("/resources/templates", s.handleListResourceTemplates)
	})

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	specs := s.tools.Tools()
	out := make([]Tool, 0, len(specs))
	for _, spec := range specs {
		out = append(out, Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema(),
		})
	}
	writeJSON(w, http.StatusOK, ToolsList{Tools: out})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, tools.InvalidRequest("invalid json: %v", err))
		return
	}
	if req.Name == "" {
		s.writeError(w, r, tools.InvalidRequest("tool name is required"))
		return
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}

	env, err := s.tools.Call(r.Context(), req.Name, tools.Arguments(req.Args))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// This server has no addressable resources; the listings exist so generic
// MCP clients can probe them.
func (s *Server) handleListResources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ResourcesList{Resources: []any{}})
}

func (s *Server) handleListResourceTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ResourceTemplatesList{ResourceTemplates: []any{}})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *tools.Error
	if !errors.As(err, &perr) {
		s.logger.ErrorContext(r.Context(), "tool call failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		perr = tools.AsError(err)
	}
	writeJSON(w, perr.HTTPStatus(), ErrorResponse{Error: ErrorBody{
		Code:    perr.Code.String(),
		Message: perr.Message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

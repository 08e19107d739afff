// Package api exposes the HTTP interface for the scraping service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pagevault/pagevault/internal/metrics"
	"github.com/pagevault/pagevault/internal/resource"
	"github.com/pagevault/pagevault/internal/scrape"
	"github.com/pagevault/pagevault/internal/strategy"
)

// Server wires HTTP handlers to the orchestrator and stores.
type Server struct {
	router       chi.Router
	orchestrator *scrape.Orchestrator
	resources    resource.Store
	strategies   strategy.Store
	logger       *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	orchestrator *scrape.Orchestrator,
	resources resource.Store,
	strategies strategy.Store,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		orchestrator: orchestrator,
		resources:    resources,
		strategies:   strategies,
		logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scrape", s.scrapeURL)
		r.Get("/strategies", s.listStrategies)
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", s.listResources)
			r.Get("/content", s.readResource)
			r.Delete("/", s.deleteResource)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scrapeRequestBody struct {
	URL             string `json:"url"`
	MaxChars        int    `json:"max_chars,omitempty"`
	Extract         string `json:"extract,omitempty"`
	SaveResult      *bool  `json:"save_result,omitempty"`
	OnlyMainContent bool   `json:"only_main_content,omitempty"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
}

func (s *Server) scrapeURL(w http.ResponseWriter, r *http.Request) {
	var body scrapeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req := scrape.Request{
		URL:             body.URL,
		MaxChars:        body.MaxChars,
		ExtractPrompt:   body.Extract,
		SaveResult:      true,
		OnlyMainContent: body.OnlyMainContent,
	}
	if body.SaveResult != nil {
		req.SaveResult = *body.SaveResult
	}
	if body.TimeoutSeconds > 0 {
		req.Timeout = time.Duration(body.TimeoutSeconds) * time.Second
	}

	result, err := s.orchestrator.Scrape(r.Context(), req)
	if err != nil {
		var validationErr *scrape.ValidationError
		var exhaustedErr *scrape.ChainExhaustedError
		switch {
		case errors.As(err, &validationErr):
			writeJSON(w, http.StatusBadRequest, result)
		case errors.As(err, &exhaustedErr):
			writeJSON(w, http.StatusBadGateway, result)
		default:
			writeJSON(w, http.StatusInternalServerError, result)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listStrategies(w http.ResponseWriter, r *http.Request) {
	entries, err := s.strategies.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategies": entries})
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	if url := r.URL.Query().Get("url"); url != "" {
		s.findResources(w, r, url)
		return
	}
	resources, err := s.resources.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

func (s *Server) findResources(w http.ResponseWriter, r *http.Request, url string) {
	var (
		resources []resource.Resource
		err       error
	)
	if prompt, hasPrompt := promptParam(r); hasPrompt {
		resources, err = s.resources.FindByURLAndPrompt(r.Context(), url, prompt)
	} else {
		resources, err = s.resources.FindByURL(r.Context(), url)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

// promptParam distinguishes "no extract filter" from "filter for promptless
// resources": the parameter's presence matters, not just its value.
func promptParam(r *http.Request) (string, bool) {
	values := r.URL.Query()
	if _, ok := values["extract"]; !ok {
		return "", false
	}
	return values.Get("extract"), true
}

func (s *Server) readResource(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "uri query parameter is required")
		return
	}
	content, mimeType, err := s.resources.Read(r.Context(), uri)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			writeError(w, http.StatusNotFound, "resource not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"uri":       uri,
		"mime_type": mimeType,
		"content":   content,
	})
}

func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "uri query parameter is required")
		return
	}
	if err := s.resources.Delete(r.Context(), uri); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			writeError(w, http.StatusNotFound, "resource not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": uri})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are gone; nothing left to do but note it.
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

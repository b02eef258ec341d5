//
// Tencent is pleased to support the open source community by making trpc-rag-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-rag-go is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the retrieval pipeline over HTTP JSON endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-rag-go/chat"
	"trpc.group/trpc-go/trpc-rag-go/config"
	"trpc.group/trpc-go/trpc-rag-go/document"
	"trpc.group/trpc-go/trpc-rag-go/indexer"
	"trpc.group/trpc-go/trpc-rag-go/language"
	"trpc.group/trpc-go/trpc-rag-go/log"
	"trpc.group/trpc-go/trpc-rag-go/search"
)

// Answerer runs the full answer pipeline for one request.
type Answerer interface {
	ExtractAnswer(ctx context.Context, req *chat.Request) (*chat.Response, error)
}

// Searcher retrieves documents for a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int, includeText bool) ([]*document.Document, error)
}

// IndexRunner rebuilds one corpus index.
type IndexRunner interface {
	Run(ctx context.Context) (*indexer.Stats, error)
}

// Provider hands out per-corpus pipelines. The registry satisfies it through
// a thin adapter.
type Provider interface {
	Answerer(region, language string) Answerer
	Searcher(region, language string) Searcher
	Indexer(region, language string) IndexRunner
}

// Server is the HTTP front of the service.
type Server struct {
	router    *mux.Router
	provider  Provider
	languages chat.LanguageService
	cfg       *config.Config
}

// New creates the HTTP server.
func New(cfg *config.Config, provider Provider, languages chat.LanguageService) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		provider:  provider,
		languages: languages,
		cfg:       cfg,
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.router.Use(c.Handler)
	s.router.Use(requestIDMiddleware)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", s.cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/chatanswers/extract_answer/", s.handleExtractAnswer).Methods(http.MethodPost)
	s.router.HandleFunc("/search/documents/", s.handleSearchDocuments).Methods(http.MethodPost)
	s.router.HandleFunc("/translate/message/", s.handleTranslateMessage).Methods(http.MethodPost)
	s.router.HandleFunc("/translate/detect/", s.handleDetectLanguage).Methods(http.MethodPost)
	s.router.HandleFunc("/chatanswers/update_vdb/", s.handleUpdateVDB).Methods(http.MethodPost)

	// Aliases kept for older clients.
	s.router.HandleFunc("/chatanswers/search_documents/", s.handleSearchDocuments).Methods(http.MethodPost)
	s.router.HandleFunc("/chatanswers/translate_message/", s.handleTranslateMessage).Methods(http.MethodPost)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// requestIDMiddleware tags every request with an identifier for log
// correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugf("%s %s request_id=%s duration=%s", r.Method, r.URL.Path, requestID, time.Since(start))
	})
}

type extractAnswerRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	Region   string `json:"region"`
}

func (s *Server) handleExtractAnswer(w http.ResponseWriter, r *http.Request) {
	var payload extractAnswerRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	req, err := chat.NewRequest(payload.Message, payload.Language, payload.Region,
		s.languages, s.cfg.RAGSupportedLanguages, s.cfg.RAGFallbackLanguage)
	if err != nil {
		writeValidationError(w, "message, language and region are required")
		return
	}
	response, err := s.provider.Answerer(payload.Region, payload.Language).ExtractAnswer(r.Context(), req)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response.Payload())
}

type searchDocumentsRequest struct {
	Message     string `json:"message"`
	Language    string `json:"language"`
	Region      string `json:"region"`
	IncludeText *bool  `json:"include_text,omitempty"`
}

type searchDocumentsResponse struct {
	RelatedDocuments []*document.Document `json:"related_documents"`
	SearchTerm       string               `json:"search_term"`
	Status           string               `json:"status"`
}

func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	var payload searchDocumentsRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	req, err := chat.NewRequest(payload.Message, payload.Language, payload.Region,
		s.languages, s.cfg.RAGSupportedLanguages, s.cfg.RAGFallbackLanguage)
	if err != nil {
		writeValidationError(w, "message, language and region are required")
		return
	}
	includeText := true
	if payload.IncludeText != nil {
		includeText = *payload.IncludeText
	}

	term, err := req.PipelineMessage(r.Context())
	if err != nil {
		writePipelineError(w, err)
		return
	}
	docs, err := s.provider.Searcher(payload.Region, payload.Language).
		Search(r.Context(), term, s.cfg.SearchMaxDocuments, includeText)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	docs = filterDocuments(docs, s.cfg.SearchMaxPages, s.cfg.SearchDistanceThreshold, includeText)
	writeJSON(w, http.StatusOK, &searchDocumentsResponse{
		RelatedDocuments: docs,
		SearchTerm:       term,
		Status:           chat.StatusSuccess,
	})
}

type translateMessageRequest struct {
	SourceLanguage      string `json:"source_language"`
	TargetLanguage      string `json:"target_language"`
	Message             string `json:"message"`
	ForceSourceLanguage bool   `json:"force_source_language,omitempty"`
}

type translateMessageResponse struct {
	Translation    string `json:"translation"`
	TargetLanguage string `json:"target_language"`
	Status         string `json:"status"`
}

func (s *Server) handleTranslateMessage(w http.ResponseWriter, r *http.Request) {
	var payload translateMessageRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if payload.SourceLanguage == "" || payload.TargetLanguage == "" || payload.Message == "" {
		writeValidationError(w, "source_language, target_language and message are required")
		return
	}
	source := payload.SourceLanguage
	if !payload.ForceSourceLanguage {
		detected, err := s.languages.Detect(r.Context(), payload.Message)
		if err != nil {
			writePipelineError(w, err)
			return
		}
		source = detected
	}
	translation, err := s.languages.Translate(r.Context(), source, payload.TargetLanguage, payload.Message)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &translateMessageResponse{
		Translation:    translation,
		TargetLanguage: payload.TargetLanguage,
		Status:         chat.StatusSuccess,
	})
}

type detectLanguageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleDetectLanguage(w http.ResponseWriter, r *http.Request) {
	var payload detectLanguageRequest
	if err := decodeJSON(r, &payload); err != nil || payload.Message == "" {
		writeValidationError(w, "message is required")
		return
	}
	detected, err := s.languages.Detect(r.Context(), payload.Message)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"detected_language": detected,
		"status":            chat.StatusSuccess,
	})
}

type updateVDBRequest struct {
	Region   string `json:"region"`
	Language string `json:"language"`
}

func (s *Server) handleUpdateVDB(w http.ResponseWriter, r *http.Request) {
	var payload updateVDBRequest
	if err := decodeJSON(r, &payload); err != nil || payload.Region == "" || payload.Language == "" {
		writeValidationError(w, "region and language are required")
		return
	}
	stats, err := s.provider.Indexer(payload.Region, payload.Language).Run(r.Context())
	if errors.Is(err, indexer.ErrUnsupportedLanguage) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "not supported language"})
		return
	}
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		*indexer.Stats
	}{chat.StatusSuccess, stats})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filterDocuments applies page dedup and, when page details were requested,
// drops documents whose enrichment failed.
func filterDocuments(docs []*document.Document, maxPages int, maxScore float64, includeText bool) []*document.Document {
	docs = search.DeduplicatePages(docs, maxPages, maxScore)
	if !includeText {
		return docs
	}
	kept := make([]*document.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Enriched() {
			kept = append(kept, doc)
		}
	}
	return kept
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func writeValidationError(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"status": chat.StatusError,
		"reason": reason,
	})
}

// writePipelineError maps unsupported language pairs to 404 with a reason,
// everything else to an opaque 500.
func writePipelineError(w http.ResponseWriter, err error) {
	var pairErr *language.UnsupportedLanguagePairError
	if errors.As(err, &pairErr) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"status": chat.StatusError,
			"reason": pairErr.Error(),
		})
		return
	}
	log.Errorf("request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"status": chat.StatusError,
	})
}

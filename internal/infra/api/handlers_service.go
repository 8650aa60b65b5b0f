package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
)

type promptResponse struct {
	Kind        model.PromptKind `json:"kind"`
	Prompt      string           `json:"prompt"`
	GeneratedAt time.Time        `json:"generated_at"`
	Output      string           `json:"output,omitempty"`
}

func (s *Server) handleGTMM(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !s.bind(w, r, &req) {
		return
	}
	in := req.toModel(model.PromptKind(chi.URLParam(r, "kind")))

	if r.URL.Query().Get("execute") != "true" {
		p, err := s.gtmm.Generate(r.Context(), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, promptResponse{Kind: p.Kind, Prompt: p.Text, GeneratedAt: p.GeneratedAt})
		return
	}

	p, out, err := s.gtmm.Execute(r.Context(), in)
	if err != nil {
		if p != nil && errors.Is(err, domain.ErrNotConfigured) {
			writeJSON(w, http.StatusNotImplemented, map[string]any{
				"error":  "no LLM provider is configured",
				"prompt": p.Text,
			})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{Kind: p.Kind, Prompt: p.Text, GeneratedAt: p.GeneratedAt, Output: out})
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !s.bind(w, r, &req) {
		return
	}
	if err := s.notifications.SendEmail(r.Context(), req.To, req.Subject, req.Template, req.Data); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (s *Server) handleSendSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if !s.bind(w, r, &req) {
		return
	}
	if err := s.notifications.SendSMS(r.Context(), req.To, req.Body); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
}

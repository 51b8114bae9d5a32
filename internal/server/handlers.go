package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.CallerID = callerID(r)
	s.logger.Debug("search request", zap.String("caller", req.CallerID), zap.String("keyword", req.RawQuery))

	outcome, err := s.service.Search(r.Context(), req)
	if err != nil {
		status, msg := searchStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("search failed", zap.String("caller", req.CallerID), zap.Error(err))
		}
		s.respondError(w, status, msg)
		return
	}
	if outcome.Questions == nil {
		outcome.Questions = []string{}
	}
	s.respondJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.service.Answer(r.Context(), req)
	if err != nil {
		status, msg := questionStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("question failed", zap.Error(err))
		}
		s.respondError(w, status, msg)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBurstLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.ObserveLimit("burst")
	s.respondError(w, http.StatusTooManyRequests, msgTooMany)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a size-limited JSON body into v, responding with an error on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return false
		}
		s.respondError(w, http.StatusBadRequest, msgBadRequest)
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Message: message})
}

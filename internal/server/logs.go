package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/searchlog"
)

const maxTailLines = 5000

// handleLogs serves the tail of a daily audit file to operators holding the log secret.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedForLogs(r) {
		s.respondError(w, http.StatusForbidden, msgForbidden)
		return
	}
	kind := chi.URLParam(r, "kind")
	date := chi.URLParam(r, "date")
	if date == "today" {
		date = time.Now().In(s.location).Format(searchlog.DateLayout)
	}

	n := s.logs.TailLines
	if v := r.URL.Query().Get("lines"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		n = min(parsed, maxTailLines)
	}

	lines, err := searchlog.Tail(s.logs.Dir, kind, date, n)
	switch {
	case errors.Is(err, searchlog.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, msgBadRequest)
		return
	case errors.Is(err, searchlog.ErrNoLog):
		s.respondError(w, http.StatusNotFound, msgNoLog)
		return
	case err != nil:
		s.logger.Error("log tail failed", zap.String("kind", kind), zap.String("date", date), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, msgLogFailed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if len(lines) > 0 {
		_, _ = w.Write([]byte(strings.Join(lines, "\n") + "\n"))
	}
}

// authorizedForLogs reports whether r carries the configured secret. An empty
// secret disables the endpoint.
func (s *Server) authorizedForLogs(r *http.Request) bool {
	if s.logs.Secret == "" || s.logs.Dir == "" {
		return false
	}
	got := r.Header.Get(headerLogSecret)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.logs.Secret)) == 1
}

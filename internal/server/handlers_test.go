package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/answer"
	"github.com/hyperjump/gunggeum/internal/config"
	"github.com/hyperjump/gunggeum/internal/guard"
	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/internal/metrics"
	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/internal/ratelimit"
	"github.com/hyperjump/gunggeum/internal/search"
	"github.com/hyperjump/gunggeum/internal/searchlog"
)

type fakeService struct {
	searchErr   error
	answerErr   error
	lastSearch  models.SearchRequest
	searchCalls int
}

func (f *fakeService) Search(_ context.Context, req models.SearchRequest) (*models.SearchOutcome, error) {
	f.searchCalls++
	f.lastSearch = req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &models.SearchOutcome{
		Summary:      "**이순신** 장군은 바다를 지켰어요.",
		Source:       models.KoWiki.String(),
		OriginalText: "이순신은 조선의 무신이다.",
		Label:        models.KoWiki,
		Term:         "이순신",
	}, nil
}

func (f *fakeService) Answer(_ context.Context, req models.QuestionRequest) (*models.QuestionResponse, error) {
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	if req.Context == "" || req.Question == "" {
		return nil, answer.ErrMissingInput
	}
	return &models.QuestionResponse{Answer: "거북선이에요."}, nil
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}, MaxBodyBytes: 16 << 10}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out.Message
}

func TestHandleSearch(t *testing.T) {
	svc := &fakeService{}
	srv := NewServer(svc, testConfig(), zap.NewNop())

	w := do(t, srv.Handler(), http.MethodPost, "/search", `{"keyword":"이순신"}`, map[string]string{"x-user-id": "kid-7"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get(headerRequestID) == "" {
		t.Error("expected X-Request-ID header")
	}
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"summary", "questions", "source", "originalText"} {
		if _, ok := out[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	if _, ok := out["Term"]; ok {
		t.Error("internal fields must not be serialized")
	}
	if out["source"] != "한국어 위키피디아" {
		t.Errorf("source: got %v", out["source"])
	}
	if svc.lastSearch.CallerID != "kid-7" || svc.lastSearch.RawQuery != "이순신" {
		t.Errorf("request: got %+v", svc.lastSearch)
	}
}

func TestHandleSearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"empty", &guard.RejectError{Reason: guard.ReasonEmpty}, http.StatusBadRequest, msgEmptyQuery},
		{"markup", &guard.RejectError{Reason: guard.ReasonMarkup}, http.StatusBadRequest, msgInvalidQuery},
		{"profane", &guard.RejectError{Reason: guard.ReasonProfane, Blocked: true}, http.StatusForbidden, msgProfane},
		{"quota", &ratelimit.LimitError{Kind: ratelimit.KindQuota}, http.StatusTooManyRequests, msgQuota},
		{"duplicate", &ratelimit.LimitError{Kind: ratelimit.KindDuplicate}, http.StatusTooManyRequests, msgDuplicate},
		{"exhausted", search.ErrExhausted, http.StatusNotFound, msgNotFound},
		{"unreliable", search.ErrUnreliable, http.StatusNotFound, msgNotFound},
		{"llm rate limited", &llm.DependencyError{Provider: "openai", StatusCode: 429, RateLimited: true}, http.StatusTooManyRequests, msgTooMany},
		{"llm failure", &llm.DependencyError{Provider: "openai", StatusCode: 500}, http.StatusInternalServerError, msgSummaryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(&fakeService{searchErr: tt.err}, testConfig(), zap.NewNop())
			w := do(t, srv.Handler(), http.MethodPost, "/search", `{"keyword":"x"}`, nil)
			if w.Code != tt.status {
				t.Errorf("status: got %d, want %d", w.Code, tt.status)
			}
			if got := decodeMessage(t, w); got != tt.message {
				t.Errorf("message: got %q, want %q", got, tt.message)
			}
		})
	}
}

func TestHandleSearchInvalidBody(t *testing.T) {
	svc := &fakeService{}
	srv := NewServer(svc, testConfig(), zap.NewNop())

	w := do(t, srv.Handler(), http.MethodPost, "/search", `{"keyword":`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", w.Code)
	}
	big := `{"keyword":"` + strings.Repeat("가", 20000) + `"}`
	w = do(t, srv.Handler(), http.MethodPost, "/search", big, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status: got %d", w.Code)
	}
	if svc.searchCalls != 0 {
		t.Error("service should not be called for invalid bodies")
	}
}

func TestHandleSearchBurstLimit(t *testing.T) {
	svc := &fakeService{}
	m := metrics.New()
	srv := NewServer(svc, testConfig(), zap.NewNop(),
		WithBurstLimiter(ratelimit.NewBurstLimiter(2)), WithMetrics(m))
	h := srv.Handler()

	headers := map[string]string{"x-user-id": "busy-kid"}
	for i := 0; i < 2; i++ {
		if w := do(t, h, http.MethodPost, "/search", `{"keyword":"고래"}`, headers); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
	w := do(t, h, http.MethodPost, "/search", `{"keyword":"고래"}`, headers)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if got := decodeMessage(t, w); got != msgTooMany {
		t.Errorf("message: got %q", got)
	}
	if svc.searchCalls != 2 {
		t.Errorf("service calls: got %d", svc.searchCalls)
	}

	other := do(t, h, http.MethodPost, "/search", `{"keyword":"고래"}`, map[string]string{"x-user-id": "calm-kid"})
	if other.Code != http.StatusOK {
		t.Errorf("other caller status: got %d", other.Code)
	}
}

func TestHandleQuestion(t *testing.T) {
	srv := NewServer(&fakeService{}, testConfig(), zap.NewNop())
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/question", `{"context":"거북선은 배다.","question":"거북선은 뭐야?"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out models.QuestionResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Answer == "" {
		t.Error("expected answer")
	}

	w = do(t, h, http.MethodPost, "/question", `{"question":"거북선은 뭐야?"}`, nil)
	if w.Code != http.StatusBadRequest || decodeMessage(t, w) != msgNeedQuestion {
		t.Errorf("missing context: got %d", w.Code)
	}

	failing := NewServer(&fakeService{answerErr: errors.New("boom")}, testConfig(), zap.NewNop())
	w = do(t, failing.Handler(), http.MethodPost, "/question", `{"context":"a","question":"b"}`, nil)
	if w.Code != http.StatusInternalServerError || decodeMessage(t, w) != msgAnswerFailed {
		t.Errorf("failure: got %d", w.Code)
	}
}

func TestHandleLogs(t *testing.T) {
	dir := t.TempDir()
	content := "line1\nline2\nline3\n"
	if err := os.WriteFile(filepath.Join(dir, searchlog.FileName(searchlog.KindSearch, "2025-05-01")), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(&fakeService{}, testConfig(), zap.NewNop(),
		WithLogs(config.LogsConfig{Dir: dir, Secret: "s3cret", TailLines: 200}, nil))
	h := srv.Handler()
	auth := map[string]string{headerLogSecret: "s3cret"}

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
		body    string
	}{
		{"all lines", "/logs/search/2025-05-01", auth, http.StatusOK, content},
		{"tail", "/logs/search/2025-05-01?lines=2", auth, http.StatusOK, "line2\nline3\n"},
		{"no secret", "/logs/search/2025-05-01", nil, http.StatusForbidden, ""},
		{"wrong secret", "/logs/search/2025-05-01", map[string]string{headerLogSecret: "nope"}, http.StatusForbidden, ""},
		{"bad kind", "/logs/access/2025-05-01", auth, http.StatusBadRequest, ""},
		{"bad date", "/logs/search/2025-13-45", auth, http.StatusBadRequest, ""},
		{"bad lines", "/logs/search/2025-05-01?lines=-1", auth, http.StatusBadRequest, ""},
		{"missing day", "/logs/error/2025-05-01", auth, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.path, "", tt.headers)
			if w.Code != tt.status {
				t.Fatalf("status: got %d, want %d", w.Code, tt.status)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body: got %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestHandleLogsReadFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the day file opens but cannot be read.
	if err := os.Mkdir(filepath.Join(dir, searchlog.FileName(searchlog.KindError, "2025-05-02")), 0o755); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(&fakeService{}, testConfig(), zap.NewNop(),
		WithLogs(config.LogsConfig{Dir: dir, Secret: "s3cret", TailLines: 200}, nil))

	w := do(t, srv.Handler(), http.MethodGet, "/logs/error/2025-05-02", "", map[string]string{headerLogSecret: "s3cret"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgLogFailed) {
		t.Errorf("body: got %q, want %q", w.Body.String(), msgLogFailed)
	}
}

func TestHandleLogsDisabledWithoutSecret(t *testing.T) {
	srv := NewServer(&fakeService{}, testConfig(), zap.NewNop(),
		WithLogs(config.LogsConfig{Dir: t.TempDir()}, nil))
	w := do(t, srv.Handler(), http.MethodGet, "/logs/search/2025-05-01", "", map[string]string{headerLogSecret: ""})
	if w.Code != http.StatusForbidden {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := NewServer(&fakeService{}, testConfig(), zap.NewNop(), WithMetrics(metrics.New()))
	h := srv.Handler()

	if w := do(t, h, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health status: got %d", w.Code)
	}
	w := do(t, h, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("go_goroutines")) {
		t.Error("expected runtime metrics in exposition")
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://kids.example"}
	srv := NewServer(&fakeService{}, cfg, zap.NewNop())

	w := do(t, srv.Handler(), http.MethodOptions, "/search", "", map[string]string{"Origin": "https://kids.example"})
	if w.Code != http.StatusNoContent {
		t.Errorf("status: got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://kids.example" {
		t.Errorf("allow origin: got %q", got)
	}

	w = do(t, srv.Handler(), http.MethodOptions, "/search", "", map[string]string{"Origin": "https://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

func TestCallerID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"user header", map[string]string{"x-user-id": "kid-1", "X-Forwarded-For": "1.2.3.4"}, "5.6.7.8:1234", "kid-1"},
		{"forwarded", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "5.6.7.8:1234", "1.2.3.4"},
		{"remote", nil, "5.6.7.8:1234", "5.6.7.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/search", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := callerID(r); got != tt.want {
				t.Errorf("callerID: got %q, want %q", got, tt.want)
			}
		})
	}
}

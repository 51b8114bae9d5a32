// Package models defines core data structures for search requests, source results and outcomes.
package models

// SearchRequest is a topic lookup submitted by a caller.
type SearchRequest struct {
	RawQuery string `json:"keyword"`
	// CallerID is a best-effort client identifier (x-user-id header, else network address).
	// It is used only for throttling.
	CallerID string `json:"-"`
}

// QuestionRequest is a follow-up question grounded in a previously returned context.
type QuestionRequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

// QuestionResponse is the answer to a follow-up question.
type QuestionResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}

package llm

import (
	"context"
	"sync"
)

// Call records one Transform invocation.
type Call struct {
	System      string
	User        string
	Temperature float64
}

// MockTransformer is a deterministic Transformer for tests and offline runs.
// Respond, when set, decides the reply; otherwise Reply and Err are returned.
type MockTransformer struct {
	Respond func(system, user string) (string, error)
	Reply   string
	Err     error

	mu    sync.Mutex
	calls []Call
}

// Transform records the call and returns the configured reply.
func (m *MockTransformer) Transform(ctx context.Context, system, user string, temperature float64) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{System: system, User: user, Temperature: temperature})
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", &DependencyError{Provider: "mock", Err: err}
	}
	if m.Respond != nil {
		return m.Respond(system, user)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockTransformer) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Transform calls so far.
func (m *MockTransformer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

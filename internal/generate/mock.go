package generate

import (
	"context"
	"fmt"
	"sync"
)

// MockCompletion is one canned reply for the MockProvider.
type MockCompletion struct {
	Content string
	Err     error
}

// MockCall records one Complete invocation.
type MockCall struct {
	System string
	User   string
}

// MockProvider returns canned completions in FIFO order and records every
// call. It backs tests and the "mock" provider setting for local runs.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockCompletion
	calls     []MockCall
}

func NewMockProvider(responses ...MockCompletion) *MockProvider {
	return &MockProvider{responses: responses}
}

// Queue appends a canned reply.
func (m *MockProvider) Queue(content string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, MockCompletion{Content: content, Err: err})
}

func (m *MockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{System: system, User: user})
	if len(m.responses) == 0 {
		return "", fmt.Errorf("mock provider: no responses queued")
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next.Content, next.Err
}

// Calls returns a copy of the recorded invocations.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) Name() string { return "mock" }

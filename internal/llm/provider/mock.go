package provider

import (
	"context"
	"sync"
)

// MockProvider is a scriptable provider for testing. Responses and
// errors are consumed in order; when the script runs out the Respond
// function (if set) or a fixed default is used.
type MockProvider struct {
	ProviderName string

	// Scripted outcomes, consumed one per call.
	Responses []*CompletionResponse
	Errors    []error

	// Respond computes a reply from the request when the script is
	// exhausted.
	Respond func(req CompletionRequest) string

	mu    sync.Mutex
	calls []CompletionRequest
	index int
}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{ProviderName: "mock"}
}

// Name implements Provider.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// CreateCompletion implements Provider.
func (m *MockProvider) CreateCompletion(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if m.index < len(m.Errors) && m.Errors[m.index] != nil {
		err := m.Errors[m.index]
		m.index++
		return nil, err
	}

	if m.index < len(m.Responses) {
		resp := m.Responses[m.index]
		m.index++
		return resp, nil
	}
	m.index++

	content := "mock response"
	if m.Respond != nil {
		content = m.Respond(req)
	}
	return &CompletionResponse{Content: content, FinishReason: "stop"}, nil
}

// Calls returns a copy of the requests seen so far.
func (m *MockProvider) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of completions requested.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrMockLLM is returned by MockCaller when Fail is set.
var ErrMockLLM = errors.New("mock llm failure")

// MockCaller is a test llm.Caller. The first entry of Responses whose key is
// contained in the prompt wins; otherwise Default is returned.
type MockCaller struct {
	Responses map[string]string
	Default   string

	// Fail causes every call to return ErrMockLLM.
	Fail bool

	mu      sync.Mutex
	prompts []string
}

func NewMockCaller() *MockCaller {
	return &MockCaller{Responses: make(map[string]string)}
}

func (m *MockCaller) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Fail {
		return "", ErrMockLLM
	}
	for key, resp := range m.Responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return m.Default, nil
}

// Prompts returns every prompt received so far.
func (m *MockCaller) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/clarity-api/internal/domain"
)

// MockGateway implements analysis.Gateway for testing
type MockGateway struct {
	// SeparateFn allows test cases to mock the Separate behavior
	SeparateFn func(ctx context.Context, emotions []string, event, need string) (*domain.Separation, error)

	// Default response values
	Separation *domain.Separation
	Err        error

	// Call tracking for verification
	SeparateCalls struct {
		mu sync.Mutex

		// Count tracks how many times Separate was called
		Count int

		// Emotions, Events and Needs hold the arguments of each call
		Emotions [][]string
		Events   []string
		Needs    []string
	}
}

// Separate implements the analysis.Gateway interface
func (m *MockGateway) Separate(
	ctx context.Context,
	emotions []string,
	event, need string,
) (*domain.Separation, error) {
	m.SeparateCalls.mu.Lock()
	m.SeparateCalls.Count++
	m.SeparateCalls.Emotions = append(m.SeparateCalls.Emotions, append([]string(nil), emotions...))
	m.SeparateCalls.Events = append(m.SeparateCalls.Events, event)
	m.SeparateCalls.Needs = append(m.SeparateCalls.Needs, need)
	m.SeparateCalls.mu.Unlock()

	if m.SeparateFn != nil {
		return m.SeparateFn(ctx, emotions, event, need)
	}
	return m.Separation, m.Err
}

// CallCount returns the number of Separate calls so far.
func (m *MockGateway) CallCount() int {
	m.SeparateCalls.mu.Lock()
	defer m.SeparateCalls.mu.Unlock()
	return m.SeparateCalls.Count
}

// LastCall returns the arguments of the most recent Separate call.
func (m *MockGateway) LastCall() (emotions []string, event, need string, ok bool) {
	m.SeparateCalls.mu.Lock()
	defer m.SeparateCalls.mu.Unlock()
	n := m.SeparateCalls.Count
	if n == 0 {
		return nil, "", "", false
	}
	return m.SeparateCalls.Emotions[n-1], m.SeparateCalls.Events[n-1], m.SeparateCalls.Needs[n-1], true
}

// SampleSeparation returns a fully populated separation with three entries
// in each list.
func SampleSeparation() *domain.Separation {
	return &domain.Separation{
		Uncontrollable: []string{"a", "b", "c"},
		Controllable:   []string{"d", "e", "f"},
		Actions: []domain.ActionItem{
			{Action: "act1", Effect: "eff1"},
			{Action: "act2", Effect: "eff2"},
			{Action: "act3", Effect: "eff3"},
		},
	}
}

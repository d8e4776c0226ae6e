// Package mocks provides hand-written fakes shared by the test suites.
//
// MockGateway stands in for the analysis service. Set Separation and Err for
// a fixed answer, or SeparateFn to control timing:
//
//	gateway := &mocks.MockGateway{
//	    SeparateFn: func(ctx context.Context, emotions []string, event, need string) (*domain.Separation, error) {
//	        return nil, analysis.ErrTimeout
//	    },
//	}
//
// MockHistoryStore wraps the in-memory store and lets a test override any
// single operation while counting calls.
package mocks

package session

import (
	"time"

	"github.com/phrazzld/clarity-api/internal/config"
)

// Options tune a Controller.
type Options struct {
	// AnalysisTimeout bounds each analysis call.
	AnalysisTimeout time.Duration
	// HistoryLoadConcurrency bounds parallel record reads during history load.
	HistoryLoadConcurrency int
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// OptionsFromConfig builds Options from application configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AnalysisTimeout:        time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		HistoryLoadConcurrency: cfg.Session.HistoryLoadConcurrency,
		Clock:                  time.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.AnalysisTimeout <= 0 {
		o.AnalysisTimeout = 60 * time.Second
	}
	if o.HistoryLoadConcurrency <= 0 {
		o.HistoryLoadConcurrency = 8
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

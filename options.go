package nymarkable

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option configures an Edition.
type Option func(*Edition)

// WithConfig replaces the default configuration.
// Panics if cfg is nil.
func WithConfig(cfg *Config) Option {
	if cfg == nil {
		panic("nymarkable: WithConfig requires a non-nil config")
	}
	return func(e *Edition) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Edition) {
		if log != nil {
			e.log = log
		}
	}
}

// WithHTTPClient sets the client used for device uploads.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Edition) {
		if c != nil {
			e.client = c
		}
	}
}

// WithProgress registers a callback for the assembly step.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Edition) {
		e.progress = fn
	}
}

// withSessionOpener replaces the browser launcher (tests).
func withSessionOpener(open sessionOpener) Option {
	return func(e *Edition) {
		e.open = open
	}
}

// withNow sets the clock used for the cover date (tests).
func withNow(now func() time.Time) Option {
	return func(e *Edition) {
		e.now = now
	}
}

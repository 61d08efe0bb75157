package smallworld

import (
	"log/slog"

	"github.com/meigma/smallworld/region"
)

// Option configures Merge and Split.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	targets region.Set
	sources region.Set
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:  slog.New(slog.DiscardHandler),
		targets: region.AllSet(),
		sources: region.AllSet(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets a logger for debug tracing of the conversion.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTargets limits the regions whose filenames Merge emits.
// By default every region is emitted. Split ignores this option.
func WithTargets(regions region.Set) Option {
	return func(c *config) {
		c.targets = regions
	}
}

// WithSources limits the regions whose files are read as regional versions.
// Files named for other regions are left alone and copied through like any
// unrecognized file. By default every region is a source.
func WithSources(regions region.Set) Option {
	return func(c *config) {
		c.sources = regions
	}
}

package bitdex

import (
	"log/slog"

	"github.com/hupe1980/bitdex/bitstream"
)

type options struct {
	kind             bitstream.Kind
	metricsCollector MetricsCollector
	logger           *Logger
}

func defaultOptions() options {
	return options{
		kind:             bitstream.KindEWAH,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures index constructor and load behavior.
type Option func(*options)

// WithKind selects the bitstream representation of the coders created by
// the convenience constructors. Default: bitstream.KindEWAH.
//
// Constructors that take an explicit coder ignore it.
func WithKind(k bitstream.Kind) Option {
	return func(o *options) {
		if k.Valid() {
			o.kind = k
		}
	}
}

// WithLogger sets the structured logger.
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics collector.
// If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

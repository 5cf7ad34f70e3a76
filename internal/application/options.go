package application

import (
	"context"
	"log/slog"
	"time"
)

// DefaultStoreTimeout bounds every repository or provider call when no
// explicit timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

// ServiceOption customises a service at construction time.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger       *slog.Logger
	storeTimeout time.Duration
}

// WithLogger sets the base logger. A logger carried by the request context
// still takes precedence.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithStoreTimeout sets the deadline applied to each store call.
func WithStoreTimeout(timeout time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		if timeout > 0 {
			o.storeTimeout = timeout
		}
	}
}

func newServiceOptions(opts []ServiceOption) serviceOptions {
	options := serviceOptions{storeTimeout: DefaultStoreTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	options.logger = defaultLogger(options.logger)
	return options
}

// storeContext derives the bounded context for a single store call.
func (o serviceOptions) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.storeTimeout)
}

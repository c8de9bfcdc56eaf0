package lamina

import "go.uber.org/zap"

// Option configures Open.
type Option func(*clientOptions)

type clientOptions struct {
	logger *zap.Logger
}

// WithLogger attaches a logger to the client's instrumented view. The
// default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// QueryOption configures Client.Query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	since SnapshotVersion
}

// Since excludes cached documents whose read time is not strictly after
// v. Pending mutations are always considered.
func Since(v SnapshotVersion) QueryOption {
	return func(o *queryOptions) {
		o.since = v
	}
}

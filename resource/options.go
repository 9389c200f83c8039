package resource

import (
	"log/slog"

	"github.com/drblury/mongoweaver/responder"
)

// CountHeaders selects how result counts are reported.
type CountHeaders int

const (
	// CountHeaderTotal reports the count in X-Total-Count.
	CountHeaderTotal CountHeaders = iota
	// CountHeaderSplit reports the count in X-Total-Results and the page
	// capacity in X-Max-Results.
	CountHeaderSplit
)

// Count header names.
const (
	HeaderTotalCount   = "X-Total-Count"
	HeaderTotalResults = "X-Total-Results"
	HeaderMaxResults   = "X-Max-Results"
)

// Option configures a Resource.
type Option func(*options)

type options struct {
	path         string
	responder    *responder.Responder
	logger       *slog.Logger
	countHeaders CountHeaders
}

func defaultOptions() *options {
	return &options{
		logger:       slog.Default(),
		countHeaders: CountHeaderTotal,
	}
}

// WithPath overrides the base path of the resource.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithResponder replaces the responder used to write responses and errors.
// Use ClassifyError in its classifier to keep the default status mapping.
func WithResponder(r *responder.Responder) Option {
	return func(o *options) {
		o.responder = r
	}
}

// WithLogger sets the logger of the default responder and of route
// registration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCountHeaders selects the count header scheme.
func WithCountHeaders(mode CountHeaders) Option {
	return func(o *options) {
		o.countHeaders = mode
	}
}

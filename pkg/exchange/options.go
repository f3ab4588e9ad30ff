package exchange

import "time"

// Option is a functional option applied to a single exchange operation.
type Option func(*Options)

// Options holds per-call parameters shared across operations.
type Options struct {
	// Limit caps the number of records returned (depth levels, trades,
	// candles, orders).
	Limit int
	// Interval selects the candle period (e.g., "1", "5", "1day").
	Interval string
	// Since restricts history queries to records at or after this time.
	Since time.Time
	// Page selects the result page for paginated private endpoints.
	Page int
}

// WithLimit caps the number of records returned.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

// WithInterval selects the candle period.
func WithInterval(interval string) Option {
	return func(o *Options) {
		o.Interval = interval
	}
}

// WithSince restricts history queries to records at or after t.
func WithSince(t time.Time) Option {
	return func(o *Options) {
		o.Since = t
	}
}

// WithPage selects the result page for paginated endpoints.
func WithPage(page int) Option {
	return func(o *Options) {
		o.Page = page
	}
}

// ApplyOptions folds the given options into an Options value.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

package untangle

import "log/slog"

// Option configures Unmarshal and Untagged.Decode.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	denyUnknown bool
}

func newConfig(opts []Option) *config {
	c := &config{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithLogger sends debug records about rejected candidates and ignored keys
// to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// DenyUnknownFields makes keys that no field claims an error instead of
// being skipped.
func DenyUnknownFields() Option {
	return func(c *config) { c.denyUnknown = true }
}

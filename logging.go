package memheap

import "go.uber.org/zap"

// withLogger is an Option that installs a structured logger. The default
// is a no-op logger: the hot allocate/free path never logs. A non-nop
// logger only speaks on page-source failure.
func withLogger(l *zap.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithLogger installs a structured logger on a newly constructed
// Allocator. Pass zap.NewNop() (the default) to silence it entirely.
func WithLogger(l *zap.Logger) Option {
	return withLogger(l)
}

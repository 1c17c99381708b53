package notifier

import (
	"context"
	"sync/atomic"
)

// Guarded forwards to an inner notifier only while enabled.
// The flag can be flipped at runtime, e.g. from the profile screen.
type Guarded struct {
	inner   Notifier
	enabled atomic.Bool
}

func NewGuarded(inner Notifier, enabled bool) *Guarded {
	g := &Guarded{inner: inner}
	g.enabled.Store(enabled)
	return g
}

func (g *Guarded) Notify(ctx context.Context, title, message string) error {
	if !g.enabled.Load() {
		return nil
	}
	return g.inner.Notify(ctx, title, message)
}

func (g *Guarded) Enabled() bool { return g.enabled.Load() }

func (g *Guarded) SetEnabled(v bool) { g.enabled.Store(v) }

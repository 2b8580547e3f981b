package source

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/mcao2/careops-triage/internal/triage"
)

// ErrSourceUnavailable is returned while the breaker is open
var ErrSourceUnavailable = errors.New("source temporarily unavailable")

// BreakerSettings tunes when Guarded stops calling a failing source
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker once exceeded
	ConsecutiveFailures uint32
	// Cooldown is how long the breaker stays open before probing again
	Cooldown time.Duration
}

// DefaultBreakerSettings trips after 3 straight failures and retries after a minute
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 3, Cooldown: time.Minute}
}

// Guarded wraps a Source with a circuit breaker so a dead upstream is not
// hammered on every refresh.
type Guarded struct {
	inner Source
	cb    *gobreaker.CircuitBreaker
}

// NewGuarded wraps inner. Fetch failures count against the breaker;
// acknowledgements pass straight through.
func NewGuarded(inner Source, settings BreakerSettings, log logrus.FieldLogger) *Guarded {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			// a cancelled refresh says nothing about the upstream
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"source": name,
				"from":   from.String(),
				"to":     to.String(),
			}).Warn("source breaker state changed")
		},
	})

	return &Guarded{inner: inner, cb: cb}
}

// Name implements Source
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// State reports the breaker state as "closed", "half-open" or "open"
func (g *Guarded) State() string {
	return g.cb.State().String()
}

// Fetch implements Source
func (g *Guarded) Fetch(ctx context.Context) ([]triage.Item, error) {
	out, err := g.cb.Execute(func() (any, error) {
		return g.inner.Fetch(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrSourceUnavailable
	}
	if err != nil {
		return nil, err
	}
	items, _ := out.([]triage.Item)
	return items, nil
}

// MarkRead implements Acknowledger when the wrapped source does
func (g *Guarded) MarkRead(ctx context.Context, id string) error {
	ack, ok := g.inner.(Acknowledger)
	if !ok {
		return nil
	}
	return ack.MarkRead(ctx, id)
}

// VerifyToken implements TokenVerifier when the wrapped source does
func (g *Guarded) VerifyToken(ctx context.Context) (bool, error) {
	v, ok := g.inner.(TokenVerifier)
	if !ok {
		return true, nil
	}
	return v.VerifyToken(ctx)
}

// Unwrap returns the wrapped source
func (g *Guarded) Unwrap() Source {
	return g.inner
}

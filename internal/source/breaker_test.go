package source

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mcao2/careops-triage/internal/triage"
)

type stubSource struct {
	items []triage.Item
	err   error
	calls int
	acked []string
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) ([]triage.Item, error) {
	s.calls++
	return s.items, s.err
}

func (s *stubSource) MarkRead(ctx context.Context, id string) error {
	s.acked = append(s.acked, id)
	return nil
}

type fetchOnly struct{}

func (fetchOnly) Name() string { return "fetch-only" }

func (fetchOnly) Fetch(ctx context.Context) ([]triage.Item, error) { return nil, nil }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestGuardedPassesThrough(t *testing.T) {
	inner := &stubSource{items: []triage.Item{{ID: "a"}}}
	g := NewGuarded(inner, DefaultBreakerSettings(), quietLogger())

	items, err := g.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("unexpected items: %+v", items)
	}
	if g.Name() != "stub" {
		t.Errorf("expected wrapped name, got %q", g.Name())
	}
	if g.Unwrap() != Source(inner) {
		t.Error("Unwrap should return the inner source")
	}
}

func TestGuardedOpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("connection refused")
	inner := &stubSource{err: boom}
	g := NewGuarded(inner, BreakerSettings{ConsecutiveFailures: 2, Cooldown: time.Hour}, quietLogger())

	for i := 0; i < 2; i++ {
		if _, err := g.Fetch(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected upstream error, got %v", i+1, err)
		}
	}
	if g.State() != "open" {
		t.Fatalf("expected open breaker, got %s", g.State())
	}

	_, err := g.Fetch(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("open breaker should not call upstream, got %d calls", inner.calls)
	}
}

func TestGuardedIgnoresCancellation(t *testing.T) {
	inner := &stubSource{err: context.Canceled}
	g := NewGuarded(inner, BreakerSettings{ConsecutiveFailures: 1, Cooldown: time.Hour}, quietLogger())

	for i := 0; i < 3; i++ {
		g.Fetch(context.Background())
	}
	if g.State() != "closed" {
		t.Errorf("cancellations should not trip the breaker, got %s", g.State())
	}
}

func TestGuardedMarkRead(t *testing.T) {
	inner := &stubSource{}
	g := NewGuarded(inner, DefaultBreakerSettings(), quietLogger())
	if err := g.MarkRead(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.acked) != 1 || inner.acked[0] != "x" {
		t.Errorf("expected ack forwarded, got %v", inner.acked)
	}

	plain := NewGuarded(fetchOnly{}, DefaultBreakerSettings(), quietLogger())
	if err := plain.MarkRead(context.Background(), "x"); err != nil {
		t.Errorf("expected nil for non-acknowledging source, got %v", err)
	}
}

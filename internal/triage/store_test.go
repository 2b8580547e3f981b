package triage

import (
	"sync"
	"testing"
)

func TestStoreDefaults(t *testing.T) {
	s := NewStore()
	got := s.Get()
	if got.Version != 1 {
		t.Errorf("expected version 1, got %d", got.Version)
	}
	if got.Algorithm != AlgorithmStandard {
		t.Errorf("expected standard algorithm, got %s", got.Algorithm)
	}
	if len(got.Keywords[CategoryEmergency]) == 0 {
		t.Error("expected default emergency keywords")
	}
}

func TestStoreUpdateBumpsVersion(t *testing.T) {
	s := NewStore()
	next := s.Get()
	next.Algorithm = AlgorithmAggressive

	updated, err := s.Update(next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Version != 2 || s.Version() != 2 {
		t.Errorf("expected version 2, got %d/%d", updated.Version, s.Version())
	}
	if s.Get().Algorithm != AlgorithmAggressive {
		t.Errorf("expected aggressive, got %s", s.Get().Algorithm)
	}
}

func TestStoreRejectsBadWeights(t *testing.T) {
	s := NewStore()
	before := s.Get()

	next := s.Get()
	next.Algorithm = AlgorithmCustom
	next.Weights = Weights{Recency: 0.2, Sender: 0.2, Content: 0.2, Interaction: 0.2, Department: 0.1}

	_, err := s.Update(next)
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	after := s.Get()
	if after.Version != before.Version {
		t.Errorf("version changed after rejected update: %d -> %d", before.Version, after.Version)
	}
	if after.Algorithm != before.Algorithm || after.Weights != before.Weights {
		t.Error("store did not retain the prior snapshot")
	}
}

func TestStoreRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{name: "unknown algorithm", mutate: func(s *Settings) { s.Algorithm = "psychic" }},
		{name: "threshold above one", mutate: func(s *Settings) { s.Thresholds[CategoryClinical] = 1.5 }},
		{name: "unknown category", mutate: func(s *Settings) { s.Thresholds["gossip"] = 0.5 }},
		{name: "negative department priority", mutate: func(s *Settings) { s.DepartmentPriority["icu"] = -1 }},
		{name: "negative weight", mutate: func(s *Settings) {
			s.Weights = Weights{Recency: -0.5, Sender: 0.5, Content: 0.5, Interaction: 0.25, Department: 0.25}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			next := s.Get()
			tt.mutate(&next)
			if _, err := s.Update(next); !IsConfigurationError(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
			if s.Version() != 1 {
				t.Errorf("expected version to stay 1, got %d", s.Version())
			}
		})
	}
}

func TestStoreGetIsACopy(t *testing.T) {
	s := NewStore()
	snap := s.Get()
	snap.Keywords[CategoryEmergency][0] = "changed"
	snap.Thresholds[CategoryEmergency] = 0.99

	fresh := s.Get()
	if fresh.Keywords[CategoryEmergency][0] == "changed" {
		t.Error("mutating a snapshot leaked into the store")
	}
	if fresh.Thresholds[CategoryEmergency] == 0.99 {
		t.Error("mutating snapshot thresholds leaked into the store")
	}
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	next := s.Get()
	next.Algorithm = AlgorithmConservative
	if _, err := s.Update(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reset := s.Reset()
	if reset.Algorithm != AlgorithmStandard {
		t.Errorf("expected standard after reset, got %s", reset.Algorithm)
	}
	if reset.Version != 3 {
		t.Errorf("expected version 3 after reset, got %d", reset.Version)
	}
}

func TestNewStoreWithInvalid(t *testing.T) {
	bad := DefaultSettings()
	bad.Algorithm = AlgorithmCustom
	bad.Weights.Content = 0.9

	s, err := NewStoreWith(bad)
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if s.Get().Algorithm != AlgorithmStandard {
		t.Error("expected store to fall back to defaults")
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := s.Get()
			next.Algorithm = AlgorithmAggressive
			if _, err := s.Update(next); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			_ = s.Get()
		}()
	}
	wg.Wait()

	if s.Version() != 21 {
		t.Errorf("expected version 21, got %d", s.Version())
	}
}

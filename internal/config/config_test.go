package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the config path at a temp dir and clears overrides
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CAREOPS_TRIAGE_CONFIG", filepath.Join(dir, "config.yaml"))
	for _, key := range []string{
		"CAREOPS_SOURCE_KIND", "CAREOPS_SOURCE_URL", "CAREOPS_SOURCE_TOKEN", "CAREOPS_SOURCE_FILE",
		"CAREOPS_STORE", "CAREOPS_STORE_PATH", "CAREOPS_THEME", "CAREOPS_LOG_LEVEL",
		"CAREOPS_METRICS_ADDR", "CAREOPS_LOOKBACK_DAYS", "CAREOPS_REFRESH_INTERVAL", "CAREOPS_SOURCE_RPS",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.Kind != SourceDemo {
		t.Errorf("expected demo source, got %s", cfg.Source.Kind)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Errorf("expected 30s refresh, got %s", cfg.RefreshInterval)
	}
	if cfg.Lookback() != 7*24*time.Hour {
		t.Errorf("expected 7 day lookback, got %s", cfg.Lookback())
	}
	if cfg.Store.Kind != StoreJSON {
		t.Errorf("expected json store, got %s", cfg.Store.Kind)
	}
	if cfg.Source.RequestsPerSecond != 5 || !cfg.Source.Watch {
		t.Errorf("unexpected source defaults: %+v", cfg.Source)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)

	content := `source:
  kind: http
  url: https://notify.example.org/api
  token: file-token
  lookback_days: 3
  requests_per_second: 0.5
  watch: false
store:
  kind: sqlite
refresh_interval: 2m
theme: nord
log_level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.Kind != SourceHTTP || cfg.Source.URL != "https://notify.example.org/api" {
		t.Errorf("unexpected source: %+v", cfg.Source)
	}
	if cfg.Source.Token != "file-token" {
		t.Errorf("expected file token, got %s", cfg.Source.Token)
	}
	if cfg.Source.LookbackDays != 3 {
		t.Errorf("expected lookback 3, got %d", cfg.Source.LookbackDays)
	}
	if cfg.Source.RequestsPerSecond != 0.5 || cfg.Source.Watch {
		t.Errorf("expected rate 0.5 and watch off, got %+v", cfg.Source)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Errorf("expected 2m refresh, got %s", cfg.RefreshInterval)
	}
	if cfg.Store.Kind != StoreSQLite || cfg.Theme != "nord" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)

	content := "source:\n  kind: file\n  file: /tmp/a.json\ntheme: nord\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CAREOPS_SOURCE_FILE", "/tmp/b.json")
	t.Setenv("CAREOPS_THEME", "dracula")
	t.Setenv("CAREOPS_REFRESH_INTERVAL", "45s")
	t.Setenv("CAREOPS_LOOKBACK_DAYS", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.File != "/tmp/b.json" {
		t.Errorf("expected env file override, got %s", cfg.Source.File)
	}
	if cfg.Theme != "dracula" {
		t.Errorf("expected env theme override, got %s", cfg.Theme)
	}
	if cfg.RefreshInterval != 45*time.Second {
		t.Errorf("expected 45s, got %s", cfg.RefreshInterval)
	}
	if cfg.Source.LookbackDays != 14 {
		t.Errorf("expected 14 days, got %d", cfg.Source.LookbackDays)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("CAREOPS_SOURCE_KIND")
	os.Unsetenv("CAREOPS_SOURCE_URL")

	env := "CAREOPS_SOURCE_KIND=http\nCAREOPS_SOURCE_URL=https://dotenv.example.org\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("CAREOPS_SOURCE_KIND")
		os.Unsetenv("CAREOPS_SOURCE_URL")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.Kind != SourceHTTP || cfg.Source.URL != "https://dotenv.example.org" {
		t.Errorf("expected .env values, got %+v", cfg.Source)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown source", env: map[string]string{"CAREOPS_SOURCE_KIND": "pager"}},
		{name: "http without url", env: map[string]string{"CAREOPS_SOURCE_KIND": "http"}},
		{name: "file without path", env: map[string]string{"CAREOPS_SOURCE_KIND": "file"}},
		{name: "bad interval", env: map[string]string{"CAREOPS_REFRESH_INTERVAL": "soon"}},
		{name: "interval too short", env: map[string]string{"CAREOPS_REFRESH_INTERVAL": "10ms"}},
		{name: "bad lookback", env: map[string]string{"CAREOPS_LOOKBACK_DAYS": "week"}},
		{name: "unknown store", env: map[string]string{"CAREOPS_STORE": "redis"}},
		{name: "bad rate", env: map[string]string{"CAREOPS_SOURCE_RPS": "fast"}},
		{name: "negative rate", env: map[string]string{"CAREOPS_SOURCE_RPS": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSavePreservesToken(t *testing.T) {
	dir := isolate(t)

	content := "source:\n  kind: http\n  url: https://notify.example.org\n  token: secret\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Theme = "gruvbox"
	cfg.Source.Token = "from-env"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	saved := string(data)
	if !strings.Contains(saved, "token: secret") {
		t.Errorf("expected original token to be preserved:\n%s", saved)
	}
	if strings.Contains(saved, "from-env") {
		t.Error("runtime token must not be written back")
	}

	reloaded, err := Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Theme != "gruvbox" {
		t.Errorf("expected theme gruvbox, got %s", reloaded.Theme)
	}
}

func TestSaveExampleConfig(t *testing.T) {
	dir := isolate(t)

	if err := SaveExampleConfig(); err != nil {
		t.Fatalf("SaveExampleConfig failed: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected example config: %v", err)
	}

	if err := os.WriteFile(path, []byte("theme: nord\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := SaveExampleConfig(); err != nil {
		t.Fatalf("second SaveExampleConfig failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "theme: nord\n" {
		t.Error("existing config was overwritten")
	}

	// the example must itself be loadable
	os.Remove(path)
	if err := SaveExampleConfig(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err != nil {
		t.Errorf("example config does not load: %v", err)
	}
}

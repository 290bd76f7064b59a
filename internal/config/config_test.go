package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FOOTBALL_API_KEY", "test-key")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Errorf("AppEnv = %q, want %q", cfg.AppEnv, EnvDev)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.MaxParallelCalls != 5 {
		t.Errorf("MaxParallelCalls = %d, want 5", cfg.MaxParallelCalls)
	}
	if cfg.CollectionBudget != 180*time.Second {
		t.Errorf("CollectionBudget = %s, want 180s", cfg.CollectionBudget)
	}
	if cfg.LockTTL != 200*time.Second {
		t.Errorf("LockTTL = %s, want 200s", cfg.LockTTL)
	}
	if cfg.UseDBMatchStore {
		t.Error("UseDBMatchStore should default to false")
	}
	if cfg.MatchStoreDir != "data/match_contexts" {
		t.Errorf("MatchStoreDir = %q", cfg.MatchStoreDir)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("FOOTBALL_API_KEY", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "FOOTBALL_API_KEY") {
		t.Fatalf("expected FOOTBALL_API_KEY error, got %v", err)
	}
}

func TestLoad_InvalidAppEnv(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "APP_ENV") {
		t.Fatalf("expected APP_ENV error, got %v", err)
	}
}

func TestLoad_ConditionalRequirements(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "db store without url",
			env:     map[string]string{"USE_DB_MATCH_STORE": "true"},
			wantErr: "DB_URL",
		},
		{
			name:    "redis cache without url",
			env:     map[string]string{"ENABLE_REDIS_CACHE": "true"},
			wantErr: "REDIS_URL",
		},
		{
			name:    "uptrace without dsn",
			env:     map[string]string{"UPTRACE_ENABLED": "true"},
			wantErr: "UPTRACE_DSN",
		},
		{
			name:    "pyroscope without server address",
			env:     map[string]string{"PYROSCOPE_ENABLED": "true"},
			wantErr: "PYROSCOPE_SERVER_ADDRESS",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoad_LockTTLMustExceedBudget(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COLLECTION_BUDGET", "180s")
	t.Setenv("LOCK_TTL", "90s")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LOCK_TTL") {
		t.Fatalf("expected LOCK_TTL error, got %v", err)
	}
}

func TestLoad_ParsesDurationsAndCSV(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COLLECTOR_CALL_DELAY", "25ms")
	t.Setenv("FOOTBALL_API_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MAX_PARALLEL_TOOL_CALLS", "3")
	t.Setenv("MATCH_STATUS_CHECK_FOR_NS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CollectorDelay != 25*time.Millisecond {
		t.Errorf("CollectorDelay = %s, want 25ms", cfg.CollectorDelay)
	}
	if cfg.FootballAPITimeout != 5*time.Second {
		t.Errorf("FootballAPITimeout = %s, want 5s", cfg.FootballAPITimeout)
	}
	if cfg.MaxParallelCalls != 3 {
		t.Errorf("MaxParallelCalls = %d, want 3", cfg.MaxParallelCalls)
	}
	if !cfg.RefreshNotStarted {
		t.Error("RefreshNotStarted should be true")
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Errorf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
		}
	}
}

func TestLoad_InvalidInt(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MAX_PARALLEL_TOOL_CALLS", "many")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "MAX_PARALLEL_TOOL_CALLS") {
		t.Fatalf("expected MAX_PARALLEL_TOOL_CALLS error, got %v", err)
	}
}

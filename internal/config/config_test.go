package config

import (
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("AUTH_REQUIRED", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if !cfg.AuthRequired {
		t.Fatalf("expected auth to be required by default")
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing secret to fail validation when auth is required")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORAGE_BACKEND", "DATABASE_URL", "REDIS_ADDR", "TAX_RATE_PERCENT", "REPORT_TOP_N"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.StorageBackend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.StorageBackend)
	}
	if cfg.TaxRatePercent.String() != "16" {
		t.Fatalf("expected 16%% tax, got %s", cfg.TaxRatePercent)
	}
	if cfg.ReportTopN != 5 {
		t.Fatalf("expected top 5, got %d", cfg.ReportTopN)
	}
}

func TestLoadPicksBackendFromConnectionSettings(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")

	if got := Load().StorageBackend; got != BackendRedis {
		t.Fatalf("expected redis backend, got %q", got)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/galaxy")
	if got := Load().StorageBackend; got != BackendPostgres {
		t.Fatalf("expected postgres backend, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"auth off memory", Config{StorageBackend: BackendMemory, Location: time.UTC}, false},
		{"postgres without url", Config{StorageBackend: BackendPostgres, Location: time.UTC}, true},
		{"redis without addr", Config{StorageBackend: BackendRedis, Location: time.UTC}, true},
		{"unknown backend", Config{StorageBackend: "sqlite", Location: time.UTC}, true},
		{"unknown timezone", Config{StorageBackend: BackendMemory, Timezone: "Mars/Olympus"}, true},
		{"short secret", Config{StorageBackend: BackendMemory, Location: time.UTC, AuthRequired: true, AuthSecret: "short"}, true},
		{"strong secret", Config{StorageBackend: BackendMemory, Location: time.UTC, AuthRequired: true, AuthSecret: "0123456789abcdef0123456789abcdef"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "")
	cfg := Load()
	if cfg.Location == nil || cfg.Location.String() != "Africa/Nairobi" {
		t.Fatalf("expected Africa/Nairobi by default, got %v", cfg.Location)
	}

	t.Setenv("TIMEZONE", "Not/AZone")
	cfg = Load()
	if cfg.Location != nil {
		t.Fatalf("expected unknown zone to leave Location nil, got %v", cfg.Location)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown zone to fail validation")
	}
}

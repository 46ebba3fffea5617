package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Archer: ArcherConfig{
			BaseURL:  "https://grc.example.com/RSAarcher",
			Instance: "Prod",
			Username: "svc",
			Password: "secret",
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_Archer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *ArcherConfig)
		wantErr string
	}{
		{
			name:    "missing base url",
			mutate:  func(a *ArcherConfig) { a.BaseURL = "" },
			wantErr: "archer.base_url is required",
		},
		{
			name:    "base url without scheme",
			mutate:  func(a *ArcherConfig) { a.BaseURL = "grc.example.com" },
			wantErr: `archer.base_url must be an http(s) url, got "grc.example.com"`,
		},
		{
			name:    "missing password",
			mutate:  func(a *ArcherConfig) { a.Password = "" },
			wantErr: "archer.username and archer.password are required without archer.session_token",
		},
		{
			name:    "missing instance",
			mutate:  func(a *ArcherConfig) { a.Instance = "" },
			wantErr: "archer.instance is required for login",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg.Archer)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tc.wantErr {
				t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestValidate_SessionTokenReplacesCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Archer = ArcherConfig{BaseURL: "http://grc.local", SessionToken: "ABC"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Archer.TimeoutSec != 30 {
		t.Errorf("expected TimeoutSec=30, got %d", cfg.Archer.TimeoutSec)
	}
	if cfg.Lookup.Concurrency != 4 {
		t.Errorf("expected Concurrency=4, got %d", cfg.Lookup.Concurrency)
	}
	if cfg.Lookup.ChunkSize != 50 {
		t.Errorf("expected ChunkSize=50, got %d", cfg.Lookup.ChunkSize)
	}
	if cfg.Lookup.PageSize != 2 {
		t.Errorf("expected PageSize=2, got %d", cfg.Lookup.PageSize)
	}
	if cfg.Lookup.MaxBulkItems != 1000 {
		t.Errorf("expected MaxBulkItems=1000, got %d", cfg.Lookup.MaxBulkItems)
	}
	if cfg.Legacy.MaxQueryLength != 2000 {
		t.Errorf("expected MaxQueryLength=2000, got %d", cfg.Legacy.MaxQueryLength)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Archer: ArcherConfig{TimeoutSec: 5},
		Lookup: LookupConfig{Concurrency: 16, ChunkSize: 10, PageSize: 5, MaxBulkItems: 20},
		Legacy: LegacyConfig{MaxQueryLength: 8000},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Archer.TimeoutSec != 5 {
		t.Errorf("expected TimeoutSec=5, got %d", cfg.Archer.TimeoutSec)
	}
	if cfg.Lookup.Concurrency != 16 || cfg.Lookup.ChunkSize != 10 || cfg.Lookup.PageSize != 5 {
		t.Errorf("lookup overridden: %+v", cfg.Lookup)
	}
	if cfg.Legacy.MaxQueryLength != 8000 {
		t.Errorf("expected MaxQueryLength=8000, got %d", cfg.Legacy.MaxQueryLength)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GRCLOOKUP_TEST_URL", "https://grc.example.com")
	t.Setenv("GRCLOOKUP_TEST_EMPTY", "")

	in := []byte("a: ${GRCLOOKUP_TEST_URL}\nb: ${GRCLOOKUP_TEST_EMPTY:-fallback}\nc: ${GRCLOOKUP_TEST_UNSET}")
	got := string(expandEnvVars(in))

	want := "a: https://grc.example.com\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: 9090
archer:
  base_url: ${GRCLOOKUP_TEST_BASE}
  session_token: token
lookup:
  concurrency: 3
`
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GRCLOOKUP_TEST_BASE", "https://grc.example.com")
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Archer.BaseURL != "https://grc.example.com" {
		t.Errorf("base_url = %q", cfg.Archer.BaseURL)
	}
	if cfg.Lookup.Concurrency != 3 || cfg.Lookup.ChunkSize != 50 {
		t.Errorf("lookup = %+v, want concurrency 3 and default chunk size", cfg.Lookup)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config")
	}
}

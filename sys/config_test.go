package sys

import (
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	InitLogger(true, false)
	m.Run()
}

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := configFromEnv(envFrom(map[string]string{
		"DISCORD_TOKEN": "token",
		"DATABASE_PATH": "test.db",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("Expected idle timeout %v, got %v", DefaultIdleTimeout, cfg.IdleTimeout)
	}
	if cfg.SkipVoteThreshold != DefaultSkipThreshold {
		t.Errorf("Expected skip threshold %d, got %d", DefaultSkipThreshold, cfg.SkipVoteThreshold)
	}
	if cfg.DefaultVolume != DefaultVolumePercent {
		t.Errorf("Expected default volume %d, got %d", DefaultVolumePercent, cfg.DefaultVolume)
	}
	if cfg.LoungeURL != DefaultLoungeURL {
		t.Errorf("Expected lounge URL %q, got %q", DefaultLoungeURL, cfg.LoungeURL)
	}
	if cfg.ResolveRate != DefaultResolveRate {
		t.Errorf("Expected resolve rate %v, got %v", DefaultResolveRate, cfg.ResolveRate)
	}
	if cfg.DatabasePath != "test.db" {
		t.Errorf("Expected database path test.db, got %q", cfg.DatabasePath)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	cfg, err := configFromEnv(envFrom(map[string]string{
		"DISCORD_TOKEN":       "token",
		"DATABASE_PATH":       "test.db",
		"IDLE_TIMEOUT":        "90",
		"SKIP_VOTE_THRESHOLD": "3",
		"DEFAULT_VOLUME":      "500",
		"RESOLVE_RATE":        "0.5",
		"METRICS_ADDR":        ":9100",
		"SILENT":              "true",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.IdleTimeout != 90*time.Second {
		t.Errorf("Expected idle timeout 90s, got %v", cfg.IdleTimeout)
	}
	if cfg.SkipVoteThreshold != 3 {
		t.Errorf("Expected skip threshold 3, got %d", cfg.SkipVoteThreshold)
	}
	if cfg.DefaultVolume != MaxVolumePercent {
		t.Errorf("Expected default volume clamped to %d, got %d", MaxVolumePercent, cfg.DefaultVolume)
	}
	if cfg.ResolveRate != 0.5 {
		t.Errorf("Expected resolve rate 0.5, got %v", cfg.ResolveRate)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("Expected metrics addr :9100, got %q", cfg.MetricsAddr)
	}
	if !cfg.Silent {
		t.Error("Expected silent mode")
	}
}

func TestConfigFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad idle timeout", map[string]string{"IDLE_TIMEOUT": "soon"}},
		{"negative idle timeout", map[string]string{"IDLE_TIMEOUT": "-5"}},
		{"bad threshold", map[string]string{"SKIP_VOTE_THRESHOLD": "many"}},
		{"bad volume", map[string]string{"DEFAULT_VOLUME": "loud"}},
		{"zero resolve rate", map[string]string{"RESOLVE_RATE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.env["DATABASE_PATH"] = "test.db"
			if _, err := configFromEnv(envFrom(tt.env)); err == nil {
				t.Error("Expected error but got none")
			}
		})
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"180", 180 * time.Second},
		{" 5 ", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"1m30s", 90 * time.Second},
	}
	for _, tt := range tests {
		got, err := parseSeconds(tt.in)
		if err != nil {
			t.Errorf("parseSeconds(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSeconds(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:   "valid configuration",
			config: Config{Token: "t", GuildID: "123456789012345678", SkipVoteThreshold: 1},
		},
		{
			name:        "missing token",
			config:      Config{SkipVoteThreshold: 1},
			expectError: true,
		},
		{
			name:        "short guild id",
			config:      Config{Token: "t", GuildID: "1234", SkipVoteThreshold: 1},
			expectError: true,
		},
		{
			name:        "zero threshold",
			config:      Config{Token: "t", SkipVoteThreshold: 0},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestClampVolume(t *testing.T) {
	tests := map[int]int{-10: 0, 0: 0, 50: 50, 200: 200, 201: 200}
	for in, want := range tests {
		if got := ClampVolume(in); got != want {
			t.Errorf("ClampVolume(%d) = %d, want %d", in, got, want)
		}
	}
}

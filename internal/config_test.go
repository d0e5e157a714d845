package internal

import (
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultConfig_RemoteIncomplete(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.RequireRemote(); err == nil {
		t.Fatal("default config has no credentials; RequireRemote should fail")
	}
}

func TestRemoteConfig_Complete(t *testing.T) {
	cfg := RemoteConfig{
		Endpoint: "https://blog.hatena.ne.jp",
		Username: "author",
		BlogID:   "author.hatenablog.com",
		APIKey:   "secret",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete remote config should pass: %v", err)
	}
}

func TestRemoteConfig_MissingAPIKey(t *testing.T) {
	cfg := RemoteConfig{
		Endpoint: "https://blog.hatena.ne.jp",
		Username: "author",
		BlogID:   "author.hatenablog.com",
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("missing api key should fail")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplicationConfig_LevelMapping(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		cfg := ApplicationConfig{LogLevel: tc.in}
		if err := cfg.Validate(); err != nil {
			t.Errorf("level %q should validate: %v", tc.in, err)
		}
		if got := cfg.Level(); got != tc.want {
			t.Errorf("Level(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestApplicationConfig_InvalidLevel(t *testing.T) {
	cfg := ApplicationConfig{LogLevel: "loud"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid log level should fail validation")
	}
}

func TestPreviewConfig_PortBounds(t *testing.T) {
	cfg := PreviewConfig{Port: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 0 should fail")
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 70000 should fail")
	}
	cfg.Port = 8085
	if err := cfg.Validate(); err != nil {
		t.Fatalf("port 8085 should pass: %v", err)
	}
	if got := cfg.Address(); got != ":8085" {
		t.Errorf("Address() = %q", got)
	}
}

func TestFullConfig_ValidationCatchesVault(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch empty vault path")
	}
}

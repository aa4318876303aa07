package config

import (
	"flag"
	"testing"
	"time"
)

func parse(t *testing.T, args ...string) *Config {
	t.Helper()
	return Parse(flag.NewFlagSet("test", flag.ContinueOnError), args)
}

func TestDefaults(t *testing.T) {
	cfg := parse(t)
	if cfg.PackageName != "org.kese.lockin" {
		t.Errorf("PackageName = %q", cfg.PackageName)
	}
	if cfg.Port != 3000 || cfg.WebhookPath != "/webhook" {
		t.Errorf("Port/WebhookPath = %d %q", cfg.Port, cfg.WebhookPath)
	}
	if cfg.WebsocketURL != "wss://dev.augmentos.org/tpa-ws" {
		t.Errorf("WebsocketURL = %q", cfg.WebsocketURL)
	}
	if cfg.ActiveImage != "test.bmp" || cfg.EmptyImage != "empty.bmp" {
		t.Errorf("images = %q %q", cfg.ActiveImage, cfg.EmptyImage)
	}
	if cfg.HandshakeTimeout != 15*time.Second {
		t.Errorf("HandshakeTimeout = %v", cfg.HandshakeTimeout)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PACKAGE_NAME", " com.example.focus ")
	t.Setenv("PORT", "8080")
	t.Setenv("AUGMENTOS_API_KEY", "secret")
	t.Setenv("HANDSHAKE_TIMEOUT", "3s")

	cfg := parse(t)
	if cfg.PackageName != "com.example.focus" {
		t.Errorf("PackageName = %q", cfg.PackageName)
	}
	if cfg.Port != 8080 || cfg.APIKey != "secret" || cfg.HandshakeTimeout != 3*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "8080")

	cfg := parse(t, "-port", "9090", "-webhook-path", "hooks/augmentos", "-debug-mode")
	if cfg.Port != 9090 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.WebhookPath != "/hooks/augmentos" {
		t.Errorf("WebhookPath = %q", cfg.WebhookPath)
	}
	if !cfg.DebugMode {
		t.Error("DebugMode must be set by flag")
	}
}

func TestNormalizeFixesInvalidValues(t *testing.T) {
	cfg := parse(t, "-port", "0", "-webhook-path", "", "-handshake-timeout", "0s")
	if cfg.Port != 3000 || cfg.WebhookPath != "/webhook" || cfg.HandshakeTimeout != 15*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestAddr(t *testing.T) {
	cfg := Defaults()
	cfg.BindHost = "127.0.0.1"
	cfg.Port = 4000
	if got := cfg.Addr(); got != "127.0.0.1:4000" {
		t.Errorf("Addr = %q", got)
	}
	cfg.BindHost = "::1"
	if got := cfg.Addr(); got != "[::1]:4000" {
		t.Errorf("Addr = %q", got)
	}
}

package config

import "testing"

func TestParseUserConfigEmptyKeepsDefaults(t *testing.T) {
	cfg, err := ParseUserConfig(nil)
	if err != nil {
		t.Fatalf("empty config must parse, got %v", err)
	}
	if cfg.Server.AppPort != DefaultAppPort || cfg.Server.ClientPort != DefaultClientPort {
		t.Fatalf("ports = %d/%d, want defaults", cfg.Server.AppPort, cfg.Server.ClientPort)
	}
	if cfg.Window.MinWidth != DefaultMinWindowWidth {
		t.Fatalf("min width = %d, want %d", cfg.Window.MinWidth, DefaultMinWindowWidth)
	}
}

func TestParseUserConfigPartialOverride(t *testing.T) {
	cfg, err := ParseUserConfig([]byte("[server]\nlog_level = \"trace\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.LogLevel != "trace" {
		t.Fatalf("log level = %q, want trace", cfg.Server.LogLevel)
	}
	if cfg.Server.AppPort != DefaultAppPort {
		t.Fatalf("an unset port must keep its default, got %d", cfg.Server.AppPort)
	}
}

func TestParseUserConfigFullOverride(t *testing.T) {
	data := []byte(`
[server]
app_port = 7001
client_port = 7003

[window]
min_width = 12
min_height = 6
default_border = "double"
`)
	cfg, err := ParseUserConfig(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.AppPort != 7001 || cfg.Server.ClientPort != 7003 {
		t.Fatalf("ports = %d/%d, want 7001/7003", cfg.Server.AppPort, cfg.Server.ClientPort)
	}
	if cfg.Window.DefaultBorder != "double" {
		t.Fatalf("border = %q, want double", cfg.Window.DefaultBorder)
	}
}

func TestParseUserConfigRejectsMalformedTOML(t *testing.T) {
	if _, err := ParseUserConfig([]byte("[server\napp_port =")); err == nil {
		t.Fatalf("malformed TOML must error")
	}
}

func TestParseLevelVocabulary(t *testing.T) {
	cases := map[string]Level{
		"off":      LevelOff,
		"errors":   LevelErrors,
		"basic":    LevelBasic,
		"info":     LevelBasic,
		"messages": LevelMessages,
		"debug":    LevelMessages,
		"trace":    LevelTrace,
		"bogus":    LevelBasic,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

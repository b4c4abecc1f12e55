package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the resolver reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EVENTSIFT_TIMEZONE", "EVENTSIFT_LLM", "EVENTSIFT_LOG_LEVEL", "EVENTSIFT_LOG_FORMAT",
		"EVENTSIFT_DEFAULT_CURRENCY", "EVENTSIFT_CATEGORY_DURATIONS", "EVENTSIFT_LLM_API_KEY",
		"OPENROUTER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestResolveConfig_Defaults(t *testing.T) {
	clearEnv(t)

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if resolved.LLMProvider.Value != DefaultLLM || resolved.LLMProvider.Source != SourceDefault {
		t.Fatalf("unexpected llm provider: %+v", resolved.LLMProvider)
	}
	if resolved.LogLevel.Value != "warn" {
		t.Fatalf("unexpected log level: %+v", resolved.LogLevel)
	}
	loc, err := resolved.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("default timezone should be Local, got %v (%v)", loc, err)
	}
}

func TestResolveConfig_Precedence_ConfigEnvCLI(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, `timezone: Asia/Taipei
llm:
  provider: openrouter/openai/gpt-4o-mini
log:
  level: info
  format: json
pipeline:
  default_currency: twd
  category_durations:
    Gym: 1h30m
    dentist: 45m
`)

	t.Setenv("EVENTSIFT_TIMEZONE", "Asia/Tokyo")
	t.Setenv("EVENTSIFT_LLM", "google/gemini-2.5-pro")
	t.Setenv("EVENTSIFT_CATEGORY_DURATIONS", "dentist=1h")

	resolved, err := ResolveConfig(ResolveOptions{
		ConfigPath: cfgPath,
		CLILLM:     "openrouter/google/gemini-2.0-flash-001",
	})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}

	if resolved.LLMProvider.Source != SourceCLI {
		t.Fatalf("expected llm provider source cli, got %s", resolved.LLMProvider.Source)
	}
	if resolved.Timezone.Value != "Asia/Tokyo" || resolved.Timezone.Source != SourceEnv {
		t.Fatalf("expected timezone from env, got %+v", resolved.Timezone)
	}
	if resolved.LogFormat.Value != "json" || resolved.LogFormat.Source != SourceConfig {
		t.Fatalf("expected log format from config, got %+v", resolved.LogFormat)
	}
	if resolved.DefaultCurrency.Value != "TWD" {
		t.Fatalf("currency should be upper-cased, got %q", resolved.DefaultCurrency.Value)
	}

	durations, err := resolved.Durations()
	if err != nil {
		t.Fatalf("Durations: %v", err)
	}
	if durations["gym"] != 90*time.Minute {
		t.Errorf("gym = %s, want 1h30m (keywords are lower-cased)", durations["gym"])
	}
	if durations["dentist"] != time.Hour {
		t.Errorf("dentist = %s, want env override of 1h", durations["dentist"])
	}
	if src := resolved.CategoryDurations["dentist"].Source; src != SourceEnv {
		t.Errorf("dentist source = %s, want env", src)
	}
}

func TestResolveConfig_BadYAML(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, "llm: [unclosed\n")
	if _, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDurations_Invalid(t *testing.T) {
	resolved := ResolvedConfig{CategoryDurations: map[string]ResolvedValue{
		"gym":     {Value: "1h", Source: SourceConfig},
		"meeting": {Value: "soon", Source: SourceConfig, From: "config.yaml"},
		"nap":     {Value: "-5m", Source: SourceConfig},
	}}
	got, err := resolved.Durations()
	if err == nil {
		t.Fatal("expected error for invalid durations")
	}
	if !strings.Contains(err.Error(), "meeting") || !strings.Contains(err.Error(), "nap") {
		t.Errorf("error should name every bad entry: %v", err)
	}
	if got["gym"] != time.Hour {
		t.Errorf("valid entries are still returned, got %v", got)
	}
}

func TestLocation_Invalid(t *testing.T) {
	resolved := ResolvedConfig{Timezone: ResolvedValue{Value: "Mars/Olympus", From: "--tz"}}
	if _, err := resolved.Location(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestAPIKeyForProvider_EnvOverridesConfig(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, `llm:
  provider: openrouter/openai/gpt-4o-mini
  api_key: config-key
`)
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	k := resolved.APIKeyForProvider("openrouter/some-model")
	if k.Value != "env-key" {
		t.Fatalf("expected env key, got %q", k.Value)
	}
	if k.Source != SourceEnv {
		t.Fatalf("expected source env, got %s", k.Source)
	}
}

func TestAPIKeyForProvider_GeminiBeatsGoogle(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	resolved, err := ResolveConfig(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "none.yaml")})
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	if k := resolved.APIKeyForProvider("google/gemini-2.5-flash"); k.Value != "gemini-key" {
		t.Fatalf("expected GEMINI_API_KEY to win, got %+v", k)
	}
	if k := resolved.APIKeyForProvider("openrouter/x"); k.Value != "" {
		t.Fatalf("expected no openrouter key, got %+v", k)
	}
}

func TestRedacted(t *testing.T) {
	resolved := ResolvedConfig{LLMKeys: map[string]ResolvedValue{
		"google": {Value: "AIzaSyExample1234", Source: SourceEnv},
		"short":  {Value: "abc", Source: SourceEnv},
	}}
	red := resolved.Redacted()

	if got := red.LLMKeys["google"].Value; got != "*************1234" {
		t.Errorf("masked key = %q", got)
	}
	if got := red.LLMKeys["short"].Value; got != "***" {
		t.Errorf("short key = %q", got)
	}
	if resolved.LLMKeys["google"].Value != "AIzaSyExample1234" {
		t.Error("Redacted must not modify the receiver")
	}
}

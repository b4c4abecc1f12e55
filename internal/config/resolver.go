// Package config resolves eventsift settings from built-in defaults, the
// YAML config file, EVENTSIFT_* environment variables and CLI flags, in
// that order of precedence. Every value remembers where it came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath  string
	CLILLM      string
	CLITimezone string
	CLILogLevel string
	CLICurrency string
}

// Built-in defaults.
const (
	DefaultLLM       = "google/gemini-2.5-flash"
	DefaultTimezone  = "Local"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
)

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	Timezone        ResolvedValue `json:"timezone"`
	LLMProvider     ResolvedValue `json:"llm_provider"`
	LogLevel        ResolvedValue `json:"log_level"`
	LogFormat       ResolvedValue `json:"log_format"`
	DefaultCurrency ResolvedValue `json:"default_currency"`

	// CategoryDurations maps a title keyword to a Go duration string.
	CategoryDurations map[string]ResolvedValue `json:"category_durations,omitempty"`

	LLMKeys map[string]ResolvedValue `json:"llm_keys,omitempty"`
}

type fileConfig struct {
	Timezone string `yaml:"timezone"`
	LLM      struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"llm"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Pipeline struct {
		DefaultCurrency   string            `yaml:"default_currency"`
		CategoryDurations map[string]string `yaml:"category_durations"`
	} `yaml:"pipeline"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".eventsift", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}
	path = expandUserPath(path)

	out := ResolvedConfig{
		ConfigPath:        path,
		Timezone:          ResolvedValue{Value: DefaultTimezone, Source: SourceDefault, From: "built-in default"},
		LLMProvider:       ResolvedValue{Value: DefaultLLM, Source: SourceDefault, From: "built-in default"},
		LogLevel:          ResolvedValue{Value: DefaultLogLevel, Source: SourceDefault, From: "built-in default"},
		LogFormat:         ResolvedValue{Value: DefaultLogFormat, Source: SourceDefault, From: "built-in default"},
		CategoryDurations: map[string]ResolvedValue{},
		LLMKeys:           map[string]ResolvedValue{},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.Timezone, cfg.Timezone, SourceConfig, path)
		apply(&out.LLMProvider, cfg.LLM.Provider, SourceConfig, path)
		apply(&out.LogLevel, cfg.Log.Level, SourceConfig, path)
		apply(&out.LogFormat, cfg.Log.Format, SourceConfig, path)
		apply(&out.DefaultCurrency, cfg.Pipeline.DefaultCurrency, SourceConfig, path)

		for k, v := range cfg.Pipeline.CategoryDurations {
			setDuration(out.CategoryDurations, k, v, SourceConfig, path)
		}

		if key := strings.TrimSpace(cfg.LLM.APIKey); key != "" {
			p := providerOf(cfg.LLM.Provider)
			if p == "" {
				p = "default"
			}
			out.LLMKeys[p] = ResolvedValue{Value: key, Source: SourceConfig, From: path}
		}
	}

	applyEnv(&out.Timezone, "EVENTSIFT_TIMEZONE")
	applyEnv(&out.LLMProvider, "EVENTSIFT_LLM")
	applyEnv(&out.LogLevel, "EVENTSIFT_LOG_LEVEL")
	applyEnv(&out.LogFormat, "EVENTSIFT_LOG_FORMAT")
	applyEnv(&out.DefaultCurrency, "EVENTSIFT_DEFAULT_CURRENCY")

	// EVENTSIFT_CATEGORY_DURATIONS="gym=1h30m,dentist=45m"
	if v := strings.TrimSpace(os.Getenv("EVENTSIFT_CATEGORY_DURATIONS")); v != "" {
		for _, pair := range strings.Split(v, ",") {
			k, d, ok := strings.Cut(pair, "=")
			if !ok {
				continue
			}
			setDuration(out.CategoryDurations, k, d, SourceEnv, "EVENTSIFT_CATEGORY_DURATIONS")
		}
	}

	for env, provider := range map[string]string{
		"OPENROUTER_API_KEY": "openrouter",
		"GEMINI_API_KEY":     "google",
		"GOOGLE_API_KEY":     "google",
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			// GEMINI_API_KEY wins over GOOGLE_API_KEY, as in llm.NewProvider
			if cur, ok := out.LLMKeys[provider]; ok && cur.From == "GEMINI_API_KEY" {
				continue
			}
			out.LLMKeys[provider] = ResolvedValue{Value: v, Source: SourceEnv, From: env}
		}
	}
	if v := strings.TrimSpace(os.Getenv("EVENTSIFT_LLM_API_KEY")); v != "" {
		out.LLMKeys["default"] = ResolvedValue{Value: v, Source: SourceEnv, From: "EVENTSIFT_LLM_API_KEY"}
	}

	apply(&out.LLMProvider, opts.CLILLM, SourceCLI, "--llm")
	apply(&out.Timezone, opts.CLITimezone, SourceCLI, "--tz")
	apply(&out.LogLevel, opts.CLILogLevel, SourceCLI, "--log-level")
	apply(&out.DefaultCurrency, opts.CLICurrency, SourceCLI, "--currency")

	if out.DefaultCurrency.Value != "" {
		out.DefaultCurrency.Value = strings.ToUpper(out.DefaultCurrency.Value)
	}
	return out, nil
}

// Location loads the configured timezone.
func (r ResolvedConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(r.Timezone.Value)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q (from %s): %w", name, r.Timezone.From, err)
	}
	return loc, nil
}

// Durations parses CategoryDurations. Entries that are not positive Go
// durations are reported together.
func (r ResolvedConfig) Durations() (map[string]time.Duration, error) {
	out := make(map[string]time.Duration, len(r.CategoryDurations))
	var bad []string
	for _, k := range sortedKeys(r.CategoryDurations) {
		v := r.CategoryDurations[k]
		d, err := time.ParseDuration(v.Value)
		if err != nil || d <= 0 {
			bad = append(bad, fmt.Sprintf("%s=%q (from %s)", k, v.Value, v.From))
			continue
		}
		out[k] = d
	}
	if len(bad) > 0 {
		return out, fmt.Errorf("invalid category durations: %s", strings.Join(bad, ", "))
	}
	return out, nil
}

func (r ResolvedConfig) APIKeyForProvider(providerOrModel string) ResolvedValue {
	provider := providerOf(providerOrModel)
	if provider == "" {
		return ResolvedValue{}
	}
	if v, ok := r.LLMKeys[provider]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	if v, ok := r.LLMKeys["default"]; ok && strings.TrimSpace(v.Value) != "" {
		return v
	}
	return ResolvedValue{}
}

// Redacted returns a copy safe to print: API keys are masked.
func (r ResolvedConfig) Redacted() ResolvedConfig {
	out := r
	out.LLMKeys = make(map[string]ResolvedValue, len(r.LLMKeys))
	for k, v := range r.LLMKeys {
		v.Value = MaskKey(v.Value)
		out.LLMKeys[k] = v
	}
	return out
}

// MaskKey keeps the last four characters of long keys and hides the rest.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func providerOf(providerOrModel string) string {
	v := strings.ToLower(strings.TrimSpace(providerOrModel))
	if v == "" {
		return ""
	}
	if idx := strings.Index(v, "/"); idx > 0 {
		return v[:idx]
	}
	return v
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func setDuration(m map[string]ResolvedValue, keyword, value string, source ValueSource, from string) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	value = strings.TrimSpace(value)
	if keyword == "" || value == "" {
		return
	}
	m[keyword] = ResolvedValue{Value: value, Source: source, From: from}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

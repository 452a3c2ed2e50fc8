package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const appName = "code-reviewer"

// Config represents the code-reviewer configuration.
type Config struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	APIKey      string  `json:"apiKey,omitempty"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`

	Strictness string       `json:"strictness"`
	Checks     ChecksConfig `json:"checks"`
	Format     string       `json:"format"`
	RulesFile  string       `json:"rulesFile,omitempty"`
	PromptsDir string       `json:"promptsDir,omitempty"`

	TestFramework string `json:"testFramework"`
	Docstrings    bool   `json:"docstrings"`
	TestDir       string `json:"testDir"`

	LogLevel  string        `json:"logLevel"`
	LogFormat string        `json:"logFormat"`
	Privacy   PrivacyConfig `json:"privacy"`
}

// ChecksConfig toggles the optional review families.
type ChecksConfig struct {
	Security      bool `json:"security"`
	Performance   bool `json:"performance"`
	BestPractices bool `json:"bestPractices"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Allowed values.
var (
	Strictnesses = []string{"normal", "harsh", "strict"}
	Frameworks   = []string{"pytest", "unittest"}
	Formats      = []string{"text", "json", "markdown", "sarif"}
	Providers    = []string{"anthropic", "openai", "gemini", "google", "ollama", "lmstudio"}
)

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-20250514",
		MaxTokens:   8000,
		Temperature: 0.7,
		Strictness:  "harsh",
		Checks: ChecksConfig{
			Security:      true,
			Performance:   true,
			BestPractices: true,
		},
		Format:        "text",
		TestFramework: "pytest",
		Docstrings:    true,
		TestDir:       "tests",
		LogLevel:      "warn",
		LogFormat:     "text",
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// keys maps config keys to their environment variables. An empty variable
// means the key is file/flag only.
var keys = []struct {
	key string
	env string
}{
	{"provider", "CODE_REVIEWER_PROVIDER"},
	{"model", "CODE_REVIEWER_MODEL"},
	{"apiKey", ""},
	{"maxTokens", "CODE_REVIEWER_MAX_TOKENS"},
	{"temperature", "CODE_REVIEWER_TEMPERATURE"},
	{"strictness", "CODE_REVIEWER_STRICTNESS"},
	{"checks.security", "CODE_REVIEWER_SECURITY"},
	{"checks.performance", "CODE_REVIEWER_PERFORMANCE"},
	{"checks.bestPractices", "CODE_REVIEWER_BEST_PRACTICES"},
	{"format", "CODE_REVIEWER_FORMAT"},
	{"rulesFile", "CODE_REVIEWER_RULES"},
	{"promptsDir", "CODE_REVIEWER_PROMPTS_DIR"},
	{"testFramework", "CODE_REVIEWER_TEST_FRAMEWORK"},
	{"docstrings", "CODE_REVIEWER_DOCSTRINGS"},
	{"testDir", "CODE_REVIEWER_TEST_DIR"},
	{"logLevel", "CODE_REVIEWER_LOG_LEVEL"},
	{"logFormat", "CODE_REVIEWER_LOG_FORMAT"},
	{"privacy.redactSecrets", "CODE_REVIEWER_REDACT_SECRETS"},
	{"privacy.redactPaths", ""},
}

// Keys returns the settable config keys in display order.
func Keys() []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.key
	}
	return out
}

// ConfigDir returns the platform-appropriate config directory.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "AppData", "Roaming", appName), nil
	default:
		return filepath.Join(home, ".config", appName), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(path, overrides)
}

// LoadFrom is Load with an explicit config file path. A missing file is
// not an error.
func LoadFrom(path string, overrides map[string]string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	for _, k := range keys {
		if k.env == "" {
			continue
		}
		if err := v.BindEnv(k.key, k.env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", k.env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("parsing config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	for key, value := range overrides {
		if value == "" {
			continue
		}
		if !knownKey(key) {
			return Config{}, fmt.Errorf("unknown config key: %s", key)
		}
		v.Set(key, value)
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("apiKey", d.APIKey)
	v.SetDefault("maxTokens", d.MaxTokens)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("strictness", d.Strictness)
	v.SetDefault("checks.security", d.Checks.Security)
	v.SetDefault("checks.performance", d.Checks.Performance)
	v.SetDefault("checks.bestPractices", d.Checks.BestPractices)
	v.SetDefault("format", d.Format)
	v.SetDefault("rulesFile", d.RulesFile)
	v.SetDefault("promptsDir", d.PromptsDir)
	v.SetDefault("testFramework", d.TestFramework)
	v.SetDefault("docstrings", d.Docstrings)
	v.SetDefault("testDir", d.TestDir)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("logFormat", d.LogFormat)
	v.SetDefault("privacy.redactSecrets", d.Privacy.RedactSecrets)
	v.SetDefault("privacy.redactPaths", d.Privacy.RedactPaths)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Provider:    strings.ToLower(v.GetString("provider")),
		Model:       v.GetString("model"),
		APIKey:      v.GetString("apiKey"),
		MaxTokens:   v.GetInt("maxTokens"),
		Temperature: v.GetFloat64("temperature"),
		Strictness:  strings.ToLower(v.GetString("strictness")),
		Checks: ChecksConfig{
			Security:      v.GetBool("checks.security"),
			Performance:   v.GetBool("checks.performance"),
			BestPractices: v.GetBool("checks.bestPractices"),
		},
		Format:        strings.ToLower(v.GetString("format")),
		RulesFile:     v.GetString("rulesFile"),
		PromptsDir:    v.GetString("promptsDir"),
		TestFramework: strings.ToLower(v.GetString("testFramework")),
		Docstrings:    v.GetBool("docstrings"),
		TestDir:       v.GetString("testDir"),
		LogLevel:      v.GetString("logLevel"),
		LogFormat:     v.GetString("logFormat"),
		Privacy: PrivacyConfig{
			RedactSecrets: v.GetBool("privacy.redactSecrets"),
			RedactPaths:   v.GetStringSlice("privacy.redactPaths"),
		},
	}
}

func knownKey(key string) bool {
	for _, k := range keys {
		if strings.EqualFold(k.key, key) {
			return true
		}
	}
	return false
}

// LoadFile loads only the config file. Returns the defaults and nil error
// if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file. The file may hold an API key,
// so it is written owner-only.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// APIKeyEnv names the environment variable the provider reads its key from.
// Local providers return "".
func APIKeyEnv(provider string) string {
	switch provider {
	case "anthropic", "":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// HasAPIKey reports whether a key is available from the config or the
// provider's environment variable.
func (c Config) HasAPIKey() bool {
	if c.APIKey != "" {
		return true
	}
	env := APIKeyEnv(c.Provider)
	if env == "" {
		return true
	}
	if os.Getenv(env) != "" {
		return true
	}
	return (c.Provider == "gemini" || c.Provider == "google") && os.Getenv("GOOGLE_API_KEY") != ""
}

// Validate checks option values. It does not require an API key; see
// ValidateCredentials.
func (c Config) Validate() error {
	if !slices.Contains(Providers, c.Provider) {
		return fmt.Errorf("invalid provider: %s", c.Provider)
	}
	if !slices.Contains(Strictnesses, c.Strictness) {
		return fmt.Errorf("invalid strictness: %s", c.Strictness)
	}
	if !slices.Contains(Frameworks, c.TestFramework) {
		return fmt.Errorf("invalid test framework: %s", c.TestFramework)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("invalid format: %s", c.Format)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %g", c.Temperature)
	}
	return nil
}

// ValidateCredentials fails when the selected provider needs a key and none
// is configured.
func (c Config) ValidateCredentials() error {
	if c.HasAPIKey() {
		return nil
	}
	env := APIKeyEnv(c.Provider)
	return fmt.Errorf("%s environment variable is required. Please set it with: export %s='your-api-key' or run 'code-reviewer configure'", env, env)
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "apiKey":
		cfg.APIKey = value
	case "maxTokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxTokens must be an integer: %w", err)
		}
		cfg.MaxTokens = n
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %w", err)
		}
		cfg.Temperature = f
	case "strictness":
		cfg.Strictness = value
	case "checks.security":
		return setBool(&cfg.Checks.Security, key, value)
	case "checks.performance":
		return setBool(&cfg.Checks.Performance, key, value)
	case "checks.bestPractices":
		return setBool(&cfg.Checks.BestPractices, key, value)
	case "format":
		cfg.Format = value
	case "rulesFile":
		cfg.RulesFile = value
	case "promptsDir":
		cfg.PromptsDir = value
	case "testFramework":
		cfg.TestFramework = value
	case "docstrings":
		return setBool(&cfg.Docstrings, key, value)
	case "testDir":
		cfg.TestDir = value
	case "logLevel":
		cfg.LogLevel = value
	case "logFormat":
		cfg.LogFormat = value
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

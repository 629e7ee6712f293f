package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/prsentry/internal/redact"
	"github.com/dshills/prsentry/internal/review"
)

// Config represents the prsentry configuration.
type Config struct {
	WebhookURL string          `yaml:"webhookURL,omitempty" env:"PRSENTRY_WEBHOOK_URL"`
	Modes      []string        `yaml:"modes" env:"PRSENTRY_MODES" envSeparator:","`
	TestMode   bool            `yaml:"testMode" env:"TEST_COMMENT"`
	Reasoning  ReasoningConfig `yaml:"reasoning"`
	Retrieval  RetrievalConfig `yaml:"retrieval"`
	Comment    CommentConfig   `yaml:"comment"`
	Chat       ChatConfig      `yaml:"chat"`
	Privacy    PrivacyConfig   `yaml:"privacy"`
	Timeouts   TimeoutConfig   `yaml:"timeouts"`
}

// ReasoningConfig selects the reasoning service.
type ReasoningConfig struct {
	Provider    string  `yaml:"provider" env:"PRSENTRY_PROVIDER"`
	Model       string  `yaml:"model" env:"PRSENTRY_MODEL"`
	BaseURL     string  `yaml:"baseURL,omitempty" env:"PRSENTRY_BASE_URL"`
	APIKey      string  `yaml:"-" env:"PRSENTRY_API_KEY"`
	Temperature float64 `yaml:"temperature" env:"PRSENTRY_TEMPERATURE"`
	MaxTokens   int     `yaml:"maxTokens" env:"PRSENTRY_MAX_TOKENS"`
}

// RetrievalConfig controls the codebase index.
type RetrievalConfig struct {
	CodebasePath string `yaml:"codebasePath,omitempty" env:"PRSENTRY_CODEBASE"`
	IndexDir     string `yaml:"indexDir,omitempty" env:"PRSENTRY_INDEX_DIR"`
	TopK         int    `yaml:"topK" env:"PRSENTRY_TOP_K"`
	ChunkSize    int    `yaml:"chunkSize" env:"PRSENTRY_CHUNK_SIZE"`
	ChunkOverlap int    `yaml:"chunkOverlap" env:"PRSENTRY_CHUNK_OVERLAP"`
}

// CommentConfig controls the PR comment destination.
type CommentConfig struct {
	Enabled     bool   `yaml:"enabled" env:"PRSENTRY_COMMENT_ENABLED"`
	Token       string `yaml:"-" env:"GITHUB_TOKEN"`
	APIURL      string `yaml:"apiURL,omitempty" env:"PRSENTRY_GITHUB_API_URL"`
	Inline      bool   `yaml:"inline" env:"PRSENTRY_INLINE_COMMENTS"`
	MaxConcerns int    `yaml:"maxConcerns" env:"PRSENTRY_MAX_CONCERNS"`
}

// ChatConfig controls the chat webhook destination.
type ChatConfig struct {
	Enabled    bool   `yaml:"enabled" env:"PRSENTRY_CHAT_ENABLED"`
	WebhookURL string `yaml:"-" env:"SLACK_WEBHOOK_URL"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets" env:"PRSENTRY_REDACT_SECRETS"`
	RedactPaths   []string `yaml:"redactPaths,omitempty" env:"PRSENTRY_REDACT_PATHS" envSeparator:","`
}

// TimeoutConfig bounds every outbound call.
type TimeoutConfig struct {
	Webhook   time.Duration `yaml:"webhook" env:"PRSENTRY_WEBHOOK_TIMEOUT"`
	Reasoning time.Duration `yaml:"reasoning" env:"PRSENTRY_REASONING_TIMEOUT"`
	Comment   time.Duration `yaml:"comment" env:"PRSENTRY_COMMENT_TIMEOUT"`
	Chat      time.Duration `yaml:"chat" env:"PRSENTRY_CHAT_TIMEOUT"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Modes: []string{string(review.ModeReview)},
		Reasoning: ReasoningConfig{
			Provider:    "nvidia",
			Model:       "nvidia/llama-3.3-nemotron-super-49b-v1",
			Temperature: 0.1,
			MaxTokens:   2048,
		},
		Retrieval: RetrievalConfig{
			TopK:         4,
			ChunkSize:    2000,
			ChunkOverlap: 200,
		},
		Comment: CommentConfig{
			Enabled:     true,
			MaxConcerns: 3,
		},
		Chat: ChatConfig{
			Enabled: true,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*.pem", "**/*secrets*"},
		},
		Timeouts: TimeoutConfig{
			Webhook:   15 * time.Second,
			Reasoning: 15 * time.Second,
			Comment:   15 * time.Second,
			Chat:      10 * time.Second,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for prsentry.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prsentry"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "prsentry"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "prsentry"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "prsentry"), nil
	default:
		return filepath.Join(home, ".config", "prsentry"), nil
	}
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// ConfigPath is the YAML file. Empty means ConfigPath(); a missing
	// default file is not an error.
	ConfigPath string
	// EnvFile is a dotenv file. Empty means ".env" in the working directory
	// when it exists.
	EnvFile string
	// Environ replaces os.Environ() when non-nil.
	Environ []string
	// Overrides come from CLI flags, keyed as in SetField.
	Overrides map[string]string
}

// Load builds the effective config by merging:
// defaults <- YAML file <- .env file <- environment <- overrides.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if err := loadFile(&cfg, opts.ConfigPath); err != nil {
		return Config{}, err
	}

	vars, err := environment(opts)
	if err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	for key, value := range opts.Overrides {
		if err := SetField(&cfg, key, value); err != nil {
			return Config{}, err
		}
	}
	resolveAliases(&cfg, vars)

	return cfg, nil
}

// LoadFile returns the defaults overlaid with the YAML file alone, ignoring
// the environment. Used when editing the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := loadFile(&cfg, path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// environment merges the dotenv file under the process environment.
func environment(opts LoadOptions) (map[string]string, error) {
	vars := map[string]string{}

	envFile := opts.EnvFile
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			vars[k] = v
		}
	}
	return vars, nil
}

// providerKeyVars are the conventional API key variables per provider.
var providerKeyVars = map[string][]string{
	"nvidia":    {"NVIDIA_API_KEY"},
	"openai":    {"OPENAI_API_KEY", "NVIDIA_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"ollama":    {"OLLAMA_API_KEY"},
	"lmstudio":  {"LMSTUDIO_API_KEY"},
}

func resolveAliases(cfg *Config, vars map[string]string) {
	if cfg.Comment.Token == "" {
		cfg.Comment.Token = vars["GH_TOKEN"]
	}
	if cfg.Reasoning.APIKey == "" {
		for _, name := range providerKeyVars[cfg.Reasoning.Provider] {
			if v := vars[name]; v != "" {
				cfg.Reasoning.APIKey = v
				break
			}
		}
	}
}

// Save writes cfg as YAML to path, or to ConfigPath() when path is empty.
// Credentials are never written.
func Save(cfg Config, path string) (string, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return "", err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// AnalysisModes parses the configured mode names.
func (c Config) AnalysisModes() ([]review.Mode, error) {
	modes := make([]review.Mode, 0, len(c.Modes))
	for _, name := range c.Modes {
		if strings.TrimSpace(name) == "" {
			continue
		}
		m, err := review.ParseMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	if len(modes) == 0 {
		return nil, errors.New("at least one analysis mode is required")
	}
	return modes, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.AnalysisModes(); err != nil {
		errs = append(errs, err)
	}
	if c.Reasoning.Temperature < 0 || c.Reasoning.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %g", c.Reasoning.Temperature))
	}
	if c.Reasoning.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("maxTokens must be positive, got %d", c.Reasoning.MaxTokens))
	}
	if c.Retrieval.TopK < 0 {
		errs = append(errs, fmt.Errorf("topK must not be negative, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunkSize must be positive, got %d", c.Retrieval.ChunkSize))
	} else if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		errs = append(errs, fmt.Errorf("chunkOverlap must be in [0, chunkSize), got %d", c.Retrieval.ChunkOverlap))
	}
	if c.Comment.MaxConcerns <= 0 {
		errs = append(errs, fmt.Errorf("comment.maxConcerns must be positive, got %d", c.Comment.MaxConcerns))
	}
	for name, d := range map[string]time.Duration{
		"webhook":   c.Timeouts.Webhook,
		"reasoning": c.Timeouts.Reasoning,
		"comment":   c.Timeouts.Comment,
		"chat":      c.Timeouts.Chat,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("timeouts.%s must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// Credentials returns the configured secrets masked for display.
func (c Config) Credentials() map[string]string {
	return map[string]string{
		"reasoningAPIKey": redact.Mask(c.Reasoning.APIKey),
		"githubToken":     redact.Mask(c.Comment.Token),
		"slackWebhookURL": redact.Mask(c.Chat.WebhookURL),
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "webhookURL":
		cfg.WebhookURL = value
	case "modes":
		cfg.Modes = splitList(value)
	case "testMode":
		return setBool(&cfg.TestMode, key, value)
	case "provider":
		cfg.Reasoning.Provider = value
	case "model":
		cfg.Reasoning.Model = value
	case "baseURL":
		cfg.Reasoning.BaseURL = value
	case "temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %w", err)
		}
		cfg.Reasoning.Temperature = f
	case "maxTokens":
		return setInt(&cfg.Reasoning.MaxTokens, key, value)
	case "codebasePath":
		cfg.Retrieval.CodebasePath = value
	case "indexDir":
		cfg.Retrieval.IndexDir = value
	case "topK":
		return setInt(&cfg.Retrieval.TopK, key, value)
	case "chunkSize":
		return setInt(&cfg.Retrieval.ChunkSize, key, value)
	case "chunkOverlap":
		return setInt(&cfg.Retrieval.ChunkOverlap, key, value)
	case "comment.enabled":
		return setBool(&cfg.Comment.Enabled, key, value)
	case "comment.inline":
		return setBool(&cfg.Comment.Inline, key, value)
	case "comment.maxConcerns":
		return setInt(&cfg.Comment.MaxConcerns, key, value)
	case "chat.enabled":
		return setBool(&cfg.Chat.Enabled, key, value)
	case "redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

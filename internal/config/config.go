package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tutor/internal/qa"
)

// ExtractionConfig tunes the extraction pipeline.
type ExtractionConfig struct {
	Threshold   float64 `yaml:"threshold"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// SummarizerConfig bounds the generated summary.
type SummarizerConfig struct {
	OverviewSentences int `yaml:"overview_sentences"`
	KeyPointsMin      int `yaml:"key_points_min"`
	KeyPointsMax      int `yaml:"key_points_max"`
	MaxTopics         int `yaml:"max_topics"`
}

// QAConfig tunes answer matching.
type QAConfig struct {
	MinRelevance float64 `yaml:"min_relevance"`
	HeadingBoost float64 `yaml:"heading_boost"`
}

// ConversationConfig holds per-session defaults.
type ConversationConfig struct {
	Window           int    `yaml:"window"`
	Grade            string `yaml:"grade"`
	VoiceMaxChars    int    `yaml:"voice_max_chars"`
	InputTimeoutSecs int    `yaml:"input_timeout_secs"`
}

// VocabularyConfig points at an optional YAML or TOML term file merged over
// the built-in terms.
type VocabularyConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig selects the recorder implementation.
type StoreConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path,omitempty"`
}

// ServerConfig configures the WebSocket server.
type ServerConfig struct {
	Addr          string  `yaml:"addr"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	MaxUploadMB   int     `yaml:"max_upload_mb"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Extraction   ExtractionConfig   `yaml:"extraction"`
	Summarizer   SummarizerConfig   `yaml:"summarizer"`
	QA           QAConfig           `yaml:"qa"`
	Conversation ConversationConfig `yaml:"conversation"`
	Vocabulary   VocabularyConfig   `yaml:"vocabulary"`
	Store        StoreConfig        `yaml:"store"`
	Server       ServerConfig       `yaml:"server"`
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults. Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			mergeWithEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	mergeWithEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/tutor/config.yaml.
// If neither exists, it writes defaults to ~/.config/tutor/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	mergeWithEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports every setting that is out of range.
func (c *AppConfig) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.Extraction.Threshold < 0 || c.Extraction.Threshold > 1 {
		add("extraction.threshold", "threshold must be between 0 and 1")
	}
	if c.Extraction.TimeoutSecs < 1 {
		add("extraction.timeout_secs", "timeout must be at least 1 second")
	}
	if c.Summarizer.OverviewSentences < 1 {
		add("summarizer.overview_sentences", "at least one overview sentence is required")
	}
	if c.Summarizer.KeyPointsMin < 1 {
		add("summarizer.key_points_min", "at least one key point is required")
	}
	if c.Summarizer.KeyPointsMax < c.Summarizer.KeyPointsMin {
		add("summarizer.key_points_max", "key_points_max must not be below key_points_min")
	}
	if c.QA.MinRelevance < 0 || c.QA.MinRelevance >= 1 {
		add("qa.min_relevance", "min_relevance must be in [0, 1)")
	}
	if c.QA.HeadingBoost < 1 {
		add("qa.heading_boost", "heading_boost must be at least 1")
	}
	if c.Conversation.Window < 2 {
		add("conversation.window", "window must hold at least one exchange")
	}
	if _, err := qa.ParseGrade(c.Conversation.Grade); err != nil {
		add("conversation.grade", err.Error())
	}
	switch c.Store.Type {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			add("store.path", "sqlite store requires a path")
		}
	default:
		add("store.type", fmt.Sprintf("unknown store type %q (want memory or sqlite)", c.Store.Type))
	}
	if c.Server.RatePerSecond <= 0 || c.Server.Burst < 1 {
		add("server.rate_per_second", "rate and burst must be positive")
	}
	return errs
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tutor", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Extraction:   ExtractionConfig{Threshold: 0.6, TimeoutSecs: 30},
		Summarizer:   SummarizerConfig{OverviewSentences: 3, KeyPointsMin: 3, KeyPointsMax: 7, MaxTopics: 5},
		QA:           QAConfig{MinRelevance: 0.3, HeadingBoost: 1.5},
		Conversation: ConversationConfig{Window: 20, VoiceMaxChars: 250, InputTimeoutSecs: 30},
		Store:        StoreConfig{Type: "memory"},
		Server:       ServerConfig{Addr: ":8080", RatePerSecond: 5, Burst: 10, MaxUploadMB: 20},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Extraction.Threshold == 0 {
		cfg.Extraction.Threshold = def.Extraction.Threshold
	}
	if cfg.Extraction.TimeoutSecs == 0 {
		cfg.Extraction.TimeoutSecs = def.Extraction.TimeoutSecs
	}
	if cfg.Summarizer.OverviewSentences == 0 {
		cfg.Summarizer.OverviewSentences = def.Summarizer.OverviewSentences
	}
	if cfg.Summarizer.KeyPointsMin == 0 && cfg.Summarizer.KeyPointsMax == 0 {
		cfg.Summarizer.KeyPointsMin = def.Summarizer.KeyPointsMin
		cfg.Summarizer.KeyPointsMax = def.Summarizer.KeyPointsMax
	}
	if cfg.Summarizer.MaxTopics == 0 {
		cfg.Summarizer.MaxTopics = def.Summarizer.MaxTopics
	}
	if cfg.QA.MinRelevance == 0 {
		cfg.QA.MinRelevance = def.QA.MinRelevance
	}
	if cfg.QA.HeadingBoost == 0 {
		cfg.QA.HeadingBoost = def.QA.HeadingBoost
	}
	if cfg.Conversation.Window == 0 {
		cfg.Conversation.Window = def.Conversation.Window
	}
	if cfg.Conversation.VoiceMaxChars == 0 {
		cfg.Conversation.VoiceMaxChars = def.Conversation.VoiceMaxChars
	}
	if cfg.Conversation.InputTimeoutSecs == 0 {
		cfg.Conversation.InputTimeoutSecs = def.Conversation.InputTimeoutSecs
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = def.Store.Type
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.RatePerSecond == 0 {
		cfg.Server.RatePerSecond = def.Server.RatePerSecond
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = def.Server.Burst
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = def.Server.MaxUploadMB
	}
}

// mergeWithEnv applies TUTOR_* environment overrides. Setting
// TUTOR_STORE_PATH switches the store to sqlite.
func mergeWithEnv(cfg *AppConfig) {
	if v := os.Getenv("TUTOR_GRADE"); v != "" {
		cfg.Conversation.Grade = v
	}
	if v := os.Getenv("TUTOR_STORE_PATH"); v != "" {
		cfg.Store.Type = "sqlite"
		cfg.Store.Path = v
	}
	if v := os.Getenv("TUTOR_VOCABULARY"); v != "" {
		cfg.Vocabulary.Path = v
	}
}

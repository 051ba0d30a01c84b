package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"newsbrief/internal/news"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// TargetLanguages lists the translation targets the analyzer accepts,
// keyed by language code with the name used in translation prompts.
var TargetLanguages = map[string]string{
	"zh-CN": "Simplified Chinese",
	"zh-TW": "Traditional Chinese",
	"en":    "English",
	"ja":    "Japanese",
	"ko":    "Korean",
}

type Config struct {
	Categories []CategorySources `yaml:"categories"`
	Limits     Limits            `yaml:"limits"`
	Collect    Collect           `yaml:"collect"`
	Analyzer   Analyzer          `yaml:"analyzer"`
	Output     Output            `yaml:"output"`
	Catalog    Catalog           `yaml:"catalog"`
}

// CategorySources maps one category to its feed endpoints.
type CategorySources struct {
	Name  news.Category `yaml:"name"`
	Feeds []string      `yaml:"feeds"`
}

type Limits struct {
	PerSource int `yaml:"per_source"`
	Total     int `yaml:"total"`
	Output    int `yaml:"output"`
}

type Collect struct {
	Concurrency    int `yaml:"concurrency"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type Analyzer struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TargetLanguage string `yaml:"target_language"`
	Concurrency    int    `yaml:"concurrency"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Catalog struct {
	Enabled bool `yaml:"enabled"`
}

// APIKey resolves the analyzer API key from the configured environment
// variable. Empty means the enrichment service is not configured.
func (a Analyzer) APIKey() string {
	if a.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(a.APIKeyEnv)
}

// ConfigDir returns the XDG config directory for newsbrief.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "newsbrief")
}

// DataDir returns the XDG data directory for newsbrief.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "newsbrief")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/newsbrief/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'newsbrief init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	return parse(DefaultConfigYAML)
}

// parse parses YAML bytes into a Config, applying defaults and
// validating the category and language enumerations.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Limits: Limits{
			PerSource: 15,
			Total:     100,
			Output:    100,
		},
		Collect: Collect{
			Concurrency:    6,
			TimeoutSeconds: 15,
		},
		Analyzer: Analyzer{
			Endpoint:       "https://open.bigmodel.cn/api/paas/v4/chat/completions",
			Model:          "glm-4-flash",
			APIKeyEnv:      "ZHIPU_API_KEY",
			TargetLanguage: "zh-CN",
			Concurrency:    4,
		},
		Catalog: Catalog{Enabled: true},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for _, cs := range cfg.Categories {
		if !cs.Name.Valid() {
			return nil, fmt.Errorf("unknown category %q", cs.Name)
		}
	}
	if _, ok := TargetLanguages[cfg.Analyzer.TargetLanguage]; !ok {
		return nil, fmt.Errorf("unsupported target language %q", cfg.Analyzer.TargetLanguage)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// FeedCount returns the total number of configured feed endpoints.
func (c *Config) FeedCount() int {
	n := 0
	for _, cs := range c.Categories {
		n += len(cs.Feeds)
	}
	return n
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

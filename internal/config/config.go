package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the lens configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the lens configuration directory
const ConfigDirName = ".lens"

// Config holds all lens configuration
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Context ContextConfig `yaml:"context"`
	Prompt  PromptConfig  `yaml:"prompt"`
	Model   ModelConfig   `yaml:"model"`
}

// IndexConfig holds configuration for the index command
type IndexConfig struct {
	Languages      []string `yaml:"languages"`
	Exclude        []string `yaml:"exclude"`
	EmbeddingModel string   `yaml:"embedding_model"`
}

// ContextConfig holds the context-assembly budgets
type ContextConfig struct {
	MaxReferences int `yaml:"max_references"`
	MaxSymbols    int `yaml:"max_symbols"`
	MaxFiles      int `yaml:"max_files"`
	ExpandLines   int `yaml:"expand_lines"`
	MaxReadBytes  int `yaml:"max_read_bytes"`
	BytesPerLine  int `yaml:"bytes_per_line"`
	HeadLines     int `yaml:"head_lines"`
	TailLines     int `yaml:"tail_lines"`
	SemanticTopK  int `yaml:"semantic_top_k"`
}

// PromptConfig holds the assembled prompt's ceilings
type PromptConfig struct {
	MaxTokens int `yaml:"max_tokens"`
	MaxChars  int `yaml:"max_chars"`
}

// ModelConfig holds the generation endpoint settings
type ModelConfig struct {
	Endpoint string `yaml:"endpoint"`
	Name     string `yaml:"name"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .lens/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .lens directory by walking up from startDir.
// Returns the path to the .lens directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .lens directory if it doesn't exist.
// Returns the path to the .lens directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if cfg.Context.MaxReferences <= 0 {
		return fmt.Errorf("%w: max_references must be positive, got %d",
			ErrInvalidConfig, cfg.Context.MaxReferences)
	}

	if cfg.Context.MaxSymbols <= 0 {
		return fmt.Errorf("%w: max_symbols must be positive, got %d",
			ErrInvalidConfig, cfg.Context.MaxSymbols)
	}

	if cfg.Context.MaxFiles <= 0 {
		return fmt.Errorf("%w: max_files must be positive, got %d",
			ErrInvalidConfig, cfg.Context.MaxFiles)
	}

	if cfg.Context.ExpandLines < 0 {
		return fmt.Errorf("%w: expand_lines must be non-negative, got %d",
			ErrInvalidConfig, cfg.Context.ExpandLines)
	}

	if cfg.Context.MaxReadBytes <= 0 {
		return fmt.Errorf("%w: max_read_bytes must be positive, got %d",
			ErrInvalidConfig, cfg.Context.MaxReadBytes)
	}

	if cfg.Context.BytesPerLine <= 0 {
		return fmt.Errorf("%w: bytes_per_line must be positive, got %d",
			ErrInvalidConfig, cfg.Context.BytesPerLine)
	}

	if cfg.Context.HeadLines <= 0 || cfg.Context.TailLines <= 0 {
		return fmt.Errorf("%w: head_lines and tail_lines must be positive, got %d/%d",
			ErrInvalidConfig, cfg.Context.HeadLines, cfg.Context.TailLines)
	}

	if cfg.Context.SemanticTopK <= 0 {
		return fmt.Errorf("%w: semantic_top_k must be positive, got %d",
			ErrInvalidConfig, cfg.Context.SemanticTopK)
	}

	if cfg.Prompt.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive, got %d",
			ErrInvalidConfig, cfg.Prompt.MaxTokens)
	}

	if cfg.Prompt.MaxChars <= 0 {
		return fmt.Errorf("%w: max_chars must be positive, got %d",
			ErrInvalidConfig, cfg.Prompt.MaxChars)
	}

	return nil
}

// SaveDefault writes the default configuration to .lens/config.yaml in
// workDir. Creates the .lens directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# lens configuration\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}

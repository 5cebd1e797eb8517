package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Database is a SQLite file path or an http(s) URL to fetch it from.
	Database   string `yaml:"database"`
	CacheDir   string `yaml:"cache_dir"`
	LogFile    string `yaml:"log_file"`
	ListenAddr string `yaml:"listen_addr"`
	Debug      bool   `yaml:"debug"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	dir, err := getConfigDir()
	if err != nil {
		dir = ".escoco"
	}
	return &Config{
		Database:   filepath.Join(dir, "escoco.db"),
		CacheDir:   filepath.Join(dir, "cache"),
		LogFile:    filepath.Join(dir, "escoco.log"),
		ListenAddr: "127.0.0.1:8080",
	}
}

// NewConfig loads configuration with the following priority:
// Environment variables (.env included) > Config file > Defaults
func NewConfig() (*Config, error) {
	config := Default()
	if err := loadConfigFile(config); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) error {
	if v := os.Getenv("ESCOCO_DATABASE"); v != "" {
		config.Database = v
	}
	if v := os.Getenv("ESCOCO_CACHE_DIR"); v != "" {
		config.CacheDir = v
	}
	if v := os.Getenv("ESCOCO_LOG_FILE"); v != "" {
		config.LogFile = v
	}
	if v := os.Getenv("ESCOCO_LISTEN_ADDR"); v != "" {
		config.ListenAddr = v
	}
	if v := os.Getenv("ESCOCO_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ESCOCO_DEBUG %q: %w", v, err)
		}
		config.Debug = debug
	}
	return nil
}

// InitConfig creates a new configuration file pointing at database
func InitConfig(database string) error {
	configDir, err := getConfigDir()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := getConfigFilePath()
	if err != nil {
		return err
	}

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	def := Default()
	if database == "" {
		database = def.Database
	}

	// Prepare YAML content with comments
	yamlContent := fmt.Sprintf(`# escoco configuration file
# database: path to the transcript SQLite file, or an http(s) URL that is
# downloaded into cache_dir once per session.

database: %q
cache_dir: %q
log_file: %q
listen_addr: %q
debug: false
`, database, def.CacheDir, def.LogFile, def.ListenAddr)

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() (string, error) {
	return getConfigFilePath()
}

// getConfigDir returns the configuration directory path (~/.escoco)
func getConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".escoco"), nil
}

// getConfigFilePath returns the full path to the config file
func getConfigFilePath() (string, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// loadConfigFile loads configuration from ~/.escoco/config.yaml
func loadConfigFile(config *Config) error {
	configPath, err := getConfigFilePath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

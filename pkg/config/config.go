package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Environment     string  `yaml:"environment"`
	LogLevel        string  `yaml:"log_level"`
	LogFormat       string  `yaml:"log_format"` // "json" or "console"
	Port            string  `yaml:"port"`
	DatabaseDriver  string  `yaml:"database_driver"` // "sqlite", "postgres" or "mysql"
	DatabaseURL     string  `yaml:"database_url"`
	DataDir         string  `yaml:"data_dir"`
	FileEncoding    string  `yaml:"file_encoding"`
	YearStart       int     `yaml:"year_start"`
	YearEnd         int     `yaml:"year_end"`
	ModelPath       string  `yaml:"model_path"`
	TreeCount       int     `yaml:"tree_count"`
	MaxDepth        int     `yaml:"max_depth"` // 0 grows trees until leaves are pure
	RandomSeed      int64   `yaml:"random_seed"`
	TestSize        float64 `yaml:"test_size"`
	RetrainSchedule string  `yaml:"retrain_schedule"`
	// LegacyDateCopy fills VAX_DATE and ONSET_DATE from DATEDIED, matching tables
	// produced by the first generation of the extraction job.
	LegacyDateCopy bool `yaml:"legacy_date_copy"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Environment:    "development",
		LogLevel:       "info",
		LogFormat:      "json",
		Port:           "8080",
		DatabaseDriver: "sqlite",
		DatabaseURL:    "vaers.db",
		DataDir:        "AllVAERSDataCSVS",
		FileEncoding:   "latin1",
		YearStart:      1990,
		YearEnd:        2025,
		ModelPath:      "vaers_model.json",
		TreeCount:      100,
		MaxDepth:       0,
		RandomSeed:     42,
		TestSize:       0.33,
	}
}

// LoadConfig loads configuration from an optional YAML file, then environment variables.
// Environment variables take precedence over the file.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.Environment = getEnv("ENVIRONMENT", config.Environment)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.LogFormat = getEnv("LOG_FORMAT", config.LogFormat)
	config.Port = getEnv("PORT", config.Port)
	config.DatabaseDriver = getEnv("DATABASE_DRIVER", config.DatabaseDriver)
	config.DatabaseURL = getEnv("DATABASE_URL", config.DatabaseURL)
	config.DataDir = getEnv("DATA_DIR", config.DataDir)
	config.FileEncoding = getEnv("FILE_ENCODING", config.FileEncoding)
	config.YearStart = getEnvAsInt("YEAR_START", config.YearStart)
	config.YearEnd = getEnvAsInt("YEAR_END", config.YearEnd)
	config.ModelPath = getEnv("MODEL_PATH", config.ModelPath)
	config.TreeCount = getEnvAsInt("TREE_COUNT", config.TreeCount)
	config.MaxDepth = getEnvAsInt("MAX_DEPTH", config.MaxDepth)
	config.RandomSeed = getEnvAsInt64("RANDOM_SEED", config.RandomSeed)
	config.TestSize = getEnvAsFloat("TEST_SIZE", config.TestSize)
	config.RetrainSchedule = getEnv("RETRAIN_SCHEDULE", config.RetrainSchedule)
	config.LegacyDateCopy = getEnvAsBool("LEGACY_DATE_COPY", config.LegacyDateCopy)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for values the components cannot work with
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite, postgres or mysql, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if c.YearStart > c.YearEnd {
		return fmt.Errorf("YEAR_START (%d) must not be after YEAR_END (%d)", c.YearStart, c.YearEnd)
	}
	if c.TreeCount <= 0 {
		return fmt.Errorf("TREE_COUNT must be positive, got %d", c.TreeCount)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("MAX_DEPTH must not be negative, got %d", c.MaxDepth)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("TEST_SIZE must be between 0 and 1, got %v", c.TestSize)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "BALAG"

// Config represents the complete pipeline configuration
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Sources    SourcesConfig    `yaml:"sources" envconfig:"SOURCES"`
	Cleaning   CleaningConfig   `yaml:"cleaning" envconfig:"CLEANING"`
	Evaluation EvaluationConfig `yaml:"evaluation" envconfig:"EVALUATION"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console stdout file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig overrides the executable-relative root directory
type PathsConfig struct {
	RootDir string `yaml:"root_dir" envconfig:"ROOT_DIR"`
}

// SourcesConfig describes where the three extracts live and how they are laid out
type SourcesConfig struct {
	BalAGFile      string        `yaml:"balag_file" envconfig:"BALAG_FILE" validate:"required"`
	BalAGSeparator string        `yaml:"balag_separator" envconfig:"BALAG_SEPARATOR" validate:"len=1"`
	EtabFile       string        `yaml:"etab_file" envconfig:"ETAB_FILE" validate:"required"`
	EtabSeparator  string        `yaml:"etab_separator" envconfig:"ETAB_SEPARATOR" validate:"len=1"`
	ScoreFile      string        `yaml:"score_file" envconfig:"SCORE_FILE" validate:"required"`
	ScoreSeparator string        `yaml:"score_separator" envconfig:"SCORE_SEPARATOR" validate:"len=1"`
	CleanedFile    string        `yaml:"cleaned_file" envconfig:"CLEANED_FILE" validate:"required"`
	FeaturesFile   string        `yaml:"features_file" envconfig:"FEATURES_FILE" validate:"required"`
	Remote         bool          `yaml:"remote" envconfig:"REMOTE"`
	AccountFile    string        `yaml:"account_file" envconfig:"ACCOUNT_FILE"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	FetchAttempts  int           `yaml:"fetch_attempts" envconfig:"FETCH_ATTEMPTS" validate:"gte=1"`
	ScoreSource    string        `yaml:"score_source" envconfig:"SCORE_SOURCE"`
	ScoreMinYear   int           `yaml:"score_min_year" envconfig:"SCORE_MIN_YEAR" validate:"gte=0"`
	ScoreMaxYear   int           `yaml:"score_max_year" envconfig:"SCORE_MAX_YEAR" validate:"gte=0"`
}

// EvaluationConfig parametrizes the model comparison
type EvaluationConfig struct {
	Features      []string `yaml:"features" envconfig:"FEATURES" validate:"min=1,dive,required"`
	TrainFraction float64  `yaml:"train_fraction" envconfig:"TRAIN_FRACTION" validate:"gt=0,lt=1"`
	Sampling      string   `yaml:"sampling" envconfig:"SAMPLING" validate:"oneof=random balanced"`
	Seed          uint64   `yaml:"seed" envconfig:"SEED"`
	RidgeAlpha    float64  `yaml:"ridge_alpha" envconfig:"RIDGE_ALPHA" validate:"gte=0"`
	Threshold     float64  `yaml:"threshold" envconfig:"THRESHOLD"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Tracing     string `yaml:"tracing" envconfig:"TRACING" validate:"oneof=stdout none"`
	MetricsFile bool   `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load builds the configuration from defaults, the first config file found
// and BALAG_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and the cleaning thresholds
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Sources.ScoreMaxYear != 0 && c.Sources.ScoreMaxYear < c.Sources.ScoreMinYear {
		return fmt.Errorf("score year range is empty: %d..%d", c.Sources.ScoreMinYear, c.Sources.ScoreMaxYear)
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "stdout" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/balag.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "both",
			FilePath:    "logs/balag.log",
			Development: false,
		},
		Sources: SourcesConfig{
			BalAGFile:      "cameliaBalAG.csv.gz",
			BalAGSeparator: "\t",
			EtabFile:       "ProcessedData/cameliaEtabKevin.csv.gz",
			EtabSeparator:  ";",
			ScoreFile:      "cameliaScores.csv.bz2",
			ScoreSeparator: "\t",
			CleanedFile:    "cameliaBalAGKevin.csv",
			FeaturesFile:   "preprocessedDataBalAG.csv",
			Remote:         false,
			AccountFile:    "login_ftp.txt",
			Timeout:        5 * time.Minute,
			FetchAttempts:  3,
			ScoreSource:    "bilans1",
			ScoreMinYear:   2010,
			ScoreMaxYear:   0,
		},
		Cleaning: DefaultCleaning(),
		Evaluation: EvaluationConfig{
			Features:      []string{"echeance"},
			TrainFraction: 0.8,
			Sampling:      "random",
			Seed:          1,
			RidgeAlpha:    1.0,
			Threshold:     0,
		},
		Telemetry: TelemetryConfig{
			Tracing:     "none",
			MetricsFile: true,
		},
	}
}

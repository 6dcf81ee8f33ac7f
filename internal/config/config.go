package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"scenario-sim/internal/simulation"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// InsightConfig configures the narrative insight collaborator.
type InsightConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"-"`
}

// RecorderConfig configures simulation record persistence.
type RecorderConfig struct {
	SQLitePath    string        `yaml:"sqlite_path"`
	Retention     time.Duration `yaml:"-"`
	RetentionCron string        `yaml:"retention_cron"`
}

// KafkaConfig configures completion event publishing.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string                 `yaml:"-"`
	LogDir              string                 `yaml:"-"`
	ListenAddr          string                 `yaml:"listen_addr"`
	Workers             int                    `yaml:"workers"`
	MaxIterations       int                    `yaml:"max_iterations"`
	MaxTimeHorizon      int                    `yaml:"max_time_horizon"`
	Attribution         simulation.Attribution `yaml:"factor_attribution"`
	Insight             InsightConfig          `yaml:"insight"`
	Recorder            RecorderConfig         `yaml:"recorder"`
	Kafka               KafkaConfig            `yaml:"kafka"`
	EnableMermaidCharts bool                   `yaml:"enable_mermaid_charts"`

	// Duration strings from the YAML file, parsed with str2duration ("90s", "2d12h").
	InsightTimeoutRaw  string `yaml:"insight_timeout"`
	RecordRetentionRaw string `yaml:"record_retention"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:     ":8080",
		Workers:        runtime.NumCPU(),
		MaxIterations:  100000,
		MaxTimeHorizon: 600,
		Attribution:    simulation.AttributionImpact,
		Insight:        InsightConfig{Model: "gpt-4o-mini", Timeout: 20 * time.Second},
		Recorder:       RecorderConfig{Retention: 30 * 24 * time.Hour, RetentionCron: "@daily"},
		Kafka:          KafkaConfig{Topic: "simulation.completed"},
	}
}

// Load loads the configuration from .env files, an optional YAML file and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return load(exeDir)
}

func load(exeDir string) (*AppConfig, error) {
	cfg := Defaults()

	// 3. Optional YAML overlay, below environment variables in priority
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	// 4. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}
	cfg.DataPath = dataPath
	cfg.LogDir = getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Config file not found, using defaults")
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if c.InsightTimeoutRaw != "" {
		if c.Insight.Timeout, err = str2duration.ParseDuration(c.InsightTimeoutRaw); err != nil {
			return fmt.Errorf("insight_timeout: %w", err)
		}
	}
	if c.RecordRetentionRaw != "" {
		if c.Recorder.Retention, err = str2duration.ParseDuration(c.RecordRetentionRaw); err != nil {
			return fmt.Errorf("record_retention: %w", err)
		}
	}
	log.Debug().Str("path", path).Msg("Loaded configuration file")
	return nil
}

func (c *AppConfig) applyEnv() error {
	var err error
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)
	c.Workers = getEnvInt("SIMULATION_WORKERS", c.Workers)
	c.MaxIterations = getEnvInt("MAX_ITERATIONS", c.MaxIterations)
	c.MaxTimeHorizon = getEnvInt("MAX_TIME_HORIZON", c.MaxTimeHorizon)
	c.Attribution = simulation.Attribution(strings.ToLower(getEnv("FACTOR_ATTRIBUTION", string(c.Attribution))))

	c.Insight.URL = getEnv("INSIGHT_URL", c.Insight.URL)
	c.Insight.APIKey = getEnv("INSIGHT_API_KEY", c.Insight.APIKey)
	c.Insight.Model = getEnv("INSIGHT_MODEL", c.Insight.Model)
	if c.Insight.Timeout, err = getEnvDuration("INSIGHT_TIMEOUT", c.Insight.Timeout); err != nil {
		return err
	}

	c.Recorder.SQLitePath = getEnv("SQLITE_PATH", c.Recorder.SQLitePath)
	c.Recorder.RetentionCron = getEnv("RETENTION_CRON", c.Recorder.RetentionCron)
	if c.Recorder.Retention, err = getEnvDuration("RECORD_RETENTION", c.Recorder.Retention); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)

	c.EnableMermaidCharts = getEnvBool("ENABLE_MERMAID_CHARTS", c.EnableMermaidCharts)
	return nil
}

// Validate checks that limits are usable and enumerations are known.
func (c *AppConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxTimeHorizon <= 0 {
		return fmt.Errorf("max_time_horizon must be positive, got %d", c.MaxTimeHorizon)
	}
	switch c.Attribution {
	case simulation.AttributionImpact, simulation.AttributionName:
	default:
		return fmt.Errorf("factor_attribution must be %q or %q, got %q", simulation.AttributionImpact, simulation.AttributionName, c.Attribution)
	}
	if c.Insight.Timeout <= 0 {
		return fmt.Errorf("insight_timeout must be positive")
	}
	if c.Recorder.SQLitePath != "" && c.Recorder.Retention <= 0 {
		return fmt.Errorf("record_retention must be positive when sqlite_path is set")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are configured")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer configuration value")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := str2duration.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

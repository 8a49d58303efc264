package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server       ServerConfig       `envconfig:"SERVER"`
	Log          LogConfig          `envconfig:"LOG"`
	Database     DatabaseConfig     `envconfig:"DB"`
	Cache        CacheConfig        `envconfig:"CACHE"`
	Redis        RedisConfig        `envconfig:"REDIS"`
	Storage      StorageConfig      `envconfig:"STORAGE"`
	LLM          LLMConfig          `envconfig:"LLM"`
	Embedding    EmbeddingConfig    `envconfig:"EMBEDDING"`
	Segmentation SegmentationConfig `envconfig:"SEGMENTER"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development" validate:"oneof=development staging production"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10" validate:"gte=0"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

// DatabaseConfig holds database configuration. Driver "none" disables run auditing.
type DatabaseConfig struct {
	Driver        string `envconfig:"DRIVER" default:"none" validate:"oneof=none postgres sqlite"`
	Host          string `envconfig:"HOST" default:"localhost"`
	Port          string `envconfig:"PORT" default:"5432"`
	User          string `envconfig:"USER" default:"postgres"`
	Password      string `envconfig:"PASSWORD" default:"postgres"`
	Name          string `envconfig:"NAME" default:"meeting_segmenter"`
	SSLMode       string `envconfig:"SSLMODE" default:"disable"`
	MaxConns      int    `envconfig:"MAX_CONNS" default:"25" validate:"gte=1"`
	MinConns      int    `envconfig:"MIN_CONNS" default:"5" validate:"gte=0"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"segmenter.db"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
}

// CacheConfig selects the embedding vector cache
type CacheConfig struct {
	Driver string        `envconfig:"DRIVER" default:"memory" validate:"oneof=none memory redis"`
	TTL    time.Duration `envconfig:"TTL" default:"24h"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

// StorageConfig holds checkpoint storage configuration
type StorageConfig struct {
	Type            string `envconfig:"TYPE" default:"fs" validate:"oneof=fs minio"`
	Dir             string `envconfig:"DIR" default:"checkpoints"`
	Compress        bool   `envconfig:"COMPRESS" default:"false"`
	Endpoint        string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"BUCKET" default:"meeting-segmenter"`
	UseSSL          bool   `envconfig:"USE_SSL" default:"false"`
}

// LLMConfig holds the chat completion service configuration
type LLMConfig struct {
	BaseURL         string        `envconfig:"BASE_URL" default:"https://api.groq.com/openai/v1" validate:"required,url"`
	APIKey          string        `envconfig:"API_KEY"`
	Model           string        `envconfig:"MODEL" default:"qwen/qwen3-32b" validate:"required"`
	ContextTokens   int           `envconfig:"CONTEXT_TOKENS" default:"40960" validate:"gt=0"`
	ResponseReserve int           `envconfig:"RESPONSE_RESERVE" default:"500" validate:"gte=0"`
	CharsPerToken   int           `envconfig:"CHARS_PER_TOKEN" default:"4" validate:"gt=0"`
	Temperature     float64       `envconfig:"TEMPERATURE" default:"0.2" validate:"gte=0,lte=2"`
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"10m"`
}

// EmbeddingConfig holds the embedding service configuration
type EmbeddingConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" default:"https://api.openai.com/v1" validate:"required,url"`
	APIKey    string        `envconfig:"API_KEY"`
	Model     string        `envconfig:"MODEL" default:"text-embedding-3-small" validate:"required"`
	BatchSize int           `envconfig:"BATCH_SIZE" default:"64" validate:"gt=0"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"2m"`
}

// SegmentationConfig holds the tunables of the segmentation strategies.
// Fields can be overridden by a YAML profile named in SEGMENTER_PROFILE.
type SegmentationConfig struct {
	Profile          string        `envconfig:"PROFILE" yaml:"-"`
	Strategy         string        `envconfig:"STRATEGY" default:"llm" yaml:"strategy" validate:"oneof=llm embedding moderator"`
	ChunkSize        int           `envconfig:"CHUNK_SIZE" default:"5" yaml:"chunk_size" validate:"gt=0"`
	Overlap          int           `envconfig:"OVERLAP" default:"1" yaml:"overlap" validate:"gte=0,ltfield=ChunkSize"`
	Threshold        float64       `envconfig:"THRESHOLD" default:"0.3" yaml:"threshold" validate:"gte=-1,lte=1"`
	SmoothWindow     int           `envconfig:"SMOOTH_WINDOW" default:"3" yaml:"smooth_window" validate:"gt=0"`
	MinRunLength     int           `envconfig:"MIN_RUN_LENGTH" default:"2" yaml:"min_run_length" validate:"gt=0"`
	ModeratorSpeaker string        `envconfig:"MODERATOR_SPEAKER" yaml:"moderator_speaker"`
	StrictRecovery   bool          `envconfig:"STRICT_RECOVERY" default:"false" yaml:"strict_recovery"`
	RunTimeout       time.Duration `envconfig:"RUN_TIMEOUT" default:"2h" yaml:"run_timeout"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if config.Segmentation.Profile != "" {
		if err := config.Segmentation.applyProfile(config.Segmentation.Profile); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (s *SegmentationConfig) applyProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read segmentation profile %s: %w", path, err)
	}
	// Unset keys keep their environment values.
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse segmentation profile %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Segmentation.SmoothWindow%2 == 0 {
		return fmt.Errorf("SEGMENTER_SMOOTH_WINDOW must be odd, got %d", c.Segmentation.SmoothWindow)
	}
	if c.LLM.ResponseReserve >= c.LLM.ContextTokens {
		return fmt.Errorf("LLM_RESPONSE_RESERVE (%d) must be smaller than LLM_CONTEXT_TOKENS (%d)", c.LLM.ResponseReserve, c.LLM.ContextTokens)
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

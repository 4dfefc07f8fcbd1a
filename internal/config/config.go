package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Rrens/alap/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig              `mapstructure:"server"`
	Storage  StorageConfig             `mapstructure:"storage"`
	LLM      LLMConfig                 `mapstructure:"llm"`
	Persona  string                    `mapstructure:"persona" validate:"required"`
	Personas map[string]domain.Persona `mapstructure:"personas" validate:"required,dive"`
	Security SecurityConfig            `mapstructure:"security"`
	Logging  LoggingConfig             `mapstructure:"logging"`
	Metrics  MetricsConfig             `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

type StorageConfig struct {
	Backend       string         `mapstructure:"backend" validate:"oneof=memory file sqlite postgres mysql redis mongo"`
	Key           string         `mapstructure:"key" validate:"required"`
	FlushInterval time.Duration  `mapstructure:"flush_interval"`
	EncryptionKey string         `mapstructure:"encryption_key"`
	File          FileConfig     `mapstructure:"file"`
	SQLite        SQLiteConfig   `mapstructure:"sqlite"`
	Postgres      DatabaseConfig `mapstructure:"postgres"`
	MySQL         MySQLConfig    `mapstructure:"mysql"`
	Redis         RedisConfig    `mapstructure:"redis"`
	Mongo         MongoConfig    `mapstructure:"mongo"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

func (c SQLiteConfig) DSN() string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", c.Path)
}

// MigrateURL is the golang-migrate form of the sqlite location
func (c SQLiteConfig) MigrateURL() string {
	return "sqlite://" + c.Path
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// MigrateURL is the golang-migrate pgx/v5 form of the DSN
func (c DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// MigrateURL is the golang-migrate form of the DSN
func (c MySQLConfig) MigrateURL() string {
	return "mysql://" + c.DSN()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	DefaultProvider    string          `mapstructure:"default_provider" validate:"oneof=gemini openai anthropic deepseek ollama scripted"`
	HistoryTokenBudget int             `mapstructure:"history_token_budget" validate:"gte=0"`
	Gemini             GeminiConfig    `mapstructure:"gemini"`
	OpenAI             OpenAIConfig    `mapstructure:"openai"`
	Anthropic          AnthropicConfig `mapstructure:"anthropic"`
	Ollama             OllamaConfig    `mapstructure:"ollama"`
	DeepSeek           DeepSeekConfig  `mapstructure:"deepseek"`
	Scripted           ScriptedConfig  `mapstructure:"scripted"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type DeepSeekConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// ScriptedConfig drives the offline provider that replays a canned reply
type ScriptedConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Reply   string        `mapstructure:"reply"`
	Delay   time.Duration `mapstructure:"delay"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"gte=0"`
	Burst             int `mapstructure:"burst" validate:"gte=0"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format" validate:"oneof=json console"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var validate = validator.New()

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	return LoadFile(configPath)
}

// LoadFile reads configuration from the given YAML file. A missing file
// leaves defaults and environment variables in effect.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for name, p := range cfg.Personas {
		if p.Name == "" {
			p.Name = name
			cfg.Personas[name] = p
		}
	}

	return &cfg, nil
}

// Validate checks struct constraints and cross-field references
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, ok := c.Personas[c.Persona]; !ok {
		return fmt.Errorf("invalid configuration: persona %q is not defined", c.Persona)
	}
	return nil
}

// ActivePersona returns the persona profile selected by the persona key
func (c *Config) ActivePersona() (domain.Persona, error) {
	p, ok := c.Personas[c.Persona]
	if !ok {
		return domain.Persona{}, fmt.Errorf("persona %q is not defined", c.Persona)
	}
	return p, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.middleware_timeout", "30s")

	// Storage
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.key", "alap_v1_sessions")
	v.SetDefault("storage.flush_interval", "500ms")
	v.SetDefault("storage.file.dir", "./data")
	v.SetDefault("storage.sqlite.path", "./data/alap.db")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "alap")
	v.SetDefault("storage.postgres.database", "alap")
	v.SetDefault("storage.postgres.ssl_mode", "disable")
	v.SetDefault("storage.postgres.max_conns", 5)
	v.SetDefault("storage.postgres.min_conns", 1)
	v.SetDefault("storage.mysql.host", "localhost")
	v.SetDefault("storage.mysql.port", 3306)
	v.SetDefault("storage.mysql.user", "alap")
	v.SetDefault("storage.mysql.database", "alap")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "alap:")
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "alap")
	v.SetDefault("storage.mongo.collection", "kv_store")
	v.SetDefault("storage.mongo.timeout", "10s")

	// LLM
	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.history_token_budget", 0)
	v.SetDefault("llm.gemini.model", alapModel)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.deepseek.model", "deepseek-chat")
	v.SetDefault("llm.deepseek.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.ollama.default_model", "llama3")
	v.SetDefault("llm.scripted.delay", "40ms")

	// Personas
	v.SetDefault("persona", "alap")
	setPersonaDefaults(v, "alap", alapPersona)
	setPersonaDefaults(v, "alfaa", alfaaPersona)

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 20)
	v.SetDefault("security.rate_limit.burst", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func setPersonaDefaults(v *viper.Viper, key string, p domain.Persona) {
	prefix := "personas." + key + "."
	v.SetDefault(prefix+"name", p.Name)
	v.SetDefault(prefix+"display_name", p.DisplayName)
	v.SetDefault(prefix+"system_instruction", p.SystemInstruction)
	v.SetDefault(prefix+"model", p.Model)
	v.SetDefault(prefix+"temperature", p.Temperature)
	v.SetDefault(prefix+"top_p", p.TopP)
	v.SetDefault(prefix+"top_k", p.TopK)
	v.SetDefault(prefix+"interruption_message", p.InterruptionMessage)
	v.SetDefault(prefix+"quota_message", p.QuotaMessage)
	v.SetDefault(prefix+"suggested_prompts", p.SuggestedPrompts)
}

func bindEnvVars(v *viper.Viper) {
	// Storage
	v.BindEnv("storage.backend", "ALAP_STORAGE_BACKEND")
	v.BindEnv("storage.key", "ALAP_STORAGE_KEY")
	v.BindEnv("storage.encryption_key", "ALAP_ENCRYPTION_KEY")
	v.BindEnv("storage.postgres.password", "POSTGRES_PASSWORD")
	v.BindEnv("storage.mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	v.BindEnv("storage.mongo.uri", "MONGO_URI")

	// Persona
	v.BindEnv("persona", "ALAP_PERSONA")

	// LLM API Keys
	v.BindEnv("llm.default_provider", "LLM_PROVIDER")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY", "API_KEY")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
}

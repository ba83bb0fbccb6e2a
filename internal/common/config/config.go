package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Assistant     AssistantConfig    `mapstructure:"assistant"`
	TTS           TTSConfig          `mapstructure:"tts"`
	LLM           LLMConfig          `mapstructure:"llm"`
	Search        SearchConfig       `mapstructure:"search"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	ListenAddress  string `mapstructure:"listen_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// AssistantConfig holds the command-interpretation settings.
type AssistantConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	HistoryLimit        int     `mapstructure:"history_limit"`
	DisplayLimit        int     `mapstructure:"display_limit"`
	PersistPersonality  bool    `mapstructure:"persist_personality"`
	PersonalityPath     string  `mapstructure:"personality_path"`
	VoiceEnabled        bool    `mapstructure:"voice_enabled"`
}

// TTSConfig holds settings for the speech-synthesis collaborator.
type TTSConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	Voice        string  `mapstructure:"voice"`
	Speed        float64 `mapstructure:"speed"`
	Timeout      int     `mapstructure:"timeout"` // milliseconds
	MaxRetries   int     `mapstructure:"max_retries"`
	CacheTTL     int     `mapstructure:"cache_ttl"` // seconds
	CacheEnabled bool    `mapstructure:"cache_enabled"`
}

// LLMConfig holds settings for the optional text-completion collaborator.
type LLMConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// SearchConfig holds settings for the jewelry catalog search index.
type SearchConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NotificationConfig holds settings for vale-payment and stock alerts.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool   `mapstructure:"enabled"`
		ToPhone string `mapstructure:"to_phone"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

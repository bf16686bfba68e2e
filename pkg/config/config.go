package config

import (
	"fmt"
	"time"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Source      SourceConfig      `mapstructure:"source"`
	Simulator   SimulatorConfig   `mapstructure:"simulator"`
	Labels      LabelsConfig      `mapstructure:"labels"`
	Features    FeaturesConfig    `mapstructure:"features"`
	Model       ModelConfig       `mapstructure:"model"`
	Risk        RiskConfig        `mapstructure:"risk"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	API         APIConfig         `mapstructure:"api"`
	WebSocket   WebSocketConfig   `mapstructure:"websocket"`
	Prometheus  PrometheusConfig  `mapstructure:"prometheus"`
	Events      EventsConfig      `mapstructure:"events"`
	Alerting    AlertingConfig    `mapstructure:"alerting"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Artifacts   ArtifactsConfig   `mapstructure:"artifacts"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"`
	Path             string        `mapstructure:"path"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"name"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	MaxConnections   int           `mapstructure:"max_connections"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout"`
	MigrationTimeout time.Duration `mapstructure:"migration_timeout"`
}

func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite3" {
		return d.Path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

type SourceConfig struct {
	Type           string               `mapstructure:"type"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RetryAttempts  int                  `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration        `mapstructure:"retry_delay"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	DPFKeywords    []string             `mapstructure:"dpf_keywords"`
}

type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SimulatorConfig struct {
	Vehicles          int     `mapstructure:"vehicles"`
	Days              int     `mapstructure:"days"`
	ReadingsPerDay    int     `mapstructure:"readings_per_day"`
	EventsPerVehicle  int     `mapstructure:"events_per_vehicle"`
	Seed              int64   `mapstructure:"seed"`
	MissingRate       float64 `mapstructure:"missing_rate"`
	NonDPFEventChance float64 `mapstructure:"non_dpf_event_chance"`
}

type LabelsConfig struct {
	LookbackDays []int  `mapstructure:"lookback_days"`
	Interference string `mapstructure:"interference"`
}

type FeaturesConfig struct {
	WindowDays      int `mapstructure:"window_days"`
	MinReadings     int `mapstructure:"min_readings"`
	MinSensorValues int `mapstructure:"min_sensor_values"`
	Workers         int `mapstructure:"workers"`
}

type ModelConfig struct {
	MaxFeatures  int     `mapstructure:"max_features"`
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         int64   `mapstructure:"seed"`
	MaxRULDays   int     `mapstructure:"max_rul_days"`
	MinSamples   int     `mapstructure:"min_samples"`
}

type RiskConfig struct {
	UrgentDays  float64 `mapstructure:"urgent_days"`
	WarningDays float64 `mapstructure:"warning_days"`
	CautionDays float64 `mapstructure:"caution_days"`
	TopDrivers  int     `mapstructure:"top_drivers"`
}

type DiagnosticsConfig struct {
	Diagnostic     string  `mapstructure:"diagnostic"`
	WindowDays     int     `mapstructure:"window_days"`
	SigmaThreshold float64 `mapstructure:"sigma_threshold"`
}

type APIConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTDuration    time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieMaxAge   int           `mapstructure:"cookie_max_age"`
	CookiePath     string        `mapstructure:"cookie_path"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieHTTPOnly bool          `mapstructure:"cookie_http_only"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	MaxLimit       int           `mapstructure:"max_limit"`
	CORS           CORSConfig    `mapstructure:"cors"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type EventsConfig struct {
	BufferSize int  `mapstructure:"buffer_size"`
	Persist    bool `mapstructure:"persist"`
}

type AlertingConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	AMQP  AMQPConfig  `mapstructure:"amqp"`
}

type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ArtifactsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

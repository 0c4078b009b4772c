package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the prediction service settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"corsOrigins"`
	JWTSecret   string   `yaml:"jwtSecret"`
}

// ModelConfig points at the model artifacts on disk.
type ModelConfig struct {
	ModelPath  string `yaml:"modelPath"`
	ScalerPath string `yaml:"scalerPath"`
	Dir        string `yaml:"dir"`
}

// DatabaseConfig is optional; an empty URL keeps prediction history in memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// CacheConfig controls the prediction cache. Redis is used only when Address is set.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	MaxSize       int           `yaml:"maxSize"`
	RedisAddress  string        `yaml:"redisAddress"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
}

// TelemetryConfig drives the sensor simulator and the channel reader. The
// reader is enabled only when ChannelID is set.
type TelemetryConfig struct {
	UploadURL  string        `yaml:"uploadURL"`
	APIKey     string        `yaml:"apiKey"`
	Interval   time.Duration `yaml:"interval"`
	ReadURL    string        `yaml:"readURL"`
	ChannelID  string        `yaml:"channelID"`
	ReadAPIKey string        `yaml:"readAPIKey"`
}

type Config struct {
	LogLevel  string          `yaml:"logLevel"`
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        "8000",
			CORSOrigins: []string{"*"},
		},
		Model: ModelConfig{
			ModelPath:  "model.json",
			ScalerPath: "scaler.json",
			Dir:        ".",
		},
		Cache: CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 10000,
		},
		Telemetry: TelemetryConfig{
			UploadURL: "http://api.thingspeak.com/update",
			Interval:  20 * time.Second,
			ReadURL:   "https://api.thingspeak.com",
		},
	}
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment variables. Later sources override earlier ones.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("could not load .env file: %v", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}

	c.Model.ModelPath = getEnv("MODEL_PATH", c.Model.ModelPath)
	c.Model.ScalerPath = getEnv("SCALER_PATH", c.Model.ScalerPath)
	c.Model.Dir = getEnv("MODEL_DIR", c.Model.Dir)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)

	c.Cache.RedisAddress = getEnv("REDIS_ADDR", c.Cache.RedisAddress)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Cache.RedisDB = db
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		c.Cache.TTL = ttl
	}

	c.Telemetry.UploadURL = getEnv("THINGSPEAK_URL", c.Telemetry.UploadURL)
	c.Telemetry.APIKey = getEnv("THINGSPEAK_API_KEY", c.Telemetry.APIKey)
	c.Telemetry.ReadURL = getEnv("THINGSPEAK_READ_URL", c.Telemetry.ReadURL)
	c.Telemetry.ChannelID = getEnv("THINGSPEAK_CHANNEL_ID", c.Telemetry.ChannelID)
	c.Telemetry.ReadAPIKey = getEnv("THINGSPEAK_READ_API_KEY", c.Telemetry.ReadAPIKey)
	if v := os.Getenv("UPLOAD_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid UPLOAD_INTERVAL %q: %w", v, err)
		}
		c.Telemetry.Interval = interval
	}
	return nil
}

// Address is the listen address for the HTTP server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

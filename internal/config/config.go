package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the optional YAML config file
const EnvConfigPath = "DATALINGUA_CONFIG"

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	AMQP    AMQPConfig    `yaml:"amqp"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Port            string `yaml:"port"`
	CORSOrigins     string `yaml:"cors_origins"`
	CORSMethods     string `yaml:"cors_methods"`
	CORSHeaders     string `yaml:"cors_headers"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTL      string `yaml:"token_ttl"`
}

type StorageConfig struct {
	Driver     string      `yaml:"driver"` // local or minio
	LocalDir   string      `yaml:"local_dir"`
	MaxAudioMB int         `yaml:"max_audio_mb"`
	MaxFileMB  int         `yaml:"max_file_mb"`
	Minio      MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AMQPConfig enables the response event publisher when URL is set
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			CORSOrigins:     "*",
			CORSMethods:     "GET, POST, PUT, DELETE, OPTIONS",
			CORSHeaders:     "Content-Type, Authorization",
			ShutdownTimeout: "30s",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "datalingua",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Auth: AuthConfig{
			AdminUsername: "admin",
			AdminPassword: "password123",
			JWTSecret:     "super-secret-key-change-in-production",
			TokenTTL:      "24h",
		},
		Storage: StorageConfig{
			Driver:     "local",
			LocalDir:   ".",
			MaxAudioMB: 50,
			MaxFileMB:  10,
			Minio: MinioConfig{
				Bucket: "datalingua-uploads",
			},
		},
		AMQP: AMQPConfig{
			Exchange: "datalingua.events",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads .env, then the YAML file named by DATALINGUA_CONFIG if any,
// then applies environment overrides.
func Load() (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTP.Port = getEnv("PORT", cfg.HTTP.Port)
	cfg.HTTP.CORSOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.HTTP.CORSOrigins)
	cfg.HTTP.CORSMethods = getEnv("CORS_ALLOWED_METHODS", cfg.HTTP.CORSMethods)
	cfg.HTTP.CORSHeaders = getEnv("CORS_ALLOWED_HEADERS", cfg.HTTP.CORSHeaders)

	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DB", cfg.Mongo.Database)

	// Remove redis:// prefix if present
	cfg.Redis.Addr = strings.TrimPrefix(getEnv("REDIS_URI", cfg.Redis.Addr), "redis://")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Auth.AdminUsername = getEnv("ADMIN_USERNAME", cfg.Auth.AdminUsername)
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.Auth.AdminPassword)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getEnv("JWT_TTL", cfg.Auth.TokenTTL)

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", cfg.Storage.Driver))
	cfg.Storage.LocalDir = getEnv("UPLOAD_DIR", cfg.Storage.LocalDir)
	cfg.Storage.MaxAudioMB = getEnvInt("MAX_AUDIO_MB", cfg.Storage.MaxAudioMB)
	cfg.Storage.MaxFileMB = getEnvInt("MAX_FILE_MB", cfg.Storage.MaxFileMB)
	cfg.Storage.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Storage.Minio.Endpoint)
	cfg.Storage.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Storage.Minio.AccessKey)
	cfg.Storage.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Storage.Minio.SecretKey)
	cfg.Storage.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Storage.Minio.Bucket)
	cfg.Storage.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.Storage.Minio.UseSSL)

	cfg.AMQP.URL = getEnv("AMQP_URL", cfg.AMQP.URL)
	cfg.AMQP.Exchange = getEnv("AMQP_EXCHANGE", cfg.AMQP.Exchange)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	var problems []error
	switch c.Storage.Driver {
	case "local":
	case "minio":
		if c.Storage.Minio.Endpoint == "" {
			problems = append(problems, errors.New("storage.minio.endpoint is required for the minio driver"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
		problems = append(problems, fmt.Errorf("auth.token_ttl: %w", err))
	}
	if _, err := time.ParseDuration(c.HTTP.ShutdownTimeout); err != nil {
		problems = append(problems, fmt.Errorf("http.shutdown_timeout: %w", err))
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, errors.New("auth.jwt_secret is required"))
	}
	return errors.Join(problems...)
}

// TTL returns the parsed token lifetime
func (c AuthConfig) TTL() time.Duration {
	d, _ := time.ParseDuration(c.TokenTTL)
	return d
}

func (c HTTPConfig) Shutdown() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// MaxFileBytes returns the configured upload cap in bytes
func (c StorageConfig) MaxFileBytes() int64 {
	return int64(c.MaxFileMB) << 20
}

func (c StorageConfig) MaxAudioBytes() int64 {
	return int64(c.MaxAudioMB) << 20
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultVal
}

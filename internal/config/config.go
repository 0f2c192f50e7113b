package config

import (
	"os"
	"strconv"
	"time"
)

// BrokerConfig holds MQTT broker connection settings.
type BrokerConfig struct {
	Host      string
	Port      int
	KeepAlive time.Duration
}

// LLMConfig holds Gemini API settings.
type LLMConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

// DatabaseConfig holds PostgreSQL connection settings for the conversation
// archive. Archiving is optional: an empty Host disables it.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for conversation transcripts.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// TimingConfig holds the mode-machine windows. All bounds are inclusive.
type TimingConfig struct {
	IdleMin        time.Duration
	IdleMax        time.Duration
	ChatMin        time.Duration
	ChatMax        time.Duration
	ScreensaverMin time.Duration
	ScreensaverMax time.Duration
	PresenceTTL    time.Duration
}

// AppConfig is the centralized configuration struct for the daemon.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	NodeID       string
	PeerID       string
	HTTPPort     string
	DisplayWidth int
	HistoryLimit int
	Broker       BrokerConfig
	LLM          LLMConfig
	Timing       TimingConfig
	Database     DatabaseConfig
	MinIO        MinIOConfig
}

// ArchiveEnabled reports whether the conversation archive should be wired.
func (c *AppConfig) ArchiveEnabled() bool {
	return c.Database.Host != ""
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	nodeID := getEnv("NODE_ID", "pi1")
	peerDefault := "pi2"
	if nodeID == "pi2" {
		peerDefault = "pi1"
	}

	return &AppConfig{
		NodeID:       nodeID,
		PeerID:       getEnv("PEER_ID", peerDefault),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		DisplayWidth: getEnvInt("DISPLAY_WIDTH", 100),
		HistoryLimit: getEnvInt("CHAT_HISTORY_LIMIT", 20),
		Broker: BrokerConfig{
			Host:      getEnv("MQTT_BROKER_HOST", "127.0.0.1"),
			Port:      getEnvInt("MQTT_BROKER_PORT", 1883),
			KeepAlive: getEnvSeconds("MQTT_KEEPALIVE_SEC", 60),
		},
		LLM: LLMConfig{
			APIKey:   getEnv("GEMINI_API_KEY", ""),
			Model:    getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
			BaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout:  getEnvSeconds("GEMINI_TIMEOUT_SEC", 30),
			RetryMax: getEnvInt("GEMINI_RETRY_MAX", 3),
		},
		Timing: TimingConfig{
			IdleMin:        getEnvSeconds("IDLE_MIN_SEC", 30),
			IdleMax:        getEnvSeconds("IDLE_MAX_SEC", 60),
			ChatMin:        getEnvSeconds("CHAT_MIN_SEC", 60),
			ChatMax:        getEnvSeconds("CHAT_MAX_SEC", 300),
			ScreensaverMin: getEnvSeconds("SCREENSAVER_MIN_SEC", 5),
			ScreensaverMax: getEnvSeconds("SCREENSAVER_MAX_SEC", 15),
			PresenceTTL:    getEnvSeconds("PRESENCE_TTL_SEC", 120),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "pichat-transcripts"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvSeconds(key string, defSec int) time.Duration {
	return time.Duration(getEnvInt(key, defSec)) * time.Second
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション設定を表す
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	Auth        AuthConfig
	Reservation ReservationConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RabbitMQConfig はRabbitMQ設定
// URL が空の場合、確定イベントの発行は無効になる
type RabbitMQConfig struct {
	URL string
}

// AuthConfig は認証設定
type AuthConfig struct {
	JWTSecret string
}

// ReservationConfig は予約エンジンの設定
type ReservationConfig struct {
	// ExpiryWindow は予約作成から失効までの時間（作成時刻起点の固定値）
	ExpiryWindow time.Duration
	// MaxAllocationAttempts は座席確保の楽観的リトライの上限
	MaxAllocationAttempts int
	// AllocationRetryBackoff はリトライ間の待機時間
	AllocationRetryBackoff time.Duration
	// SweepInterval はバックグラウンド失効ワーカーの実行間隔
	SweepInterval time.Duration
}

// Load は .env と環境変数から設定を読み込む
func Load() *Config {
	// .env は存在すれば読み込む（本番では環境変数を直接使用）
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "concert_booking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
		},
		Reservation: ReservationConfig{
			ExpiryWindow:           getDurationEnv("RESERVATION_EXPIRY_WINDOW", 5*time.Minute),
			MaxAllocationAttempts:  getIntEnv("RESERVATION_MAX_ATTEMPTS", 5),
			AllocationRetryBackoff: getDurationEnv("RESERVATION_RETRY_BACKOFF", 50*time.Millisecond),
			SweepInterval:          getDurationEnv("RESERVATION_SWEEP_INTERVAL", 30*time.Second),
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あればこちらを優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	RedisAddr      string // 空なら冪等キャッシュなし
	RedisPassword  string
	RedisDB        int
	IdempotencyTTL time.Duration

	ShippingFreeThreshold int64 // これを超えたら送料無料
	ShippingFlatRate      int64 // 一律送料

	ReserveStock          bool   // 注文時に在庫を減らすか
	PaymentFallbackStatus string // 未登録の支払い方法の初期支払いステータス
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	redisDB, err := atoiOr("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	threshold, err := atoiOr("SHIPPING_FREE_THRESHOLD", 500)
	if err != nil {
		return Config{}, err
	}
	flatRate, err := atoiOr("SHIPPING_FLAT_RATE", 60)
	if err != nil {
		return Config{}, err
	}
	ttl, err := durationOr("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	reserve, err := boolOr("ORDER_RESERVE_STOCK", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "bookstore"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:    getenv("GO_ENV", "prod"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		IdempotencyTTL: ttl,

		ShippingFreeThreshold: int64(threshold),
		ShippingFlatRate:      int64(flatRate),

		ReserveStock:          reserve,
		PaymentFallbackStatus: getenv("PAYMENT_FALLBACK_STATUS", "PAID"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.PaymentFallbackStatus {
	case "PAID", "UNPAID":
	default:
		return Config{}, fmt.Errorf("PAYMENT_FALLBACK_STATUS must be PAID or UNPAID")
	}
	if cfg.ShippingFreeThreshold < 0 || cfg.ShippingFlatRate < 0 {
		return Config{}, fmt.Errorf("shipping settings must be >= 0")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolOr(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

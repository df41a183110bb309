// Package config はプッシュ配信サービスの設定を環境変数から読み込む。
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config はプッシュ配信サービスの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" env-default:"8087"`
	// DBPath はSQLiteデータベースのDSN。
	DBPath string `env:"DB_PATH" env-default:"/data/push.db?_journal_mode=WAL&_busy_timeout=5000"`
	// LogLevel はログレベル（debug, info, warn, error）。
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	// DevMode は開発用トークン発行とVAPID鍵の自動生成を有効にする。
	DevMode bool `env:"DEV_MODE" env-default:"false"`

	// JWTSecret はJWT検証用の秘密鍵。
	JWTSecret string `env:"JWT_SECRET" env-default:"dev-secret-key"`
	// DevTokenTTL は開発用トークンの有効期間。
	DevTokenTTL time.Duration `env:"DEV_TOKEN_TTL" env-default:"24h"`
	// InternalAPIKey は内部APIの認証キー。空の場合、内部APIは全て拒否される。
	InternalAPIKey string `env:"INTERNAL_API_KEY"`
	// AllowedOrigins はCORSを許可するオリジン。
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`

	// VAPIDPublicKey はVAPID公開鍵。
	VAPIDPublicKey string `env:"VAPID_PUBLIC_KEY"`
	// VAPIDPrivateKey はVAPID秘密鍵。
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	// VAPIDSubscriber はプッシュサービスに通知する連絡先。
	VAPIDSubscriber string `env:"VAPID_SUBSCRIBER" env-default:"push@example.com"`
	// PushTTL はプッシュサービスでのメッセージ保持秒数。
	PushTTL int `env:"PUSH_TTL" env-default:"86400"`

	// SendTimeout はエンドポイント1件あたりの送信タイムアウト。
	SendTimeout time.Duration `env:"PUSH_SEND_TIMEOUT" env-default:"10s"`
	// DispatchConcurrency は同時送信数の上限。
	DispatchConcurrency int `env:"DISPATCH_CONCURRENCY" env-default:"16"`
	// SendRateLimit はユーザーごとの配信リクエストの許容レート（毎秒）。
	SendRateLimit float64 `env:"SEND_RATE_LIMIT" env-default:"1"`
	// SendRateBurst はユーザーごとの配信リクエストのバースト数。
	SendRateBurst int `env:"SEND_RATE_BURST" env-default:"5"`

	// DefaultIcon は通知アイコンの既定値。
	DefaultIcon string `env:"PUSH_DEFAULT_ICON" env-default:"/icons/icon-192x192.png"`
	// DefaultBadge はバッジ画像の既定値。
	DefaultBadge string `env:"PUSH_DEFAULT_BADGE" env-default:"/icons/badge-72x72.png"`

	// DirectoryURL はロール所属を問い合わせる外部サービスのURL。空の場合はローカルDBを使用する。
	DirectoryURL string `env:"DIRECTORY_URL"`
	// EventStoreURL はイベント送信先のEvent StoreのURL。空の場合は送信しない。
	EventStoreURL string `env:"EVENTSTORE_URL"`
}

// Load は.envファイル（存在する場合）と環境変数から設定を読み込む。
func Load() (*Config, error) {
	// .envは任意。存在しなくてもエラーにしない
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate は設定値の整合性を検証する。
func (c *Config) validate() error {
	var missing []string
	if !c.DevMode {
		if c.VAPIDPublicKey == "" {
			missing = append(missing, "VAPID_PUBLIC_KEY")
		}
		if c.VAPIDPrivateKey == "" {
			missing = append(missing, "VAPID_PRIVATE_KEY")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("必須の環境変数が設定されていません: %v", missing)
	}
	if c.DispatchConcurrency <= 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY は1以上である必要があります: %d", c.DispatchConcurrency)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("PUSH_SEND_TIMEOUT は正の値である必要があります: %s", c.SendTimeout)
	}
	return nil
}

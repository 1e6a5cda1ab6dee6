// Package config はアプリケーション設定を読み込む。
//
// 優先順位は 環境変数 > TOMLファイル（CONFIG_FILE） > 既定値。
// .env ファイルがあれば先に環境変数として読み込む。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config はアプリケーション設定。
type Config struct {
	// Port はWebサーバーのリッスンポート。
	Port string `toml:"port"`
	// APIURL はサロンREST APIのベースURL。
	APIURL string `toml:"api_url"`
	// DataDir はSQLiteを置くディレクトリ。
	DataDir string `toml:"data_dir"`
	// SessionSecret はセッションJWTの署名鍵。
	SessionSecret string `toml:"session_secret"`
	// SessionTTL はセッションの有効期間。
	SessionTTL Duration `toml:"session_ttl"`
	// DevIdentity がtrueの場合、ヘッダーかクエリのTelegramユーザーIDをそのまま信頼する。
	DevIdentity bool `toml:"dev_identity"`
	// FrontendOrigins はCORSで許可するオリジン。
	FrontendOrigins []string `toml:"frontend_origins"`
	// CacheTTL はカタログキャッシュの有効期間。0で無効。
	CacheTTL Duration `toml:"cache_ttl"`
	// APITimeout はAPIリクエストのタイムアウト。
	APITimeout Duration `toml:"api_timeout"`
	// Timezone はサロンのタイムゾーン。
	Timezone string `toml:"timezone"`
	// DraftTTL は予約の下書きを保持する期間。
	DraftTTL Duration `toml:"draft_ttl"`
	// Telegram はTelegram関連の設定。
	Telegram Telegram `toml:"telegram"`
}

// Telegram はボットと通知の設定。
type Telegram struct {
	// BotToken はボットトークン。空の場合はボットと通知を無効にする。
	BotToken string `toml:"bot_token"`
	// WebhookURL はWebhookの公開URL。空の場合はロングポーリング。
	WebhookURL string `toml:"webhook_url"`
	// WebhookSecret は X-Telegram-Bot-Api-Secret-Token に設定する値。
	WebhookSecret string `toml:"webhook_secret"`
	// WebAppURL はMini-AppとしてひらくURL。
	WebAppURL string `toml:"webapp_url"`
	// NotifyInterval はアウトボックスのポーリング間隔。
	NotifyInterval Duration `toml:"notify_interval"`
	// InitDataMaxAge は initData を受け入れる最大経過時間。
	InitDataMaxAge Duration `toml:"init_data_max_age"`
}

// Duration はTOMLで "30s" のように書ける時間。
type Duration struct {
	time.Duration
}

// UnmarshalText は文字列から時間を読み込む。
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default は既定値の設定を返す。
func Default() Config {
	return Config{
		Port:            "8080",
		APIURL:          "http://localhost:8000/api",
		DataDir:         "./data",
		SessionSecret:   "dev-secret-key",
		SessionTTL:      Duration{7 * 24 * time.Hour},
		FrontendOrigins: []string{"http://localhost:3000"},
		CacheTTL:        Duration{time.Minute},
		APITimeout:      Duration{10 * time.Second},
		Timezone:        "Europe/Moscow",
		DraftTTL:        Duration{24 * time.Hour},
		Telegram: Telegram{
			WebAppURL:      "http://localhost:8080",
			NotifyInterval: Duration{5 * time.Second},
			InitDataMaxAge: Duration{24 * time.Hour},
		},
	}
}

// Load は設定を読み込む。.env が無いことはエラーにしない。
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf(".envの読み込みに失敗: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("設定ファイルの読み込みに失敗: %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv は環境変数で設定を上書きする。
func applyEnv(cfg *Config) error {
	cfg.Port = getEnvOr("PORT", cfg.Port)
	cfg.APIURL = getEnvOr("API_URL", cfg.APIURL)
	cfg.DataDir = getEnvOr("DATA_DIR", cfg.DataDir)
	cfg.SessionSecret = getEnvOr("SESSION_SECRET", cfg.SessionSecret)
	cfg.Timezone = getEnvOr("TIMEZONE", cfg.Timezone)
	cfg.Telegram.BotToken = getEnvOr("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.WebhookURL = getEnvOr("TELEGRAM_WEBHOOK_URL", cfg.Telegram.WebhookURL)
	cfg.Telegram.WebhookSecret = getEnvOr("TELEGRAM_WEBHOOK_SECRET", cfg.Telegram.WebhookSecret)
	cfg.Telegram.WebAppURL = getEnvOr("WEBAPP_URL", cfg.Telegram.WebAppURL)

	if v := os.Getenv("FRONTEND_ORIGINS"); v != "" {
		cfg.FrontendOrigins = splitList(v)
	}
	if v := os.Getenv("DEV_IDENTITY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEV_IDENTITYが不正です: %q: %w", v, err)
		}
		cfg.DevIdentity = b
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"SESSION_TTL", &cfg.SessionTTL},
		{"CACHE_TTL", &cfg.CacheTTL},
		{"API_TIMEOUT", &cfg.APITimeout},
		{"DRAFT_TTL", &cfg.DraftTTL},
		{"NOTIFY_INTERVAL", &cfg.Telegram.NotifyInterval},
		{"INIT_DATA_MAX_AGE", &cfg.Telegram.InitDataMaxAge},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		if err := d.dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sが不正です: %q: %w", d.key, v, err)
		}
	}
	return nil
}

// Validate は設定値の整合性を検証する。
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("API_URLが設定されていません")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRETが設定されていません")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Telegram.NotifyInterval.Duration <= 0 {
		return errors.New("NOTIFY_INTERVALは正の値である必要があります")
	}
	return nil
}

// Location はサロンのタイムゾーンを返す。
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONEが不正です: %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BotEnabled はボットトークンが設定されているかを返す。
func (c Config) BotEnabled() bool {
	return c.Telegram.BotToken != ""
}

// getEnvOr は環境変数を取得し、未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

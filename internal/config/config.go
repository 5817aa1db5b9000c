package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"camsession/internal/media"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server"`
	Media  MediaConfig  `yaml:"media"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"` // リッスンするホスト
	Port int    `yaml:"port" env:"SERVER_PORT"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`         // 読み込みタイムアウト
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`       // 書き込みタイムアウト
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"` // シャットダウン猶予

	// TLS設定（両方指定でHTTPS）
	TLSCertFile string `yaml:"tls_cert_file" env:"SERVER_TLS_CERT_FILE"`
	TLSKeyFile  string `yaml:"tls_key_file" env:"SERVER_TLS_KEY_FILE"`

	// カメラ取得のセキュアコンテキスト判定に使うホスト名
	PublicHostname string `yaml:"public_hostname" env:"SERVER_PUBLIC_HOSTNAME"`
}

// MediaConfig はメディア取得の設定
type MediaConfig struct {
	Width            int    `yaml:"width" env:"MEDIA_WIDTH"`                         // 要求する幅
	Height           int    `yaml:"height" env:"MEDIA_HEIGHT"`                       // 要求する高さ
	FacingMode       string `yaml:"facing_mode" env:"MEDIA_FACING_MODE"`             // デバイス未指定時の向き
	DisplaySurface   string `yaml:"display_surface" env:"MEDIA_DISPLAY_SURFACE"`     // 画面キャプチャ対象
	SurfaceSwitching string `yaml:"surface_switching" env:"MEDIA_SURFACE_SWITCHING"` // 画面切り替えの可否
	Headless         bool   `yaml:"headless" env:"MEDIA_HEADLESS"`                   // 表示コンテキストなしで動作する
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"LOG_FORMAT"` // console または json
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    0, // SSE用にタイムアウト無効化
			ShutdownTimeout: 5 * time.Second,
			PublicHostname:  "localhost",
		},
		Media: MediaConfig{
			Width:            media.DefaultWidth,
			Height:           media.DefaultHeight,
			FacingMode:       media.DefaultFacingMode,
			DisplaySurface:   "window",
			SurfaceSwitching: "include",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load は設定を読み込む
// デフォルト値 → CONFIG_FILE のYAML → 環境変数 の順に上書きする
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile は指定されたYAMLファイルを使って設定を読み込む
// pathが空の場合はファイルを読まない
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	var errs []error

	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("無効なポート番号: %d", c.Server.Port))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS証明書と秘密鍵は両方指定する必要があります"))
	}

	// メディア設定の検証
	if c.Media.Width <= 0 || c.Media.Width > 4096 {
		errs = append(errs, fmt.Errorf("無効な幅: %d", c.Media.Width))
	}
	if c.Media.Height <= 0 || c.Media.Height > 4096 {
		errs = append(errs, fmt.Errorf("無効な高さ: %d", c.Media.Height))
	}

	// ログ設定の検証
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("無効なログフォーマット: %s", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TLSEnabled はHTTPSで提供するか返す
func (c *Config) TLSEnabled() bool {
	return c.Server.TLSCertFile != "" && c.Server.TLSKeyFile != ""
}

// Origin はカメラ取得のセキュアコンテキスト判定に使うoriginを返す
func (c *Config) Origin() media.Origin {
	return media.Origin{
		Secure:   c.TLSEnabled(),
		Hostname: c.Server.PublicHostname,
		Headless: c.Media.Headless,
	}
}

// MediaSettings はセッションに渡す取得条件を返す
func (c *Config) MediaSettings() media.Settings {
	return media.Settings{
		Width:            c.Media.Width,
		Height:           c.Media.Height,
		FacingMode:       c.Media.FacingMode,
		DisplaySurface:   c.Media.DisplaySurface,
		SurfaceSwitching: c.Media.SurfaceSwitching,
	}
}

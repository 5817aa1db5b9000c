// Package main はcamsessionサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	// カメラと画面キャプチャのドライバーを登録
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/screen"

	"camsession/internal/config"
	"camsession/internal/logging"
	"camsession/internal/media"
	"camsession/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 127.0.0.1)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		configFile = flag.String("config", "", "設定ファイルのパス (デフォルト: $CONFIG_FILE)")
		logLevel   = flag.String("log-level", "", "ログレベル (debug, info, warn, error)")
		enumerate  = flag.Bool("enumerate", false, "起動時にカメラを列挙する")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("camsession")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗しました: %v\n", err)
		os.Exit(1)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "設定が無効です: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	session := media.NewSession(media.NewPionHost(cfg.Origin()), cfg.MediaSettings(), logger)

	ctx := context.Background()
	if *enumerate {
		session.EnumerateDevices(ctx)
		for _, d := range session.Devices.Get() {
			logger.Info().Str("device_id", d.ID).Str("label", d.Label).Msg("カメラを検出しました")
		}
	}

	srv := server.New(cfg, session, logger)

	// サーバーを起動
	logger.Info().Str("addr", cfg.ServerAddress()).Msg("camsession サーバーを起動します")
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("サーバーの起動に失敗しました")
	}
}

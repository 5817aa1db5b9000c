package main

import (
	"context"
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
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗しました: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	// セッションを作成
	host := media.NewPionHost(cfg.Origin())
	session := media.NewSession(host, cfg.MediaSettings(), logger)

	// サーバーを作成
	srv := server.New(cfg, session, logger)

	// サーバーを起動
	if err := srv.Start(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("サーバーの起動に失敗しました")
	}
}

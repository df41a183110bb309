// プッシュ配信サービスのエントリポイント。
// ブラウザのプッシュサブスクリプションを管理し、ユーザーまたはロール宛の通知を
// Web Push Protocolで配信する。失効したサブスクリプションは配信時に自動で削除する。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nao1215/pushhub/internal/config"
	"github.com/nao1215/pushhub/internal/dispatch"
	"github.com/nao1215/pushhub/internal/push"
	"github.com/nao1215/pushhub/pkg/logger"
	"github.com/nao1215/pushhub/pkg/metrics"
)

func main() {
	genKeys := flag.Bool("genkeys", false, "VAPID鍵ペアを生成して出力し終了する")
	flag.Parse()

	if *genKeys {
		if err := printVAPIDKeys(); err != nil {
			log.Fatalf("VAPID鍵の生成に失敗: %v", err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("プッシュ配信サービスの起動に失敗", zap.Error(err))
	}
}

// run はサーバーを初期化して起動し、SIGINTまたはSIGTERMで停止する。
func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DevMode && (cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "") {
		priv, pub, err := dispatch.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("VAPID鍵の生成に失敗: %w", err)
		}
		cfg.VAPIDPrivateKey, cfg.VAPIDPublicKey = priv, pub
		zl.Warn("開発モードのため一時的なVAPID鍵を生成しました。再起動すると既存の購読は無効になります",
			zap.String("public_key", pub))
	}

	metrics.Register(prometheus.DefaultRegisterer)

	server, err := push.NewServer(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("サーバーの初期化に失敗: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			zl.Warn("データベースのクローズに失敗", zap.Error(err))
		}
	}()

	zl.Info("プッシュ配信サービスを起動します", zap.String("port", cfg.Port), zap.Bool("dev_mode", cfg.DevMode))
	return server.Run(ctx)
}

// printVAPIDKeys は新しいVAPID鍵ペアを環境変数の形式で標準出力に書き出す。
func printVAPIDKeys() error {
	priv, pub, err := dispatch.GenerateVAPIDKeys()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
	return nil
}

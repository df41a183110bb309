package config

import (
	"testing"
	"time"
)

// TestLoad は環境変数からの設定読み込みを検証する。
// t.Setenvを使うため並列実行しない。
func TestLoad(t *testing.T) {
	t.Run("既定値が適用されること", func(t *testing.T) {
		t.Setenv("DEV_MODE", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "8087" {
			t.Errorf("Port = %q, want 8087", cfg.Port)
		}
		if cfg.SendTimeout != 10*time.Second {
			t.Errorf("SendTimeout = %v, want 10s", cfg.SendTimeout)
		}
		if cfg.DispatchConcurrency != 16 {
			t.Errorf("DispatchConcurrency = %d, want 16", cfg.DispatchConcurrency)
		}
		if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
			t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
		}
	})

	t.Run("環境変数の値が反映されること", func(t *testing.T) {
		t.Setenv("VAPID_PUBLIC_KEY", "pub")
		t.Setenv("VAPID_PRIVATE_KEY", "priv")
		t.Setenv("PORT", "9000")
		t.Setenv("PUSH_SEND_TIMEOUT", "3s")
		t.Setenv("DISPATCH_CONCURRENCY", "4")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "9000" {
			t.Errorf("Port = %q, want 9000", cfg.Port)
		}
		if cfg.SendTimeout != 3*time.Second {
			t.Errorf("SendTimeout = %v, want 3s", cfg.SendTimeout)
		}
		if cfg.DispatchConcurrency != 4 {
			t.Errorf("DispatchConcurrency = %d, want 4", cfg.DispatchConcurrency)
		}
		if len(cfg.AllowedOrigins) != 2 {
			t.Errorf("AllowedOrigins = %v, want 2 origins", cfg.AllowedOrigins)
		}
	})

	t.Run("本番モードでVAPID鍵がない場合はエラーとなること", func(t *testing.T) {
		t.Setenv("DEV_MODE", "false")
		t.Setenv("VAPID_PUBLIC_KEY", "")
		t.Setenv("VAPID_PRIVATE_KEY", "")

		if _, err := Load(); err == nil {
			t.Error("エラーが返されなかった")
		}
	})

	t.Run("同時送信数が0以下の場合はエラーとなること", func(t *testing.T) {
		t.Setenv("DEV_MODE", "true")
		t.Setenv("DISPATCH_CONCURRENCY", "0")

		if _, err := Load(); err == nil {
			t.Error("エラーが返されなかった")
		}
	})
}

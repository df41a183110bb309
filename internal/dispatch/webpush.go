package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// maxErrorBodySize はエラー時に読み取るレスポンスボディの上限。
const maxErrorBodySize = 512

// VAPIDConfig はVAPID認証の設定。
type VAPIDConfig struct {
	// PublicKey はVAPID公開鍵（Base64URL）。
	PublicKey string
	// PrivateKey はVAPID秘密鍵（Base64URL）。
	PrivateKey string
	// Subscriber はプッシュサービスに通知する連絡先（メールアドレスまたはURL）。
	Subscriber string
	// TTL はプッシュサービスがメッセージを保持する秒数。
	TTL int
}

// WebPushSender はWeb Push Protocolでエンドポイントへ送信するSender。
// ペイロードの暗号化はエンドポイントごとに行われる。
type WebPushSender struct {
	// vapid はVAPID認証の設定。
	vapid VAPIDConfig
	// httpClient はプッシュサービスへの送信に使用するHTTPクライアント。
	httpClient webpush.HTTPClient
}

// NewWebPushSender は新しいWebPushSenderを生成する。
// httpClientがnilの場合はhttp.DefaultClientを使用する。
func NewWebPushSender(vapid VAPIDConfig, httpClient webpush.HTTPClient) *WebPushSender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WebPushSender{
		vapid:      vapid,
		httpClient: httpClient,
	}
}

// Send は1件のエンドポイントへメッセージを送信する。
// プッシュサービスが2xx以外を返した場合は*StatusErrorを返す。
func (w *WebPushSender) Send(ctx context.Context, sub Subscription, message []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.httpClient,
		Subscriber:      w.vapid.Subscriber,
		VAPIDPublicKey:  w.vapid.PublicKey,
		VAPIDPrivateKey: w.vapid.PrivateKey,
		TTL:             w.vapid.TTL,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("プッシュ通知の送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GenerateVAPIDKeys は新しいVAPID鍵ペアを生成する。
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("VAPID鍵の生成に失敗: %w", err)
	}
	return privateKey, publicKey, nil
}

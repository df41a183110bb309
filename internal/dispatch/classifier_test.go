package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
)

// TestVocabularyClassifier_Classify は送信失敗の分類を検証する。
func TestVocabularyClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{name: "410を含むメッセージは恒久的失敗", err: errors.New("received 410 from push service"), want: Permanent},
		{name: "goneを含むメッセージは恒久的失敗", err: errors.New("subscription Gone"), want: Permanent},
		{name: "404を含むメッセージは恒久的失敗", err: errors.New("status 404"), want: Permanent},
		{name: "not foundを含むメッセージは恒久的失敗", err: errors.New("endpoint Not Found"), want: Permanent},
		{name: "expiredを含むメッセージは恒久的失敗", err: errors.New("subscription expired"), want: Permanent},
		{name: "unsubscribedを含むメッセージは恒久的失敗", err: errors.New("user unsubscribed"), want: Permanent},
		{name: "invalidを含むメッセージは恒久的失敗", err: errors.New("invalid registration"), want: Permanent},
		{name: "unexpected response codeは恒久的失敗", err: errors.New("Received unexpected response code"), want: Permanent},
		{name: "timeoutは一時的失敗", err: errors.New("request timeout"), want: Transient},
		{name: "503は一時的失敗", err: errors.New("503 Service Unavailable"), want: Transient},
		{name: "タイムアウトエラーは一時的失敗", err: fmt.Errorf("送信に失敗: %w", context.DeadlineExceeded), want: Transient},
		{
			name: "URLに410を含むエンドポイントへのタイムアウトは一時的失敗",
			err:  fmt.Errorf("プッシュ通知の送信に失敗: %w", &url.Error{
				Op:  "Post",
				URL: "https://updates.push.services.mozilla.com/wpush/v2/gAAAAABk410xQzGone",
				Err: context.DeadlineExceeded,
			}),
			want: Transient,
		},
		{
			name: "証明書の期限切れによる接続失敗は一時的失敗",
			err:  &url.Error{
				Op:  "Post",
				URL: "https://fcm.googleapis.com/fcm/send/abc",
				Err: errors.New("tls: failed to verify certificate: x509: certificate has expired or is not yet valid"),
			},
			want: Transient,
		},
		{
			name: "ネットワークエラーは一時的失敗",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused to host 404.example")},
			want: Transient,
		},
		{name: "キャンセルは一時的失敗", err: fmt.Errorf("invalid: %w", context.Canceled), want: Transient},
		{name: "ステータス410は恒久的失敗", err: &StatusError{StatusCode: 410}, want: Permanent},
		{name: "ステータス404は恒久的失敗", err: fmt.Errorf("wrap: %w", &StatusError{StatusCode: 404}), want: Permanent},
		{name: "ステータス503は一時的失敗", err: &StatusError{StatusCode: 503}, want: Transient},
		// ステータスコードがある場合はボディの文言で判定しない
		{name: "ステータス403はボディにinvalidがあっても一時的失敗", err: &StatusError{StatusCode: 403, Body: "invalid JWT"}, want: Transient},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome := Outcome{Subscription: testSub("s1", "u1"), Err: tt.err}
			if got := c.Classify(outcome); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
			if outcome.Succeeded {
				t.Error("分類によってSucceededが変更された")
			}
		})
	}

	t.Run("成功した結果は一時的失敗として扱われること", func(t *testing.T) {
		t.Parallel()

		if got := c.Classify(Outcome{Succeeded: true}); got != Transient {
			t.Errorf("Classify() = %v, want transient", got)
		}
	})

	t.Run("語彙を差し替えられること", func(t *testing.T) {
		t.Parallel()

		custom := NewClassifierWithTerms([]string{" NotRegistered "})
		if got := custom.Classify(Outcome{Err: errors.New("NotRegistered")}); got != Permanent {
			t.Errorf("Classify() = %v, want permanent", got)
		}
		if got := custom.Classify(Outcome{Err: errors.New("410 gone")}); got != Transient {
			t.Errorf("Classify() = %v, want transient", got)
		}
	})
}

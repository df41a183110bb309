package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// testPayload はテスト用のリクエスト/レスポンスペイロード。
type testPayload struct {
	// Name はテスト用の名前フィールド。
	Name string `json:"name"`
	// Value はテスト用の値フィールド。
	Value int `json:"value"`
}

// newRecordingServer は受け取ったリクエストを記録し、指定のステータスとボディを返すテストサーバーを生成する。
func newRecordingServer(t *testing.T, status int, respBody string) (*httptest.Server, <-chan testRequest) {
	t.Helper()

	received := make(chan testRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- testRequest{Method: r.Method, Path: r.URL.Path, Body: body, Headers: r.Header.Clone()}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("タイムアウトが30秒に設定されていること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080")
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8080")
		}
		if client.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
		}
	})

	t.Run("WithTimeoutでタイムアウトを変更できること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080", WithTimeout(2*time.Second))
		if client.httpClient.Timeout != 2*time.Second {
			t.Errorf("Timeout = %v, want 2s", client.httpClient.Timeout)
		}
	})
}

// TestPostJSON はPostJSONメソッドを検証する。
func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("正常にPOSTリクエストを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		srv, received := newRecordingServer(t, http.StatusCreated, `{"name":"resp","value":2}`)
		client := New(srv.URL)

		var result testPayload
		if err := client.PostJSON(t.Context(), "/api/v1/events", testPayload{Name: "req", Value: 1}, &result); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}

		req := <-received
		if req.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", req.Method)
		}
		if req.Path != "/api/v1/events" {
			t.Errorf("Path = %q, want /api/v1/events", req.Path)
		}
		if req.Headers.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", req.Headers.Get("Content-Type"))
		}
		var sent testPayload
		if err := json.Unmarshal(req.Body, &sent); err != nil {
			t.Fatalf("送信ボディのデコードに失敗: %v", err)
		}
		if sent.Name != "req" || sent.Value != 1 {
			t.Errorf("送信ボディ = %+v", sent)
		}
		if result.Name != "resp" || result.Value != 2 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("サーバーがエラーを返した場合にStatusErrorが返ること", func(t *testing.T) {
		t.Parallel()

		srv, _ := newRecordingServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
		client := New(srv.URL)

		err := client.PostJSON(t.Context(), "/x", testPayload{}, nil)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("err = %v, want *StatusError", err)
		}
		if statusErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want 500", statusErr.StatusCode)
		}
		if statusErr.Body != `{"error":"boom"}` {
			t.Errorf("Body = %q", statusErr.Body)
		}
	})

	t.Run("キャンセルされたコンテキストでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		srv, _ := newRecordingServer(t, http.StatusOK, `{}`)
		client := New(srv.URL)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if err := client.PostJSON(ctx, "/x", testPayload{}, nil); err == nil {
			t.Error("エラーが返されなかった")
		}
	})

	t.Run("シリアライズできないボディはエラーとなること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:0")
		if err := client.PostJSON(t.Context(), "/x", map[string]any{"ch": make(chan int)}, nil); err == nil {
			t.Error("エラーが返されなかった")
		}
	})
}

// TestGetJSON はGetJSONメソッドを検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("正常にGETリクエストを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		srv, received := newRecordingServer(t, http.StatusOK, `{"name":"got","value":7}`)
		client := New(srv.URL)

		var result testPayload
		if err := client.GetJSON(t.Context(), "/items/1", &result); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		req := <-received
		if req.Method != http.MethodGet {
			t.Errorf("Method = %q, want GET", req.Method)
		}
		if len(req.Body) != 0 {
			t.Errorf("GETリクエストにボディが含まれている: %q", req.Body)
		}
		if req.Headers.Get("Content-Type") != "" {
			t.Errorf("Content-Type = %q, want empty", req.Headers.Get("Content-Type"))
		}
		if result.Value != 7 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("サーバーが404を返した場合にStatusErrorが返ること", func(t *testing.T) {
		t.Parallel()

		srv, _ := newRecordingServer(t, http.StatusNotFound, `not found`)
		client := New(srv.URL)

		err := client.GetJSON(t.Context(), "/items/none", nil)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("err = %v, want StatusError 404", err)
		}
	})

	t.Run("不正なJSONレスポンスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		srv, _ := newRecordingServer(t, http.StatusOK, `{invalid`)
		client := New(srv.URL)

		var result testPayload
		if err := client.GetJSON(t.Context(), "/x", &result); err == nil {
			t.Error("エラーが返されなかった")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1", WithTimeout(time.Second))
		if err := client.GetJSON(t.Context(), "/x", nil); err == nil {
			t.Error("エラーが返されなかった")
		}
	})
}

// TestHeaders は固定ヘッダーとユーザーIDの伝播を検証する。
func TestHeaders(t *testing.T) {
	t.Parallel()

	t.Run("WithHeaderとWithBearerTokenのヘッダーが付与されること", func(t *testing.T) {
		t.Parallel()

		srv, received := newRecordingServer(t, http.StatusOK, `{}`)
		client := New(srv.URL, WithHeader("X-Internal-Key", "secret"), WithBearerToken("tok"))

		if err := client.GetJSON(t.Context(), "/x", nil); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		req := <-received
		if got := req.Headers.Get("X-Internal-Key"); got != "secret" {
			t.Errorf("X-Internal-Key = %q, want secret", got)
		}
		if got := req.Headers.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
	})

	t.Run("コンテキストのユーザーIDがX-User-IDとして伝播されること", func(t *testing.T) {
		t.Parallel()

		srv, received := newRecordingServer(t, http.StatusOK, `{}`)
		client := New(srv.URL)

		ctx := WithUserID(t.Context(), "user-42")
		if err := client.PostJSON(ctx, "/x", testPayload{}, nil); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}
		if got := (<-received).Headers.Get("X-User-ID"); got != "user-42" {
			t.Errorf("X-User-ID = %q, want user-42", got)
		}
	})

	t.Run("ユーザーIDが空の場合はX-User-IDを付与しないこと", func(t *testing.T) {
		t.Parallel()

		srv, received := newRecordingServer(t, http.StatusOK, `{}`)
		client := New(srv.URL)

		if err := client.GetJSON(WithUserID(t.Context(), ""), "/x", nil); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if got := (<-received).Headers.Get("X-User-ID"); got != "" {
			t.Errorf("X-User-ID = %q, want empty", got)
		}
	})
}

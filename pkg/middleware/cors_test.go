package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	newRouter := func(origins []string) (*gin.Engine, *bool) {
		called := false
		router := gin.New()
		router.Use(CORS(origins))
		handler := func(c *gin.Context) {
			called = true
			c.Status(http.StatusOK)
		}
		router.GET("/test", handler)
		router.OPTIONS("/test", handler)
		return router, &called
	}

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantAllow   string
		wantStatus  int
		wantHandled bool
	}{
		{
			name:    "許可されたオリジンにCORSヘッダーが設定されること",
			origins: []string{"http://localhost:3000", "https://example.com"}, method: http.MethodGet,
			origin: "https://example.com", wantAllow: "https://example.com", wantStatus: http.StatusOK, wantHandled: true,
		},
		{
			name:    "末尾のスラッシュ付きで設定したオリジンも許可されること",
			origins: []string{"https://example.com/"}, method: http.MethodGet,
			origin: "https://example.com", wantAllow: "https://example.com", wantStatus: http.StatusOK, wantHandled: true,
		},
		{
			name:    "許可されていないオリジンにはCORSヘッダーが設定されないこと",
			origins: []string{"http://localhost:3000"}, method: http.MethodGet,
			origin: "https://evil.example.com", wantAllow: "", wantStatus: http.StatusOK, wantHandled: true,
		},
		{
			name:    "ワイルドカードは全オリジンを許可すること",
			origins: []string{"*"}, method: http.MethodGet,
			origin: "https://any.example.com", wantAllow: "https://any.example.com", wantStatus: http.StatusOK, wantHandled: true,
		},
		{
			name:    "プリフライトは204で応答しハンドラを呼ばないこと",
			origins: []string{"http://localhost:3000"}, method: http.MethodOptions, preflight: true,
			origin: "http://localhost:3000", wantAllow: "http://localhost:3000", wantStatus: http.StatusNoContent, wantHandled: false,
		},
		{
			name:    "プリフライトでないOPTIONSはハンドラに渡されること",
			origins: []string{"http://localhost:3000"}, method: http.MethodOptions,
			origin: "http://localhost:3000", wantAllow: "http://localhost:3000", wantStatus: http.StatusOK, wantHandled: true,
		},
		{
			name:    "Originヘッダーが無いリクエストはそのまま処理されること",
			origins: []string{"http://localhost:3000"}, method: http.MethodGet,
			origin: "", wantAllow: "", wantStatus: http.StatusOK, wantHandled: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, called := newRouter(tt.origins)
			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if *called != tt.wantHandled {
				t.Errorf("ハンドラ呼び出し = %v, want %v", *called, tt.wantHandled)
			}
		})
	}

	t.Run("内部APIキーのヘッダーが許可されること", func(t *testing.T) {
		t.Parallel()

		router, _ := newRouter([]string{"http://localhost:3000"})
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		want := "Authorization, Content-Type, X-Internal-API-Key"
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != want {
			t.Errorf("Access-Control-Allow-Headers = %q, want %q", got, want)
		}
		if got := w.Header().Get("Vary"); got != "Origin" {
			t.Errorf("Vary = %q, want Origin", got)
		}
	})
}

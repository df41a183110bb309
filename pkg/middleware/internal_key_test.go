package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestInternalAPIKey は内部APIキーの検証を検証する。
func TestInternalAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{name: "一致するキーは許可されること", configured: "secret", header: "secret", wantStatus: http.StatusOK},
		{name: "異なるキーは401となること", configured: "secret", header: "wrong", wantStatus: http.StatusUnauthorized},
		{name: "ヘッダーが無い場合は401となること", configured: "secret", header: "", wantStatus: http.StatusUnauthorized},
		{name: "キー未設定の場合は全て401となること", configured: "", header: "", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(InternalAPIKey(tt.configured))
			router.POST("/internal", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/internal", nil)
			if tt.header != "" {
				req.Header.Set(HeaderInternalAPIKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ステータスコード = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

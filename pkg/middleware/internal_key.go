package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderInternalAPIKey は内部APIの認証キーを渡すHTTPヘッダー。
const HeaderInternalAPIKey = "X-Internal-API-Key"

// InternalAPIKey は内部APIの認証キーを検証するGinミドルウェアを返す。
// keyが空の場合は全てのリクエストを拒否する。
func InternalAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderInternalAPIKey)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "内部APIキーが無効です",
			})
			return
		}
		c.Next()
	}
}

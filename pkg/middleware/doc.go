// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// JWT認証トークンの検証、内部APIキーの検証、リクエストログ、パニックリカバリ、
// CORS設定、メトリクス記録、ユーザーごとのレート制限を含む。
package middleware

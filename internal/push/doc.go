// Package push はプッシュ配信サービスのHTTPサーバーと永続化層を提供する。
//
// ブラウザからのサブスクリプション登録と解除、ユーザーまたはロール宛の通知配信、
// 内部API経由の無条件解除とロール所属の管理を扱う。
// 配信の中核処理は internal/dispatch に委譲する。
package push

// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// プッシュ配信サービスがEvent Storeへのイベント送信や
// 外部ディレクトリへのロール所属の問い合わせを行う際に使用する。
package httpclient

// Package event はプッシュ配信サービスがEvent Storeへ送信するドメインイベントを定義する。
//
// サブスクリプションの登録と削除、通知配信の結果をイベントとして記録する。
package event

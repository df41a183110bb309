package dispatch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// FailureClass は送信失敗の分類。
type FailureClass int

const (
	// Transient は再送で成功しうる一時的な失敗。サブスクリプションは保持する。
	Transient FailureClass = iota
	// Permanent はエンドポイントが今後メッセージを受け付けない恒久的な失敗。
	Permanent
)

// String は分類名を返す。
func (c FailureClass) String() string {
	if c == Permanent {
		return "permanent"
	}
	return "transient"
}

// Classifier は送信結果を一時的失敗か恒久的失敗かに分類する。
// 分類は副作用を持たず、結果の変更や削除は行わない。
type Classifier interface {
	Classify(outcome Outcome) FailureClass
}

// permanentTerms はエンドポイントの失効を示すエラーメッセージの語彙。
var permanentTerms = []string{
	"404",
	"410",
	"invalid",
	"expired",
	"unsubscribed",
	"not found",
	"gone",
	"unexpected response code",
}

// VocabularyClassifier はステータスコードとエラーメッセージの語彙で分類する。
type VocabularyClassifier struct {
	// terms は恒久的失敗とみなす部分文字列（小文字）。
	terms []string
}

// NewClassifier は既定の語彙を持つ分類器を生成する。
func NewClassifier() *VocabularyClassifier {
	return NewClassifierWithTerms(permanentTerms)
}

// NewClassifierWithTerms は指定した語彙を持つ分類器を生成する。
func NewClassifierWithTerms(terms []string) *VocabularyClassifier {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	return &VocabularyClassifier{terms: lowered}
}

// Classify は送信結果を分類する。成功した結果はTransientとして扱う。
// トランスポートがStatusErrorを返した場合はステータスコードのみで判定する。
// タイムアウトやキャンセル、ネットワーク層の失敗はエンドポイントの失効を示さないため一時的失敗とする。
// それ以外のエラーはメッセージの語彙照合で判定する。
func (c *VocabularyClassifier) Classify(outcome Outcome) FailureClass {
	if outcome.Succeeded || outcome.Err == nil {
		return Transient
	}

	var statusErr *StatusError
	if errors.As(outcome.Err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return Permanent
		default:
			return Transient
		}
	}

	if isTransportFailure(outcome.Err) {
		return Transient
	}

	msg := strings.ToLower(outcome.Err.Error())
	for _, term := range c.terms {
		if strings.Contains(msg, term) {
			return Permanent
		}
	}
	return Transient
}

// isTransportFailure はエラーがHTTPリクエストの送受信自体の失敗かどうかを返す。
// *url.Error のメッセージにはエンドポイントのURLが含まれるため、語彙照合の対象にしない。
func isTransportFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

package push

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/pushhub/internal/dispatch"
	"github.com/nao1215/pushhub/pkg/event"
	"github.com/nao1215/pushhub/pkg/middleware"
)

// subscribeRequest はブラウザのPushSubscription.toJSON()と同じ形式の購読登録リクエスト。
type subscribeRequest struct {
	// Endpoint はプッシュサービスのURL。
	Endpoint string `json:"endpoint"`
	// Keys は暗号化用の鍵。
	Keys struct {
		// P256dh はクライアントのECDH公開鍵。
		P256dh string `json:"p256dh"`
		// Auth はクライアントの認証シークレット。
		Auth string `json:"auth"`
	} `json:"keys"`
}

// endpointRequest はエンドポイントのみを指定するリクエスト。
type endpointRequest struct {
	// Endpoint はプッシュサービスのURL。
	Endpoint string `json:"endpoint"`
}

// subscriptionResponse はサブスクリプションのJSONレスポンス構造。
type subscriptionResponse struct {
	// ID はサブスクリプションの一意識別子。
	ID string `json:"id"`
	// Endpoint はプッシュサービスのURL。
	Endpoint string `json:"endpoint"`
	// CreatedAt は購読の作成日時（RFC3339形式）。
	CreatedAt string `json:"created_at"`
}

// sendRequest は通知配信リクエストのJSON構造。
type sendRequest struct {
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Message は通知の本文。
	Message string `json:"message"`
	// Target は配信先。
	Target dispatch.Target `json:"target"`
	// Data は通知に添付する任意のキー値。
	Data map[string]any `json:"data"`
	// Icon は通知アイコン。
	Icon string `json:"icon"`
	// Badge はバッジ画像。
	Badge string `json:"badge"`
	// Vibrate はバイブレーションパターン。
	Vibrate []int `json:"vibrate"`
	// Actions はアクションボタン。
	Actions []dispatch.Action `json:"actions"`
}

// sendResponse は通知配信結果のJSON構造。
type sendResponse struct {
	// Success は1件以上の送信に成功したかどうか。
	Success bool `json:"success"`
	// Status は配信結果の状態。
	Status dispatch.ReportStatus `json:"status"`
	// Message は結果の説明。
	Message string `json:"message"`
	// Sent は送信に成功した件数。
	Sent int `json:"sent"`
	// Failed は送信に失敗した件数。
	Failed int `json:"failed"`
	// Total は送信対象の件数。
	Total int `json:"total"`
	// Deleted は失効により削除されたサブスクリプション数。
	Deleted int `json:"deleted,omitempty"`
	// Errors は失敗したエンドポイントごとの詳細。
	Errors []dispatch.FailureDetail `json:"errors,omitempty"`
}

// toSendResponse は集計結果をJSONレスポンスに変換する。
func toSendResponse(report dispatch.Report) sendResponse {
	resp := sendResponse{
		Success: report.Sent > 0,
		Status:  report.Status,
		Sent:    report.Sent,
		Failed:  report.Failed,
		Total:   report.Total,
		Deleted: report.Deleted,
		Errors:  report.Errors,
	}
	if report.Status == dispatch.StatusNoRecipients {
		resp.Message = "配信先のサブスクリプションがありません"
	} else {
		resp.Message = fmt.Sprintf("%d件中%d件の通知を送信しました", report.Total, report.Sent)
	}
	return resp
}

// handleRegister は認証済みユーザーのサブスクリプションを登録するハンドラ。
// 新規登録は201、登録済みのエンドポイントは200で既存の内容を返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		sub, created, err := s.lifecycle.Register(c.Request.Context(), userID, req.Endpoint, dispatch.Keys{
			P256dh: req.Keys.P256dh,
			Auth:   req.Keys.Auth,
		})
		if err != nil {
			s.writeError(c, err, "サブスクリプションの登録に失敗しました")
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
			s.publisher.SubscriptionRegistered(c.Request.Context(), sub)
		}
		c.JSON(status, gin.H{
			"endpoint": sub.Endpoint,
			"p256dh":   sub.Keys.P256dh,
			"auth":     sub.Keys.Auth,
		})
	}
}

// handleList は認証済みユーザーのサブスクリプション一覧を返すハンドラ。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		subs, err := s.lifecycle.List(c.Request.Context(), userID)
		if err != nil {
			s.writeError(c, err, "サブスクリプション一覧の取得に失敗しました")
			return
		}

		responses := make([]subscriptionResponse, 0, len(subs))
		for _, sub := range subs {
			responses = append(responses, subscriptionResponse{
				ID:        sub.ID,
				Endpoint:  sub.Endpoint,
				CreatedAt: sub.CreatedAt.Format(time.RFC3339),
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// handleStatus はエンドポイントが認証済みユーザーの購読として登録済みかを返すハンドラ。
func (s *Server) handleStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req endpointRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		subscribed, err := s.lifecycle.IsSubscribed(c.Request.Context(), userID, req.Endpoint)
		if err != nil {
			s.writeError(c, err, "購読状態の取得に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"subscribed": subscribed})
	}
}

// handleUnregister は認証済みユーザーが所有するサブスクリプションを削除するハンドラ。
func (s *Server) handleUnregister() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req endpointRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if err := s.lifecycle.Unregister(c.Request.Context(), userID, req.Endpoint); err != nil {
			s.writeError(c, err, "サブスクリプションの削除に失敗しました")
			return
		}

		s.publisher.SubscriptionRemoved(c.Request.Context(), req.Endpoint, userID, event.RemovalReasonUnsubscribed)
		c.JSON(http.StatusOK, gin.H{"message": "サブスクリプションを削除しました"})
	}
}

// handleSend はユーザーまたはロール宛に通知を配信するハンドラ。
// 個々のエンドポイントへの送信失敗はレスポンスの集計に含め、HTTPエラーにはしない。
func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		dreq := dispatch.Request{
			Title:   req.Title,
			Message: req.Message,
			Target:  req.Target,
			Data:    req.Data,
			Icon:    req.Icon,
			Badge:   req.Badge,
			Vibrate: req.Vibrate,
			Actions: req.Actions,
		}
		report, err := s.service.Send(c.Request.Context(), dreq)
		if err != nil {
			s.writeError(c, err, "通知の配信に失敗しました")
			return
		}

		s.publisher.NotificationDispatched(c.Request.Context(), middleware.GetUserID(c), dreq, report)
		c.JSON(http.StatusOK, toSendResponse(report))
	}
}

// handleInternalUnsubscribe は所有者チェックなしでサブスクリプションを削除するハンドラ。
// 内部API（内部APIキーで保護される）。
func (s *Server) handleInternalUnsubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req endpointRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if err := s.lifecycle.UnregisterUnconditional(c.Request.Context(), req.Endpoint); err != nil {
			s.writeError(c, err, "サブスクリプションの削除に失敗しました")
			return
		}

		s.publisher.SubscriptionRemoved(c.Request.Context(), req.Endpoint, "", event.RemovalReasonInternal)
		c.JSON(http.StatusOK, gin.H{"message": "サブスクリプションを削除しました"})
	}
}

// handleAddRoleMember はユーザーにロールを付与するハンドラ。内部API。
func (s *Server) handleAddRoleMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, userID := c.Param("role_id"), c.Param("user_id")

		if err := s.store.AddRoleMember(c.Request.Context(), roleID, userID); err != nil {
			s.writeError(c, err, "ロールの付与に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"role_id": roleID, "user_id": userID})
	}
}

// handleRemoveRoleMember はユーザーからロールを外すハンドラ。内部API。
func (s *Server) handleRemoveRoleMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleID, userID := c.Param("role_id"), c.Param("user_id")

		if err := s.store.RemoveRoleMember(c.Request.Context(), roleID, userID); err != nil {
			s.writeError(c, err, "ロールの削除に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ロールを削除しました"})
	}
}

// devTokenRequest は開発用トークン発行リクエストのJSON構造。
type devTokenRequest struct {
	// UserID はトークンに含めるユーザーID。
	UserID string `json:"user_id" binding:"required"`
	// Email はトークンに含めるメールアドレス。
	Email string `json:"email"`
}

// handleDevToken は開発用のJWTを発行するハンドラ。開発モードでのみ登録される。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req devTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		token, err := middleware.GenerateJWT(s.cfg.JWTSecret, req.UserID, req.Email, s.cfg.DevTokenTTL)
		if err != nil {
			s.writeError(c, err, "トークンの発行に失敗しました")
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

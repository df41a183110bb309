package push

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nao1215/pushhub/internal/config"
	"github.com/nao1215/pushhub/internal/dispatch"
	"github.com/nao1215/pushhub/pkg/event"
	"github.com/nao1215/pushhub/pkg/httpclient"
	"github.com/nao1215/pushhub/pkg/middleware"
)

// shutdownTimeout はサーバー停止時に処理中のリクエストを待つ時間。
const shutdownTimeout = 15 * time.Second

// serviceClientTimeout はEvent Storeとディレクトリへの通信タイムアウト。
const serviceClientTimeout = 5 * time.Second

// Server はプッシュ配信サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はサービスの設定。
	cfg *config.Config
	// db はSQLiteデータベース接続。
	db *sql.DB
	// store はサブスクリプションとロール所属の永続化ストア。
	store *Store
	// lifecycle はサブスクリプションの登録と解除を管理する。
	lifecycle *dispatch.Lifecycle
	// service は通知配信の一連の処理を実行する。
	service *dispatch.Service
	// publisher はドメインイベントの送信先。
	publisher *Publisher
	// limiter は配信要求のユーザーごとのレート制限。
	limiter *middleware.RateLimiter
	// logger はサーバー全体のロガー。
	logger *zap.Logger
}

// NewServer は新しいプッシュ配信サーバーを生成する。
// SQLiteデータベースの初期化とスキーマ適用を行う。
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := OpenDB(ctx, cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}

	sender := dispatch.NewWebPushSender(dispatch.VAPIDConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subscriber: cfg.VAPIDSubscriber,
		TTL:        cfg.PushTTL,
	}, &http.Client{})

	s := newServer(cfg, db, sender, logger)
	s.setupRoutes(middleware.JWTAuth(cfg.JWTSecret))
	return s, nil
}

// newServer は依存関係を組み立てる。ルーティングは呼び出し元で設定する。
func newServer(cfg *config.Config, db *sql.DB, sender dispatch.Sender, logger *zap.Logger) *Server {
	store := NewStore(db)

	var roles dispatch.RoleDirectory = store
	if cfg.DirectoryURL != "" {
		roles = NewRemoteDirectory(httpclient.New(cfg.DirectoryURL,
			httpclient.WithTimeout(serviceClientTimeout),
			httpclient.WithHeader(middleware.HeaderInternalAPIKey, cfg.InternalAPIKey)))
	}

	var eventStoreClient *httpclient.Client
	if cfg.EventStoreURL != "" {
		eventStoreClient = httpclient.New(cfg.EventStoreURL, httpclient.WithTimeout(serviceClientTimeout))
	}

	defaults := dispatch.DefaultDefaults()
	defaults.Icon = cfg.DefaultIcon
	defaults.Badge = cfg.DefaultBadge

	classifier := dispatch.NewClassifier()
	engine := dispatch.NewEngine(sender,
		dispatch.WithConcurrency(cfg.DispatchConcurrency),
		dispatch.WithSendTimeout(cfg.SendTimeout),
		dispatch.WithDefaults(defaults))

	publisher := NewPublisher(eventStoreClient, logger)
	reconciler := dispatch.NewReconciler(store, classifier, logger,
		dispatch.WithRemovalHook(func(ctx context.Context, sub dispatch.Subscription) {
			publisher.SubscriptionRemoved(ctx, sub.Endpoint, "", event.RemovalReasonExpired)
		}))

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	return &Server{
		router:    router,
		cfg:       cfg,
		db:        db,
		store:     store,
		lifecycle: dispatch.NewLifecycle(store, logger),
		service: dispatch.NewService(
			dispatch.NewResolver(store, roles),
			engine,
			classifier,
			reconciler,
			logger,
		),
		publisher: publisher,
		limiter:   middleware.NewRateLimiter(rate.Limit(cfg.SendRateLimit), cfg.SendRateBurst),
		logger:    logger,
	}
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされると処理中のリクエストを待って停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("サーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗: %w", err)
	}
	return <-errCh
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes はAPIルーティングを設定する。authには利用者向けAPIの認証ミドルウェアを渡す。
func (s *Server) setupRoutes(auth gin.HandlerFunc) {
	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "push"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	{
		// ブラウザの購読処理が使用するVAPID公開鍵
		api.GET("/push/vapid-public-key", s.handleVAPIDPublicKey())

		pushAPI := api.Group("/push")
		pushAPI.Use(auth)
		{
			pushAPI.POST("/subscriptions", s.handleRegister())
			pushAPI.GET("/subscriptions", s.handleList())
			pushAPI.DELETE("/subscriptions", s.handleUnregister())
			pushAPI.POST("/subscriptions/status", s.handleStatus())
			pushAPI.POST("/send", s.limiter.Middleware(), s.handleSend())
		}

		internal := api.Group("/internal")
		internal.Use(middleware.InternalAPIKey(s.cfg.InternalAPIKey))
		{
			// 互換用の経路。所有者チェックを行わない
			internal.POST("/push/unsubscribe", s.handleInternalUnsubscribe())
			internal.PUT("/roles/:role_id/members/:user_id", s.handleAddRoleMember())
			internal.DELETE("/roles/:role_id/members/:user_id", s.handleRemoveRoleMember())
		}
	}

	if s.cfg.DevMode {
		s.router.POST("/auth/dev-token", s.handleDevToken())
	}
}

// writeError はドメインエラーをHTTPステータスに変換して返す。
// 想定外のエラーはログに記録し、詳細を返さない。
func (s *Server) writeError(c *gin.Context, err error, internalMessage string) {
	switch {
	case errors.Is(err, dispatch.ErrInvalidRequest),
		errors.Is(err, dispatch.ErrInvalidTarget),
		errors.Is(err, dispatch.ErrInvalidSubscription),
		errors.Is(err, dispatch.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dispatch.ErrNotFound), errors.Is(err, ErrRoleMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dispatch.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		s.logger.Error(internalMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalMessage})
	}
}

// handleVAPIDPublicKey はVAPID公開鍵を返すハンドラ。
func (s *Server) handleVAPIDPublicKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.VAPIDPublicKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "VAPID公開鍵が設定されていません"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"public_key": s.cfg.VAPIDPublicKey})
	}
}

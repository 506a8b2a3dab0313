package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/accountmart/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	HTTPObserver      middleware.HTTPObserver // nilの場合はHTTPメトリクスを記録しない

	// 運用エンドポイント
	HealthChecker  HealthChecker // nilの場合はストア未設定
	MetricsHandler http.Handler  // nilの場合は/metricsを公開しない

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// マーケットプレイス
	AccountService  AccountServiceInterface
	PurchaseService PurchaseServiceInterface
	ReviewService   ReviewServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → SecurityHeaders → CORS → Session → Logging → Metrics
//	/api/* のみ: RateLimit(General) → CSRF
//
// Sessionは拒否せずユーザーを解決するだけで、認証必須のルートはRequireAuthで保護する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPObserver != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPObserver))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	accountHandler := NewAccountHandler(deps.AccountService)
	purchaseHandler := NewPurchaseHandler(deps.PurchaseService)
	reviewHandler := NewReviewHandler(deps.ReviewService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証ルート（OAuthフロー） ---
	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authHandler.Login)
		r.Get("/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

		// 出品
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountHandler.List)
			r.With(middleware.RequireAuth).Get("/mine", accountHandler.Mine)
			r.With(middleware.RequireAuth).Post("/", accountHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", accountHandler.Get)
				r.With(middleware.RequireAuth).Patch("/", accountHandler.Update)
				r.With(middleware.RequireAuth).Delete("/", accountHandler.Remove)

				r.Get("/reviews", reviewHandler.List)
				r.With(middleware.RequireAuth).Post("/reviews", reviewHandler.Create)
			})
		})

		// 取引（すべて認証必須）
		r.Route("/purchases", func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/mine", purchaseHandler.Mine)
			r.Get("/sales", purchaseHandler.Sales)
			// 購入申込には専用のレート制限を追加
			r.With(deps.RateLimiter.PurchaseMiddleware()).Post("/", purchaseHandler.Create)
			r.Post("/{id}/complete", purchaseHandler.Complete)
			r.Post("/{id}/cancel", purchaseHandler.Cancel)
		})
	})

	return r
}

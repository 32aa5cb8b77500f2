package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/noteman/internal/middleware"
	"github.com/hitoshi/noteman/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver        middleware.UserResolver
	CORSAllowedOrigin   string
	RateLimiter         *middleware.RateLimiter
	ProvisionMiddleware func(http.Handler) http.Handler
	Logger              func(http.Handler) http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	Guard       *security.RedirectGuard

	// ノート
	NoteService NoteServiceInterface

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Provision
//
// ノートAPIにはさらに Session → RateLimit(General) を適用する。
// 認証ルート（/auth/*）はセッションミドルウェアの外に配置し、
// サインイン・サインアップにはIP単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(deps.Logger)
	}
	if deps.ProvisionMiddleware != nil {
		r.Use(deps.ProvisionMiddleware)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Guard)
	noteHandler := NewNoteHandler(deps.NoteService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Check)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		// サインイン・サインアップはIP単位のレート制限付き
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/signup", authHandler.Signup)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/signin", authHandler.Signin)

		// セッション管理（ハンドラー内でCookieを読む）
		r.Post("/logout", authHandler.Logout)
		r.Post("/logout-all", authHandler.LogoutAll)
		r.Get("/me", authHandler.Me)
		r.Get("/session", authHandler.GetSession)
		r.Get("/sessions", authHandler.ListSessions)
		r.Delete("/sessions/{id}", authHandler.DeleteSession)

		// プロフィール更新
		r.Patch("/name", authHandler.UpdateName)
		r.Patch("/email", authHandler.UpdateEmail)
		r.Patch("/password", authHandler.UpdatePassword)

		// メール検証・パスワードリカバリー
		r.Post("/verification", authHandler.SendVerification)
		r.Put("/verification", authHandler.ConfirmVerification)
		r.Post("/recovery", authHandler.SendRecovery)
		r.Put("/recovery", authHandler.ConfirmRecovery)

		// OAuthフロー
		r.Get("/oauth/{provider}", authHandler.OAuthSignup)
	})

	// --- ノートAPI ---
	// GET/POSTはセッション必須。DELETEはセッションミドルウェアの外に
	// 配置する（既存クライアントのID指定削除をそのまま受け付ける）。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.UserResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/sticky-notes", noteHandler.ListNotes)
		r.Post("/api/sticky-notes", noteHandler.CreateNote)
	})

	r.Delete("/api/sticky-notes/{id}", noteHandler.DeleteNote)

	return r
}

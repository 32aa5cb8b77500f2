// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/noteman/internal/appwrite"
	"github.com/hitoshi/noteman/internal/auth"
	"github.com/hitoshi/noteman/internal/config"
	"github.com/hitoshi/noteman/internal/handler"
	"github.com/hitoshi/noteman/internal/logger"
	"github.com/hitoshi/noteman/internal/metrics"
	"github.com/hitoshi/noteman/internal/middleware"
	"github.com/hitoshi/noteman/internal/note"
	"github.com/hitoshi/noteman/internal/provision"
	"github.com/hitoshi/noteman/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandProvision:
		return runProvision(cfg)
	default:
		return runServe(cfg)
	}
}

// newBackendClient は特権バックエンドクライアントを生成する。
func newBackendClient(cfg *config.Config) *appwrite.Client {
	return appwrite.New(
		cfg.AppwriteEndpoint,
		cfg.AppwriteProjectID,
		cfg.AppwriteAPIKey,
		&http.Client{Timeout: cfg.BackendTimeout},
	)
}

// runServe はAPIサーバーモードで起動する。
// バックエンドクライアントと全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. バックエンドクライアントとメトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	client := newBackendClient(cfg)
	client.SetRecorder(collector)

	// 2. セキュリティサービスの初期化
	sanitizer := security.NewContentSanitizer()
	guard, err := security.NewRedirectGuard(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid BASE_URL: %w", err)
	}

	// 3. ドメインサービスの初期化
	authService := auth.NewService(client)

	noteService := note.NewService(client, sanitizer)
	noteService.SetRecorder(collector)

	ensurer := provision.NewEnsurer(client)

	// 4. レート制限の構成（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		UserResolver:        authService,
		CORSAllowedOrigin:   cfg.CORSAllowedOrigin,
		RateLimiter:         rateLimiter,
		ProvisionMiddleware: ensurer.Middleware(),
		Logger:              middleware.NewLoggingMiddleware(slog.Default()),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		Guard: guard,

		NoteService: noteService,

		HealthChecker:  client,
		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runProvision はデータベーススキーマの初期化を1回実行して終了する。
// サーバー起動前にスキーマを準備しておきたいデプロイ環境用。
func runProvision(cfg *config.Config) error {
	client := newBackendClient(cfg)
	ensurer := provision.NewEnsurer(client)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := ensurer.Ensure(ctx); err != nil {
		return fmt.Errorf("schema provisioning failed: %w", err)
	}

	slog.Info("schema provisioning completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

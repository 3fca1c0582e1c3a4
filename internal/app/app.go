package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/foodgram/internal/auth"
	"github.com/hitoshi/foodgram/internal/catalog"
	"github.com/hitoshi/foodgram/internal/config"
	"github.com/hitoshi/foodgram/internal/database"
	"github.com/hitoshi/foodgram/internal/handler"
	"github.com/hitoshi/foodgram/internal/logger"
	"github.com/hitoshi/foodgram/internal/metrics"
	"github.com/hitoshi/foodgram/internal/middleware"
	"github.com/hitoshi/foodgram/internal/recipe"
	"github.com/hitoshi/foodgram/internal/repository"
	"github.com/hitoshi/foodgram/internal/security"
	"github.com/hitoshi/foodgram/internal/shopping"
	"github.com/hitoshi/foodgram/internal/user"
	"github.com/hitoshi/foodgram/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルを反映する
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
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
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandLoadIngredients:
		path := commandArg(args)
		if path == "" {
			path = cfg.IngredientsCSVPath
		}
		return runLoadIngredients(cfg, path)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// buildRouter はリポジトリ・サービス・ハンドラーを組み立て、ルーターを返す。
// 戻り値のstop関数はレートリミッターのクリーンアップを停止する。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresTokenRepo(db)
	followRepo := repository.NewPostgresFollowRepo(db)
	tagRepo := repository.NewPostgresTagRepo(db)
	ingredientRepo := repository.NewPostgresIngredientRepo(db)
	recipeRepo := repository.NewPostgresRecipeRepo(db)
	favoriteRepo := repository.NewPostgresFavoriteRepo(db)
	cartRepo := repository.NewPostgresCartRepo(db)

	// 2. メトリクスの初期化
	collector := metrics.NewCollector(reg)

	// 3. ドメインサービスの初期化
	authService := auth.NewService(userRepo, tokenRepo, auth.ServiceConfig{
		TokenMaxAge: cfg.TokenMaxAge,
	})
	userService := user.NewService(userRepo, followRepo, recipeRepo, tokenRepo)
	catalogService := catalog.NewService(tagRepo, ingredientRepo)
	recipeService := recipe.NewService(recipe.Deps{
		Recipes:     recipeRepo,
		Tags:        tagRepo,
		Ingredients: ingredientRepo,
		Users:       userRepo,
		Follows:     followRepo,
		Favorites:   favoriteRepo,
		Cart:        cartRepo,
		Sanitizer:   security.NewTextSanitizer(),
		Recorder:    collector,
	}, recipe.Limits{
		MinIngredientAmount: cfg.MinIngredientAmount,
		MaxIngredientAmount: cfg.MaxIngredientAmount,
		MinCookingTime:      cfg.MinCookingTime,
		MaxCookingTime:      cfg.MaxCookingTime,
		ImageMaxBytes:       cfg.RecipeImageMaxBytes,
	})

	// 4. 買い物リスト集計の初期化
	aggregator, err := shopping.NewAggregator(cartRepo, cfg.ShoppingListLocale)
	if err != nil {
		return nil, nil, err
	}
	exporter := shopping.NewExporter(aggregator, cfg.ShoppingListFormat, cfg.ShoppingCartFilename, cfg.ShoppingListFontPath)

	// 5. ルーターの構築
	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite))
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		StatusRecorder:    collector,
		HealthChecker:     db,
		MetricsHandler:    metrics.Handler(reg),
		BaseURL:           cfg.BaseURL,
		PageSize:          cfg.PageSize,
		AuthService:       authService,
		UserService:       userService,
		CatalogService:    catalogService,
		RecipeService:     recipeService,
		ShoppingExporter:  exporter,
		ExportRecorder:    collector,
	})

	return router, limiter.Stop, nil
}

// newRegistry はアプリケーション用のPrometheusレジストリを生成する。
// Goランタイムとプロセスの標準メトリクスも登録する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	router, stopLimiter, err := buildRouter(cfg, db, newRegistry())
	if err != nil {
		return err
	}
	defer stopLimiter()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れトークンの削除ジョブをTOKEN_CLEANUP_INTERVAL間隔で実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	job := cleanup.NewCleanupJob(repository.NewPostgresTokenRepo(db), slog.Default())
	job.Start(ctx, cfg.TokenCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runLoadIngredients はCSVファイル（名前,単位）から食材カタログを取り込む。
// 既存の食材はそのまま残すため、繰り返し実行しても重複しない。
func runLoadIngredients(cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ingredients file: %w", err)
	}
	defer f.Close()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := catalog.NewService(repository.NewPostgresTagRepo(db), repository.NewPostgresIngredientRepo(db))
	result, err := svc.ImportIngredients(context.Background(), f)
	if err != nil {
		return fmt.Errorf("failed to load ingredients from %s: %w", path, err)
	}

	slog.Info("ingredients loaded",
		slog.String("path", path),
		slog.Int("created", result.Created),
		slog.Int("existing", result.Existing),
		slog.Int("skipped", result.Skipped),
	)
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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

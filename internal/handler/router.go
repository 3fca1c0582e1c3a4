package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/foodgram/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.StatusRecorder

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// レスポンス生成
	BaseURL  string
	PageSize int

	// 認証・ユーザー
	AuthService AuthServiceInterface
	UserService UserServiceInterface

	// タグ・食材
	CatalogService CatalogServiceInterface

	// レシピ・買い物リスト
	RecipeService    RecipeServiceInterface
	ShoppingExporter ShoppingListExporter
	ExportRecorder   ExportRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	StripSlashes → Metrics → Logging → Recovery → SecurityHeaders → CORS
//	/api 配下: TokenAuth(Optional) → RateLimit(General) → RateLimit(Write)
//
// 認証の要否はルートごとに RequireUser / RequireAdmin で判定する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.StripSlashes)
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService, deps.BaseURL, deps.PageSize)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	recipeHandler := NewRecipeHandler(
		deps.RecipeService, deps.ShoppingExporter, deps.ExportRecorder,
		deps.BaseURL, deps.PageSize,
	)

	// --- 運用エンドポイント（認証・レート制限なし） ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	tokenAuth := middleware.NewTokenAuth(deps.Authenticator)

	r.Route("/api", func(r chi.Router) {
		r.Use(tokenAuth.Optional())
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(deps.RateLimiter.WriteMiddleware())

		// トークン認証
		r.Route("/auth/token", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.With(middleware.RequireUser).Post("/logout", authHandler.Logout)
		})

		// ユーザー・フォロー
		r.Route("/users", func(r chi.Router) {
			r.Post("/", authHandler.Register)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/", userHandler.List)
				r.Get("/me", userHandler.Me)
				r.Delete("/me", userHandler.Withdraw)
				r.Post("/set_password", authHandler.SetPassword)
				r.Get("/subscriptions", userHandler.Subscriptions)
				r.Get("/{id}", userHandler.Get)
				r.Post("/{id}/subscribe", userHandler.Subscribe)
				r.Delete("/{id}/subscribe", userHandler.Unsubscribe)
			})
		})

		// タグ
		r.Route("/tags", func(r chi.Router) {
			r.Get("/", catalogHandler.ListTags)
			r.Get("/{id}", catalogHandler.GetTag)
			r.With(middleware.RequireAdmin).Post("/", catalogHandler.CreateTag)
		})

		// 食材
		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", catalogHandler.ListIngredients)
			r.Get("/{id}", catalogHandler.GetIngredient)
			r.With(middleware.RequireAdmin).Post("/", catalogHandler.CreateIngredient)
		})

		// レシピ
		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.With(middleware.RequireUser).Get("/download_shopping_cart", recipeHandler.DownloadShoppingCart)
			r.With(middleware.RequireUser).Post("/", recipeHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recipeHandler.Get)
				r.Get("/image", recipeHandler.Image)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireUser)
					r.Patch("/", recipeHandler.Update)
					r.Delete("/", recipeHandler.Delete)
					r.Post("/favorite", recipeHandler.AddFavorite)
					r.Delete("/favorite", recipeHandler.RemoveFavorite)
					r.Post("/shopping_cart", recipeHandler.AddToCart)
					r.Delete("/shopping_cart", recipeHandler.RemoveFromCart)
				})
			})
		})
	})

	return r
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/foodgram/internal/middleware"
	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/shopping"
)

// countingStatusRecorder はステータスコードごとの記録回数を数える。
type countingStatusRecorder struct {
	counts map[int]int
}

func (c *countingStatusRecorder) RecordHTTPStatus(code int) {
	if c.counts == nil {
		c.counts = map[int]int{}
	}
	c.counts[code]++
}

// createTestRouter はテスト用の完全なルーターを構築するヘルパー。
func createTestRouter(t *testing.T) (http.Handler, *RouterDeps) {
	t.Helper()

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	deps := &RouterDeps{
		Authenticator: &mockAuthenticator{users: map[string]*model.User{
			"user-token":  testUser,
			"admin-token": testAdmin,
		}},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		StatusRecorder:    &countingStatusRecorder{},
		MetricsHandler:    http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics\n"))
		}),
		BaseURL:        testBaseURL,
		PageSize:       6,
		AuthService:    &mockAuthService{},
		UserService:    &mockUserService{},
		CatalogService: newTestCatalog(),
		RecipeService:  &mockRecipeService{
			getFn: func(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error) {
				d := sampleDetail()
				d.ID = recipeID
				return d, nil
			},
		},
		ShoppingExporter: &mockExporter{},
		ExportRecorder:   &mockExportRecorder{},
	}
	return NewRouter(deps), deps
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewRouter_AuthRequirements(t *testing.T) {
	router, _ := createTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		{"register is anonymous", http.MethodPost, "/api/users", "", `{"email":"a@b.c"}`, http.StatusCreated},
		{"login is anonymous", http.MethodPost, "/api/auth/token/login", "", `{}`, http.StatusCreated},
		{"logout requires token", http.MethodPost, "/api/auth/token/logout", "", "", http.StatusUnauthorized},
		{"logout with token", http.MethodPost, "/api/auth/token/logout", "user-token", "", http.StatusNoContent},
		{"users list requires token", http.MethodGet, "/api/users", "", "", http.StatusUnauthorized},
		{"me with token", http.MethodGet, "/api/users/me", "user-token", "", http.StatusOK},
		{"unknown token rejected", http.MethodGet, "/api/tags", "bogus", "", http.StatusUnauthorized},
		{"tags are public", http.MethodGet, "/api/tags", "", "", http.StatusOK},
		{"trailing slash tolerated", http.MethodGet, "/api/tags/", "", "", http.StatusOK},
		{"tag create needs admin", http.MethodPost, "/api/tags", "user-token", `{}`, http.StatusForbidden},
		{"tag create as admin", http.MethodPost, "/api/tags", "admin-token", `{"name":"x"}`, http.StatusCreated},
		{"ingredient create anonymous", http.MethodPost, "/api/ingredients", "", `{}`, http.StatusUnauthorized},
		{"recipe detail is public", http.MethodGet, "/api/recipes/r-7", "", "", http.StatusOK},
		{"recipe create requires token", http.MethodPost, "/api/recipes", "", `{}`, http.StatusUnauthorized},
		{"favorite requires token", http.MethodPost, "/api/recipes/r-7/favorite", "", "", http.StatusUnauthorized},
		{"download requires token", http.MethodGet, "/api/recipes/download_shopping_cart", "", "", http.StatusUnauthorized},
		{"download empty cart", http.MethodGet, "/api/recipes/download_shopping_cart", "user-token", "", http.StatusNoContent},
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d (body=%s)", tt.method, tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestNewRouter_DownloadIsNotTreatedAsRecipeID(t *testing.T) {
	router, deps := createTestRouter(t)
	deps.ShoppingExporter.(*mockExporter).exportFn = func(ctx context.Context, userID, username, format string) (*shopping.Export, error) {
		return &shopping.Export{Filename: "list.pdf", ContentType: "application/pdf", Format: "pdf", Body: []byte("%PDF-"), LineCount: 2}, nil
	}

	w := doRequest(router, http.MethodGet, "/api/recipes/download_shopping_cart?format=pdf", "user-token", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec := deps.ExportRecorder.(*mockExportRecorder); rec.exports["pdf"] != 1 {
		t.Errorf("pdf exports = %d, want 1", rec.exports["pdf"])
	}
}

func TestNewRouter_ViewerReachesRecipeService(t *testing.T) {
	router, deps := createTestRouter(t)
	var seen string
	deps.RecipeService.(*mockRecipeService).getFn = func(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error) {
		seen = viewerID
		return sampleDetail(), nil
	}

	doRequest(router, http.MethodGet, "/api/recipes/r-1", "user-token", "")

	if seen != testUser.ID {
		t.Errorf("viewerID = %q, want %q", seen, testUser.ID)
	}
}

func TestNewRouter_AppliesMiddlewareStack(t *testing.T) {
	router, deps := createTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/tags", "", "")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := deps.StatusRecorder.(*countingStatusRecorder).counts[http.StatusOK]; got != 1 {
		t.Errorf("recorded 200s = %d, want 1", got)
	}
}

func TestNewRouter_PreflightIsAnswered(t *testing.T) {
	router, _ := createTestRouter(t)

	w := doRequest(router, http.MethodOptions, "/api/recipes", "", "")

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestNewRouter_PanicIsRecoveredAndCounted(t *testing.T) {
	router, deps := createTestRouter(t)
	deps.RecipeService.(*mockRecipeService).getFn = func(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error) {
		panic("boom")
	}

	w := doRequest(router, http.MethodGet, "/api/recipes/r-1", "", "")

	assertErrorCode(t, w, http.StatusInternalServerError, "INTERNAL_ERROR")
	if got := deps.StatusRecorder.(*countingStatusRecorder).counts[http.StatusInternalServerError]; got != 1 {
		t.Errorf("recorded 500s = %d, want 1", got)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/foodgram/internal/auth"
	"github.com/hitoshi/foodgram/internal/middleware"
	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/recipe"
	"github.com/hitoshi/foodgram/internal/shopping"
	"github.com/hitoshi/foodgram/internal/user"
)

const testBaseURL = "http://foodgram.test"

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn    func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn       func(ctx context.Context, email, password string) (*model.AuthToken, error)
	logoutFn      func(ctx context.Context, key string) error
	setPasswordFn func(ctx context.Context, userID, current, next string) error
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{ID: "new-user", Email: in.Email, Username: in.Username}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.AuthToken, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &model.AuthToken{Key: "issued-token"}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, key string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, key)
	}
	return nil
}

func (m *mockAuthService) SetPassword(ctx context.Context, userID, current, next string) error {
	if m.setPasswordFn != nil {
		return m.setPasswordFn(ctx, userID, current, next)
	}
	return nil
}

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	listFn          func(ctx context.Context, viewerID string, limit, offset int) ([]user.Profile, int, error)
	getFn           func(ctx context.Context, viewerID, userID string) (*user.Profile, error)
	subscribeFn     func(ctx context.Context, viewerID, authorID string, recipesLimit int) (*user.AuthorSummary, error)
	unsubscribeFn   func(ctx context.Context, viewerID, authorID string) error
	subscriptionsFn func(ctx context.Context, viewerID string, limit, offset, recipesLimit int) ([]user.AuthorSummary, int, error)
	withdrawFn      func(ctx context.Context, userID string) error
}

func (m *mockUserService) List(ctx context.Context, viewerID string, limit, offset int) ([]user.Profile, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, viewerID, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockUserService) Get(ctx context.Context, viewerID, userID string) (*user.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, viewerID, userID)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockUserService) Subscribe(ctx context.Context, viewerID, authorID string, recipesLimit int) (*user.AuthorSummary, error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, viewerID, authorID, recipesLimit)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockUserService) Unsubscribe(ctx context.Context, viewerID, authorID string) error {
	if m.unsubscribeFn != nil {
		return m.unsubscribeFn(ctx, viewerID, authorID)
	}
	return nil
}

func (m *mockUserService) Subscriptions(ctx context.Context, viewerID string, limit, offset, recipesLimit int) ([]user.AuthorSummary, int, error) {
	if m.subscriptionsFn != nil {
		return m.subscriptionsFn(ctx, viewerID, limit, offset, recipesLimit)
	}
	return nil, 0, nil
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

// mockCatalogService はCatalogServiceInterfaceのモック実装。
type mockCatalogService struct {
	tags        []*model.Tag
	ingredients []*model.Ingredient
	listIngName string
	createdTag  *model.Tag
}

func (m *mockCatalogService) ListTags(ctx context.Context) ([]*model.Tag, error) {
	return m.tags, nil
}

func (m *mockCatalogService) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	for _, t := range m.tags {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, model.NewTagNotFoundError(id)
}

func (m *mockCatalogService) CreateTag(ctx context.Context, name, color, slug string) (*model.Tag, error) {
	m.createdTag = &model.Tag{ID: "tag-new", Name: name, Color: color, Slug: slug}
	return m.createdTag, nil
}

func (m *mockCatalogService) ListIngredients(ctx context.Context, name string) ([]*model.Ingredient, error) {
	m.listIngName = name
	return m.ingredients, nil
}

func (m *mockCatalogService) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	for _, in := range m.ingredients {
		if in.ID == id {
			return in, nil
		}
	}
	return nil, model.NewIngredientNotFoundError(id)
}

func (m *mockCatalogService) CreateIngredient(ctx context.Context, name, unit string) (*model.Ingredient, error) {
	return &model.Ingredient{ID: "ing-new", Name: name, MeasurementUnit: unit}, nil
}

// mockRecipeService はRecipeServiceInterfaceのモック実装。
type mockRecipeService struct {
	listFn           func(ctx context.Context, viewerID string, filter model.RecipeFilter) ([]model.RecipeDetail, int, error)
	getFn            func(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error)
	imageFn          func(ctx context.Context, recipeID string) ([]byte, string, error)
	createFn         func(ctx context.Context, author *model.User, in recipe.Input) (*model.RecipeDetail, error)
	updateFn         func(ctx context.Context, editor *model.User, recipeID string, in recipe.Input) (*model.RecipeDetail, error)
	deleteFn         func(ctx context.Context, u *model.User, recipeID string) error
	addFavoriteFn    func(ctx context.Context, userID, recipeID string) (*model.Recipe, error)
	removeFavoriteFn func(ctx context.Context, userID, recipeID string) error
	addToCartFn      func(ctx context.Context, userID, recipeID string) (*model.Recipe, error)
	removeFromCartFn func(ctx context.Context, userID, recipeID string) error
}

func (m *mockRecipeService) List(ctx context.Context, viewerID string, filter model.RecipeFilter) ([]model.RecipeDetail, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, viewerID, filter)
	}
	return nil, 0, nil
}

func (m *mockRecipeService) Get(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, viewerID, recipeID)
	}
	return nil, model.NewRecipeNotFoundError(recipeID)
}

func (m *mockRecipeService) Image(ctx context.Context, recipeID string) ([]byte, string, error) {
	if m.imageFn != nil {
		return m.imageFn(ctx, recipeID)
	}
	return nil, "", model.NewRecipeNotFoundError(recipeID)
}

func (m *mockRecipeService) Create(ctx context.Context, author *model.User, in recipe.Input) (*model.RecipeDetail, error) {
	if m.createFn != nil {
		return m.createFn(ctx, author, in)
	}
	return nil, model.NewValidationError("name", "empty")
}

func (m *mockRecipeService) Update(ctx context.Context, editor *model.User, recipeID string, in recipe.Input) (*model.RecipeDetail, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, editor, recipeID, in)
	}
	return nil, model.NewRecipeNotFoundError(recipeID)
}

func (m *mockRecipeService) Delete(ctx context.Context, u *model.User, recipeID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, u, recipeID)
	}
	return nil
}

func (m *mockRecipeService) AddFavorite(ctx context.Context, userID, recipeID string) (*model.Recipe, error) {
	if m.addFavoriteFn != nil {
		return m.addFavoriteFn(ctx, userID, recipeID)
	}
	return nil, model.NewRecipeNotFoundError(recipeID)
}

func (m *mockRecipeService) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	if m.removeFavoriteFn != nil {
		return m.removeFavoriteFn(ctx, userID, recipeID)
	}
	return nil
}

func (m *mockRecipeService) AddToCart(ctx context.Context, userID, recipeID string) (*model.Recipe, error) {
	if m.addToCartFn != nil {
		return m.addToCartFn(ctx, userID, recipeID)
	}
	return nil, model.NewRecipeNotFoundError(recipeID)
}

func (m *mockRecipeService) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	if m.removeFromCartFn != nil {
		return m.removeFromCartFn(ctx, userID, recipeID)
	}
	return nil
}

// mockExporter はShoppingListExporterのモック実装。
type mockExporter struct {
	exportFn func(ctx context.Context, userID, username, format string) (*shopping.Export, error)
}

func (m *mockExporter) Export(ctx context.Context, userID, username, format string) (*shopping.Export, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, userID, username, format)
	}
	return nil, shopping.ErrEmptyCart
}

// mockExportRecorder はExportRecorderのモック実装。
type mockExportRecorder struct {
	exports map[string]int
	lines   []int
	empty   int
}

func (m *mockExportRecorder) RecordShoppingListExport(format string, lines int) {
	if m.exports == nil {
		m.exports = map[string]int{}
	}
	m.exports[format]++
	m.lines = append(m.lines, lines)
}

func (m *mockExportRecorder) RecordEmptyCartExport() { m.empty++ }

// mockAuthenticator はトークンとユーザーの対応表で認証する。
type mockAuthenticator struct {
	users map[string]*model.User
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, key string) (*model.User, error) {
	return m.users[key], nil
}

var (
	_ AuthServiceInterface     = (*mockAuthService)(nil)
	_ UserServiceInterface     = (*mockUserService)(nil)
	_ CatalogServiceInterface  = (*mockCatalogService)(nil)
	_ RecipeServiceInterface   = (*mockRecipeService)(nil)
	_ ShoppingListExporter     = (*mockExporter)(nil)
	_ ExportRecorder           = (*mockExportRecorder)(nil)
	_ middleware.Authenticator = (*mockAuthenticator)(nil)
)

// --- テストヘルパー ---

var (
	testUser  = &model.User{ID: "user-1", Email: "cook@example.com", Username: "cook", FirstName: "Anna", LastName: "Ivanova"}
	testAdmin = &model.User{ID: "admin-1", Email: "admin@example.com", Username: "admin", IsAdmin: true}
)

// withUser はリクエストコンテキストに認証済みユーザーを注入する。
func withUser(req *http.Request, u *model.User) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), u))
}

// decodeBody はレスポンスボディをJSONとしてデコードする。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body: %v (body=%q)", err, w.Body.String())
	}
}

// assertErrorCode はエラーレスポンスのステータスとコードを検証する。
func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Fatalf("status = %d, want %d (body=%s)", w.Code, wantStatus, w.Body.String())
	}
	var body middleware.ErrorResponseBody
	decodeBody(t, w, &body)
	if body.Code != wantCode {
		t.Errorf("code = %q, want %q", body.Code, wantCode)
	}
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/recipe"
	"github.com/hitoshi/foodgram/internal/shopping"
)

// RecipeServiceInterface はレシピハンドラーが必要とするサービスインターフェース。
type RecipeServiceInterface interface {
	List(ctx context.Context, viewerID string, filter model.RecipeFilter) ([]model.RecipeDetail, int, error)
	Get(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error)
	Image(ctx context.Context, recipeID string) ([]byte, string, error)
	Create(ctx context.Context, author *model.User, in recipe.Input) (*model.RecipeDetail, error)
	Update(ctx context.Context, editor *model.User, recipeID string, in recipe.Input) (*model.RecipeDetail, error)
	Delete(ctx context.Context, user *model.User, recipeID string) error
	AddFavorite(ctx context.Context, userID, recipeID string) (*model.Recipe, error)
	RemoveFavorite(ctx context.Context, userID, recipeID string) error
	AddToCart(ctx context.Context, userID, recipeID string) (*model.Recipe, error)
	RemoveFromCart(ctx context.Context, userID, recipeID string) error
}

// ShoppingListExporter は買い物リストのファイル生成インターフェース。
type ShoppingListExporter interface {
	Export(ctx context.Context, userID, username, format string) (*shopping.Export, error)
}

// ExportRecorder は買い物リスト出力のメトリクス記録インターフェース。
type ExportRecorder interface {
	RecordShoppingListExport(format string, lines int)
	RecordEmptyCartExport()
}

// RecipeHandler はレシピ・お気に入り・買い物かごのHTTPハンドラー。
type RecipeHandler struct {
	service  RecipeServiceInterface
	exporter ShoppingListExporter
	recorder ExportRecorder
	baseURL  string
	pageSize int
}

// NewRecipeHandler はRecipeHandlerを生成する。
func NewRecipeHandler(
	service RecipeServiceInterface,
	exporter ShoppingListExporter,
	recorder ExportRecorder,
	baseURL string,
	pageSize int,
) *RecipeHandler {
	return &RecipeHandler{
		service:  service,
		exporter: exporter,
		recorder: recorder,
		baseURL:  baseURL,
		pageSize: pageSize,
	}
}

type recipeIngredientRequest struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

type recipeRequest struct {
	Ingredients []recipeIngredientRequest `json:"ingredients"`
	Tags        []string                  `json:"tags"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

func (req recipeRequest) toInput() recipe.Input {
	in := recipe.Input{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
		TagIDs:      req.Tags,
		Ingredients: make([]recipe.IngredientInput, len(req.Ingredients)),
	}
	for i, ing := range req.Ingredients {
		in.Ingredients[i] = recipe.IngredientInput{ID: ing.ID, Amount: ing.Amount}
	}
	return in
}

// List はレシピ一覧を新しい順にページ分割して返す。
// GET /api/recipes?author=&tags=&is_favorited=1&is_in_shopping_cart=1
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r, h.pageSize)
	q := r.URL.Query()
	filter := model.RecipeFilter{
		ViewerID:      viewerID(r),
		AuthorID:      q.Get("author"),
		TagSlugs:      q["tags"],
		FavoritedOnly: queryFlag(q.Get("is_favorited")),
		InCartOnly:    queryFlag(q.Get("is_in_shopping_cart")),
		Limit:         p.Limit,
		Offset:        p.Offset(),
	}

	details, count, err := h.service.List(r.Context(), filter.ViewerID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]recipeResponse, len(details))
	for i, d := range details {
		results[i] = toRecipeResponse(h.baseURL, d)
	}
	writeJSON(w, http.StatusOK, newPageResponse(h.baseURL, r, p, count, results))
}

// Get は指定レシピの詳細を返す。
// GET /api/recipes/{id}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeResponse(h.baseURL, *detail))
}

// Image はレシピ画像を配信する。
// GET /api/recipes/{id}/image
func (h *RecipeHandler) Image(w http.ResponseWriter, r *http.Request) {
	data, mime, err := h.service.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write recipe image", slog.String("error", err.Error()))
	}
}

// Create はレシピを公開する。
// POST /api/recipes
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	var req recipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	detail, err := h.service.Create(r.Context(), u, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecipeResponse(h.baseURL, *detail))
}

// Update はレシピを更新する。作者のみ。
// PATCH /api/recipes/{id}
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	var req recipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	detail, err := h.service.Update(r.Context(), u, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeResponse(h.baseURL, *detail))
}

// Delete はレシピを削除する。作者または管理者のみ。
// DELETE /api/recipes/{id}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	if err := h.service.Delete(r.Context(), u, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddFavorite はレシピをお気に入りに追加する。
// POST /api/recipes/{id}/favorite
func (h *RecipeHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.addMark(w, r, h.service.AddFavorite)
}

// RemoveFavorite はレシピをお気に入りから外す。
// DELETE /api/recipes/{id}/favorite
func (h *RecipeHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeMark(w, r, h.service.RemoveFavorite)
}

// AddToCart はレシピを買い物かごに追加する。
// POST /api/recipes/{id}/shopping_cart
func (h *RecipeHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	h.addMark(w, r, h.service.AddToCart)
}

// RemoveFromCart はレシピを買い物かごから外す。
// DELETE /api/recipes/{id}/shopping_cart
func (h *RecipeHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.removeMark(w, r, h.service.RemoveFromCart)
}

func (h *RecipeHandler) addMark(
	w http.ResponseWriter,
	r *http.Request,
	add func(ctx context.Context, userID, recipeID string) (*model.Recipe, error),
) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	rec, err := add(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecipeShortResponse(h.baseURL, rec))
}

func (h *RecipeHandler) removeMark(
	w http.ResponseWriter,
	r *http.Request,
	remove func(ctx context.Context, userID, recipeID string) error,
) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	if err := remove(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadShoppingCart は買い物かごのレシピの材料を集計したファイルを返す。
// かごが空の場合は204 No Contentを返す。
// GET /api/recipes/download_shopping_cart?format=txt|pdf
func (h *RecipeHandler) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	// 1. 集計とレンダリング
	export, err := h.exporter.Export(r.Context(), u.ID, u.Username, r.URL.Query().Get("format"))
	if errors.Is(err, shopping.ErrEmptyCart) {
		h.recorder.RecordEmptyCartExport()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 2. 添付ファイルとして送信
	h.recorder.RecordShoppingListExport(export.Format, export.LineCount)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Body); err != nil {
		slog.Warn("failed to write shopping list",
			slog.String("user_id", u.ID),
			slog.String("error", err.Error()),
		)
	}
}

// queryFlag は "1" または "true" を真とみなす。
func queryFlag(v string) bool {
	return v == "1" || v == "true"
}

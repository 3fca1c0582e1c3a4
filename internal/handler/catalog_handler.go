package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodgram/internal/model"
)

// CatalogServiceInterface はタグ・食材ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListTags(ctx context.Context) ([]*model.Tag, error)
	GetTag(ctx context.Context, id string) (*model.Tag, error)
	CreateTag(ctx context.Context, name, color, slug string) (*model.Tag, error)
	ListIngredients(ctx context.Context, name string) ([]*model.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*model.Ingredient, error)
	CreateIngredient(ctx context.Context, name, unit string) (*model.Ingredient, error)
}

// CatalogHandler はタグと食材カタログのHTTPハンドラー。
// 一覧はページ分割しない。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type createIngredientRequest struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// ListTags はタグ一覧を返す。
// GET /api/tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]tagResponse, len(tags))
	for i, t := range tags {
		results[i] = toTagResponse(*t)
	}
	writeJSON(w, http.StatusOK, results)
}

// GetTag は指定タグを返す。
// GET /api/tags/{id}
func (h *CatalogHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.service.GetTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagResponse(*tag))
}

// CreateTag はタグを登録する。管理者のみ。
// POST /api/tags
func (h *CatalogHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.service.CreateTag(r.Context(), req.Name, req.Color, req.Slug)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTagResponse(*tag))
}

// ListIngredients は食材一覧を返す。nameクエリで前方一致検索する。
// GET /api/ingredients?name=xxx
func (h *CatalogHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.service.ListIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]ingredientResponse, len(ingredients))
	for i, in := range ingredients {
		results[i] = toIngredientResponse(in)
	}
	writeJSON(w, http.StatusOK, results)
}

// GetIngredient は指定食材を返す。
// GET /api/ingredients/{id}
func (h *CatalogHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	ingredient, err := h.service.GetIngredient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponse(ingredient))
}

// CreateIngredient は食材を登録する。管理者のみ。
// POST /api/ingredients
func (h *CatalogHandler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req createIngredientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ingredient, err := h.service.CreateIngredient(r.Context(), req.Name, req.MeasurementUnit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIngredientResponse(ingredient))
}

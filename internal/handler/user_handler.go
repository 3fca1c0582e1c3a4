package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodgram/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context, viewerID string, limit, offset int) ([]user.Profile, int, error)
	Get(ctx context.Context, viewerID, userID string) (*user.Profile, error)
	Subscribe(ctx context.Context, viewerID, authorID string, recipesLimit int) (*user.AuthorSummary, error)
	Unsubscribe(ctx context.Context, viewerID, authorID string) error
	Subscriptions(ctx context.Context, viewerID string, limit, offset, recipesLimit int) ([]user.AuthorSummary, int, error)
	// Withdraw はユーザーを削除する。トークン・フォロー・レシピ・お気に入り・買い物かごは連鎖削除される。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理とフォローのHTTPハンドラー。
type UserHandler struct {
	service  UserServiceInterface
	baseURL  string
	pageSize int
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, baseURL string, pageSize int) *UserHandler {
	return &UserHandler{
		service:  service,
		baseURL:  baseURL,
		pageSize: pageSize,
	}
}

// List はユーザー一覧をページ分割して返す。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r, h.pageSize)
	profiles, count, err := h.service.List(r.Context(), viewerID(r), p.Limit, p.Offset())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userResponse, len(profiles))
	for i, profile := range profiles {
		results[i] = toProfileResponse(profile)
	}
	writeJSON(w, http.StatusOK, newPageResponse(h.baseURL, r, p, count, results))
}

// Me はログイン中のユーザー情報を返す。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u, false))
}

// Get は指定ユーザーの情報を返す。
// GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context(), viewerID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(*profile))
}

// Subscribe は指定ユーザーをフォローし、投稿者の概要を返す。
// POST /api/users/{id}/subscribe?recipes_limit=N
func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	summary, err := h.service.Subscribe(r.Context(), u.ID, chi.URLParam(r, "id"), recipesLimit(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(h.baseURL, *summary))
}

// Unsubscribe は指定ユーザーのフォローを解除する。
// DELETE /api/users/{id}/subscribe
func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	if err := h.service.Unsubscribe(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscriptions はフォロー中の投稿者一覧をページ分割して返す。
// GET /api/users/subscriptions?recipes_limit=N
func (h *UserHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	p := parsePage(r, h.pageSize)
	summaries, count, err := h.service.Subscriptions(r.Context(), u.ID, p.Limit, p.Offset(), recipesLimit(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]subscriptionResponse, len(summaries))
	for i, s := range summaries {
		results[i] = toSubscriptionResponse(h.baseURL, s)
	}
	writeJSON(w, http.StatusOK, newPageResponse(h.baseURL, r, p, count, results))
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}

	if err := h.service.Withdraw(r.Context(), u.ID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recipesLimit はrecipes_limitクエリを読み取る。未指定・不正値は0（全件）。
func recipesLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("recipes_limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/foodgram/internal/middleware"
	"github.com/hitoshi/foodgram/internal/model"
)

// maxJSONBodyBytes はJSONリクエストボディの上限。画像のdata URLを含むため大きめに取る。
const maxJSONBodyBytes = 16 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをvにデコードする。失敗時は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(v); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// currentUser は認証済みユーザーを返す。未認証の場合は401を書き込みnilを返す。
func currentUser(w http.ResponseWriter, r *http.Request) *model.User {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	}
	return user
}

// viewerID は閲覧者のユーザーIDを返す。匿名の場合は空文字列。
func viewerID(r *http.Request) string {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeNotRecipeAuthor:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeTagNotFound,
		model.ErrCodeIngredientNotFound, model.ErrCodeRecipeNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeValidation, model.ErrCodeInvalidCredentials,
		model.ErrCodeUserAlreadyExists, model.ErrCodeAlreadySubscribed, model.ErrCodeSelfSubscription,
		model.ErrCodeNotSubscribed, model.ErrCodeTagAlreadyExists, model.ErrCodeIngredientAlreadyExists,
		model.ErrCodeRecipeAlreadyExists, model.ErrCodeAlreadyFavorited, model.ErrCodeNotFavorited,
		model.ErrCodeAlreadyInCart, model.ErrCodeNotInCart, model.ErrCodeInvalidListFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

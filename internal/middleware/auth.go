// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/foodgram/internal/model"
)

const tokenScheme = "Token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
	userContextKey = contextKey("user")
	// tokenContextKey はリクエストコンテキストに提示されたトークンを格納するためのキー。
	tokenContextKey = contextKey("token")
)

// Authenticator はトークンからユーザーを解決するインターフェース。
// 無効・期限切れのトークンにはnil, nilを返す。
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*model.User, error)
}

// TokenAuth は Authorization: Token <key> ヘッダーによる認証ミドルウェア群。
type TokenAuth struct {
	authenticator Authenticator
}

// NewTokenAuth はTokenAuthの新しいインスタンスを生成する。
func NewTokenAuth(authenticator Authenticator) *TokenAuth {
	return &TokenAuth{authenticator: authenticator}
}

// Optional はトークンが提示された場合のみ認証するミドルウェアを返す。
// ヘッダーが無ければ匿名として通過させ、無効なトークンには401を返す。
func (a *TokenAuth) Optional() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. ヘッダーからトークンを取得
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			key, ok := parseToken(header)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. トークンの有効性を検証
			user, err := a.authenticator.Authenticate(r.Context(), key)
			if err != nil {
				slog.Error("failed to authenticate token",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. 認証済みユーザーをコンテキストに注入
			annotateRequestLog(r.Context(), user.ID)
			ctx := ContextWithUser(r.Context(), user)
			ctx = context.WithValue(ctx, tokenContextKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Required は認証済みユーザーのみ通過させるミドルウェアを返す。
// 未認証リクエストには401 Unauthorizedを返す。
func (a *TokenAuth) Required() func(next http.Handler) http.Handler {
	optional := a.Optional()
	return func(next http.Handler) http.Handler {
		return optional(RequireUser(next))
	}
}

// Admin は管理者のみ通過させるミドルウェアを返す。
// 未認証には401、管理者以外には403を返す。
func (a *TokenAuth) Admin() func(next http.Handler) http.Handler {
	optional := a.Optional()
	return func(next http.Handler) http.Handler {
		return optional(RequireAdmin(next))
	}
}

// RequireUser はOptionalで注入済みのユーザーが無いリクエストに401を返す。
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin は未認証に401、管理者以外に403を返す。
func RequireAdmin(next http.Handler) http.Handler {
	return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !UserFromContext(r.Context()).IsAdmin {
			WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// parseToken は "Token <key>" 形式のヘッダー値からキーを取り出す。スキーム名は大文字小文字を区別しない。
func parseToken(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, tokenScheme) {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", false
	}
	return key, true
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。匿名の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	user := UserFromContext(ctx)
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return user.ID, nil
}

// TokenFromContext はリクエストで提示されたトークンのキーを返す。
func TokenFromContext(ctx context.Context) string {
	key, _ := ctx.Value(tokenContextKey).(string)
	return key
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

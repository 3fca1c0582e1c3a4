// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, recipe, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
	ErrCodeValidation              = "VALIDATION_FAILED"
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeUserAlreadyExists       = "USER_ALREADY_EXISTS"
	ErrCodeUserNotFound            = "USER_NOT_FOUND"
	ErrCodeAlreadySubscribed       = "ALREADY_SUBSCRIBED"
	ErrCodeSelfSubscription        = "SELF_SUBSCRIPTION"
	ErrCodeNotSubscribed           = "NOT_SUBSCRIBED"
	ErrCodeTagNotFound             = "TAG_NOT_FOUND"
	ErrCodeTagAlreadyExists        = "TAG_ALREADY_EXISTS"
	ErrCodeIngredientNotFound      = "INGREDIENT_NOT_FOUND"
	ErrCodeIngredientAlreadyExists = "INGREDIENT_ALREADY_EXISTS"
	ErrCodeRecipeNotFound          = "RECIPE_NOT_FOUND"
	ErrCodeRecipeAlreadyExists     = "RECIPE_ALREADY_EXISTS"
	ErrCodeNotRecipeAuthor         = "NOT_RECIPE_AUTHOR"
	ErrCodeAlreadyFavorited        = "ALREADY_FAVORITED"
	ErrCodeNotFavorited            = "NOT_FAVORITED"
	ErrCodeAlreadyInCart           = "ALREADY_IN_CART"
	ErrCodeNotInCart               = "NOT_IN_CART"
	ErrCodeInvalidListFormat       = "INVALID_LIST_FORMAT"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてトークンを取得してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s: %s", field, reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUserAlreadyExistsError はメールアドレスまたはユーザー名の重複エラーを生成する。
func NewUserAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserAlreadyExists,
		Message:  "このメールアドレスまたはユーザー名は既に使用されています。",
		Category: "user",
		Action:   "別のメールアドレスまたはユーザー名を指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewAlreadySubscribedError は既にフォロー済みの投稿者を再度フォローした場合のエラーを生成する。
func NewAlreadySubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySubscribed,
		Message:  "既にこのユーザーをフォローしています。",
		Category: "user",
		Action:   "フォロー一覧を確認してください。",
	}
}

// NewSelfSubscriptionError は自分自身をフォローしようとした場合のエラーを生成する。
func NewSelfSubscriptionError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfSubscription,
		Message:  "自分自身をフォローすることはできません。",
		Category: "user",
		Action:   "他のユーザーを指定してください。",
	}
}

// NewNotSubscribedError はフォローしていない投稿者のフォロー解除エラーを生成する。
func NewNotSubscribedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotSubscribed,
		Message:  "このユーザーをフォローしていません。",
		Category: "user",
		Action:   "フォロー一覧を確認してください。",
	}
}

// NewTagNotFoundError はタグ未検出エラーを生成する。
func NewTagNotFoundError(tagID string) *APIError {
	return &APIError{
		Code:     ErrCodeTagNotFound,
		Message:  fmt.Sprintf("指定されたタグが見つかりません: %s", tagID),
		Category: "recipe",
		Action:   "タグIDを確認してください。",
	}
}

// NewTagAlreadyExistsError はタグの重複エラーを生成する。
func NewTagAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeTagAlreadyExists,
		Message:  "同じ名前・色・スラッグのタグが既に存在します。",
		Category: "recipe",
		Action:   "別の値を指定してください。",
	}
}

// NewIngredientNotFoundError は食材未検出エラーを生成する。
func NewIngredientNotFoundError(ingredientID string) *APIError {
	return &APIError{
		Code:     ErrCodeIngredientNotFound,
		Message:  fmt.Sprintf("指定された食材が見つかりません: %s", ingredientID),
		Category: "recipe",
		Action:   "食材IDを確認してください。",
	}
}

// NewIngredientAlreadyExistsError は食材の重複エラーを生成する。
func NewIngredientAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeIngredientAlreadyExists,
		Message:  "同じ名前と単位の食材が既に存在します。",
		Category: "recipe",
		Action:   "既存の食材を利用してください。",
	}
}

// NewRecipeNotFoundError はレシピ未検出エラーを生成する。
func NewRecipeNotFoundError(recipeID string) *APIError {
	return &APIError{
		Code:     ErrCodeRecipeNotFound,
		Message:  fmt.Sprintf("指定されたレシピが見つかりません: %s", recipeID),
		Category: "recipe",
		Action:   "レシピIDを確認してください。",
	}
}

// NewRecipeAlreadyExistsError は同一作者による同名レシピの重複エラーを生成する。
func NewRecipeAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeRecipeAlreadyExists,
		Message:  "同じ名前のレシピを既に公開しています。",
		Category: "recipe",
		Action:   "レシピ名を変更してください。",
	}
}

// NewNotRecipeAuthorError は作者以外によるレシピ変更エラーを生成する。
func NewNotRecipeAuthorError() *APIError {
	return &APIError{
		Code:     ErrCodeNotRecipeAuthor,
		Message:  "レシピを変更できるのは作者のみです。",
		Category: "recipe",
		Action:   "自分のレシピのみ編集・削除できます。",
	}
}

// NewAlreadyFavoritedError はお気に入り登録済みエラーを生成する。
func NewAlreadyFavoritedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyFavorited,
		Message:  "レシピは既にお気に入りに追加されています。",
		Category: "recipe",
		Action:   "お気に入り一覧を確認してください。",
	}
}

// NewNotFavoritedError はお気に入り未登録レシピの削除エラーを生成する。
func NewNotFavoritedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFavorited,
		Message:  "レシピはお気に入りに追加されていません。",
		Category: "recipe",
		Action:   "お気に入り一覧を確認してください。",
	}
}

// NewAlreadyInCartError は買い物かご追加済みエラーを生成する。
func NewAlreadyInCartError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyInCart,
		Message:  "レシピは既に買い物かごに追加されています。",
		Category: "recipe",
		Action:   "買い物かごを確認してください。",
	}
}

// NewNotInCartError は買い物かごに無いレシピの削除エラーを生成する。
func NewNotInCartError() *APIError {
	return &APIError{
		Code:     ErrCodeNotInCart,
		Message:  "レシピは買い物かごに追加されていません。",
		Category: "recipe",
		Action:   "買い物かごを確認してください。",
	}
}

// NewInvalidListFormatError は未対応の買い物リスト形式エラーを生成する。
func NewInvalidListFormatError(format string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidListFormat,
		Message:  fmt.Sprintf("未対応の出力形式です: %s", format),
		Category: "validation",
		Action:   "format には txt または pdf を指定してください。",
	}
}

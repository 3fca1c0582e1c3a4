// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/foodgram/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。email・usernameが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// List はユーザー一覧を登録順に返す。
	List(ctx context.Context, limit, offset int) ([]*model.User, error)

	// Count はユーザー総数を返す。
	Count(ctx context.Context) (int, error)

	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するトークン、フォロー、レシピ、お気に入り、買い物かごはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// TokenRepository は認証トークンの永続化インターフェース。
type TokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.AuthToken) error
	// FindValid は有効期限内のトークンを取得する。期限切れまたは存在しない場合はnilを返す。
	FindValid(ctx context.Context, key string) (*model.AuthToken, error)
	// DeleteByKey は指定キーのトークンを削除する。
	DeleteByKey(ctx context.Context, key string) error
	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// FollowRepository はフォロー関係の永続化インターフェース。
type FollowRepository interface {
	// Exists はsubscriberIDがauthorIDをフォローしているかを返す。
	Exists(ctx context.Context, subscriberID, authorID string) (bool, error)

	// Create はフォローを作成する。重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, follow *model.Follow) error

	// Delete はフォローを削除する。削除対象が存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, subscriberID, authorID string) (bool, error)

	// ListAuthors はsubscriberIDがフォローしている投稿者をユーザー名順に返す。
	ListAuthors(ctx context.Context, subscriberID string, limit, offset int) ([]*model.User, error)

	// CountAuthors はsubscriberIDがフォローしている投稿者数を返す。
	CountAuthors(ctx context.Context, subscriberID string) (int, error)

	// FollowedAmong はauthorIDsのうちsubscriberIDがフォローしているIDの集合を返す。
	FollowedAmong(ctx context.Context, subscriberID string, authorIDs []string) (map[string]bool, error)
}

// TagRepository はタグの永続化インターフェース。
type TagRepository interface {
	// List はタグ一覧を名前順に返す。
	List(ctx context.Context) ([]*model.Tag, error)
	// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tag, error)
	// FindByIDs は指定ID群のうち存在するタグを返す。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Tag, error)
	// Create はタグを作成する。name・color・slugが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, tag *model.Tag) error
}

// IngredientRepository は食材カタログの永続化インターフェース。
type IngredientRepository interface {
	// List は食材一覧を名前順に返す。namePrefixが空でなければ前方一致（大文字小文字無視）で絞り込む。
	List(ctx context.Context, namePrefix string) ([]*model.Ingredient, error)
	// FindByID は指定IDの食材を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Ingredient, error)
	// FindByIDs は指定ID群のうち存在する食材を返す。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Ingredient, error)
	// Create は食材を作成する。(name, measurement_unit) が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, ingredient *model.Ingredient) error
	// GetOrCreate は (name, measurement_unit) の食材を返し、存在しなければ作成する。
	// 作成した場合はcreatedがtrueになる。
	GetOrCreate(ctx context.Context, name, unit string) (ingredient *model.Ingredient, created bool, err error)
}

// RecipeRepository はレシピの永続化インターフェース。
// List・FindByIDは画像バイナリを読み込まない。画像はFindImageで取得する。
type RecipeRepository interface {
	// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Recipe, error)

	// FindImage はレシピ画像のバイナリとMIMEタイプを返す。レシピが存在しない場合はnilを返す。
	FindImage(ctx context.Context, id string) ([]byte, string, error)

	// List はフィルタ条件に一致するレシピを新しい順に返す。
	List(ctx context.Context, filter model.RecipeFilter) ([]*model.Recipe, error)

	// Count はフィルタ条件に一致するレシピ数を返す。Limit・Offsetは無視される。
	Count(ctx context.Context, filter model.RecipeFilter) (int, error)

	// Create はレシピ本体・タグ・材料行を同一トランザクションで作成する。
	// 同じ作者の同名レシピが存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, recipe *model.Recipe, tagIDs []string, lines []model.IngredientLine) error

	// Update はレシピ本体を更新し、tagIDs・linesがnilでなければ同一トランザクションで置き換える。
	// recipe.ImageDataが空の場合は既存の画像を維持する。
	Update(ctx context.Context, recipe *model.Recipe, tagIDs []string, lines []model.IngredientLine) error

	// Delete は指定IDのレシピを削除する。材料行・タグ・お気に入り・買い物かごはCASCADE削除される。
	Delete(ctx context.Context, id string) error

	// TagsByRecipeIDs はレシピIDごとのタグ一覧を返す。
	TagsByRecipeIDs(ctx context.Context, recipeIDs []string) (map[string][]model.Tag, error)

	// IngredientsByRecipeIDs はレシピIDごとの材料行（食材情報付き）を返す。
	IngredientsByRecipeIDs(ctx context.Context, recipeIDs []string) (map[string][]model.RecipeIngredient, error)

	// CountByAuthors は投稿者IDごとのレシピ数を返す。
	CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error)
}

// RecipeMarkRepository はユーザーとレシピの関連（お気に入り・買い物かご）の永続化インターフェース。
type RecipeMarkRepository interface {
	// Exists はuserIDがrecipeIDを登録済みかを返す。
	Exists(ctx context.Context, userID, recipeID string) (bool, error)
	// Add は関連を作成する。重複する場合はErrDuplicateを返す。
	Add(ctx context.Context, userID, recipeID string) error
	// Remove は関連を削除する。削除対象が存在しなかった場合はfalseを返す。
	Remove(ctx context.Context, userID, recipeID string) (bool, error)
	// MarkedAmong はrecipeIDsのうちuserIDが登録済みのIDの集合を返す。
	MarkedAmong(ctx context.Context, userID string, recipeIDs []string) (map[string]bool, error)
}

// FavoriteRepository はお気に入りの永続化インターフェース。
type FavoriteRepository interface {
	RecipeMarkRepository
}

// CartRepository は買い物かごの永続化インターフェース。
// 買い物リスト集計のための読み取り操作を含む。
type CartRepository interface {
	RecipeMarkRepository

	// ListRecipeIDsByUser はユーザーの買い物かごに入っているレシピIDを追加順に返す。
	ListRecipeIDsByUser(ctx context.Context, userID string) ([]string, error)

	// ListLinesByRecipeIDs は指定レシピの材料行を食材情報と結合して返す。
	// 食材を解決できない行はResolved=falseで返し、除外しない。
	ListLinesByRecipeIDs(ctx context.Context, recipeIDs []string) ([]model.ShoppingLine, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

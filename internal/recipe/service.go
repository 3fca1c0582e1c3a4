// Package recipe はレシピの公開・編集と、お気に入り・買い物かごの管理を提供する。
package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

const maxNameLength = 256

// Sanitizer はレシピ本文のサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// CreationRecorder はレシピ作成の記録インターフェース。
type CreationRecorder interface {
	RecordRecipeCreated()
}

// Limits はレシピ入力値の範囲設定。
type Limits struct {
	MinIngredientAmount int
	MaxIngredientAmount int
	MinCookingTime      int
	MaxCookingTime      int
	ImageMaxBytes       int
}

// IngredientInput はレシピに含める食材と数量。
type IngredientInput struct {
	ID     string
	Amount int
}

// Input はレシピの作成・更新内容。
// Imageはdata URL形式で、更新時に空の場合は既存の画像を維持する。
type Input struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	TagIDs      []string
	Ingredients []IngredientInput
}

// Deps はServiceが利用するリポジトリ群。
type Deps struct {
	Recipes     repository.RecipeRepository
	Tags        repository.TagRepository
	Ingredients repository.IngredientRepository
	Users       repository.UserRepository
	Follows     repository.FollowRepository
	Favorites   repository.FavoriteRepository
	Cart        repository.CartRepository
	Sanitizer   Sanitizer
	Recorder    CreationRecorder
}

// Service はレシピ管理のサービス層。
type Service struct {
	Deps
	limits Limits
	now    func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(deps Deps, limits Limits) *Service {
	return &Service{Deps: deps, limits: limits, now: time.Now}
}

// List はフィルタ条件に一致するレシピを閲覧者向けの詳細付きで返す。
// 閲覧者が匿名の場合、お気に入り・買い物かごの絞り込みは無視される。
func (s *Service) List(ctx context.Context, viewerID string, filter model.RecipeFilter) ([]model.RecipeDetail, int, error) {
	filter.ViewerID = viewerID
	if viewerID == "" {
		filter.FavoritedOnly = false
		filter.InCartOnly = false
	}
	// UUID形式でない作者IDに一致するレシピは存在しない
	if filter.AuthorID != "" && !model.ValidID(filter.AuthorID) {
		return []model.RecipeDetail{}, 0, nil
	}

	total, err := s.Recipes.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("レシピ数の取得に失敗しました: %w", err)
	}
	recipes, err := s.Recipes.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}
	details, err := s.details(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// Get は指定レシピを閲覧者向けの詳細付きで返す。
func (s *Service) Get(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error) {
	r, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	details, err := s.details(ctx, viewerID, []*model.Recipe{r})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Image はレシピ画像のバイナリとMIMEタイプを返す。
func (s *Service) Image(ctx context.Context, recipeID string) ([]byte, string, error) {
	if !model.ValidID(recipeID) {
		return nil, "", model.NewRecipeNotFoundError(recipeID)
	}
	data, mime, err := s.Recipes.FindImage(ctx, recipeID)
	if err != nil {
		return nil, "", fmt.Errorf("レシピ画像の取得に失敗しました: %w", err)
	}
	if len(data) == 0 {
		return nil, "", model.NewRecipeNotFoundError(recipeID)
	}
	return data, mime, nil
}

// Create はレシピを公開する。画像は必須。
func (s *Service) Create(ctx context.Context, author *model.User, in Input) (*model.RecipeDetail, error) {
	if strings.TrimSpace(in.Image) == "" {
		return nil, model.NewValidationError("image", "画像は必須です")
	}
	r, lines, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r.ID = uuid.New().String()
	r.AuthorID = author.ID
	r.CreatedAt = now
	r.UpdatedAt = now
	for i := range lines {
		lines[i].RecipeID = r.ID
	}

	if err := s.Recipes.Create(ctx, r, in.TagIDs, lines); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewRecipeAlreadyExistsError()
		}
		return nil, fmt.Errorf("レシピの作成に失敗しました: %w", err)
	}
	if s.Recorder != nil {
		s.Recorder.RecordRecipeCreated()
	}

	slog.Info("recipe created",
		slog.String("recipe_id", r.ID),
		slog.String("author_id", author.ID),
		slog.Int("ingredients", len(lines)),
	)
	return s.Get(ctx, author.ID, r.ID)
}

// Update はレシピを更新する。作者以外は変更できない。
// タグと材料行は入力内容で置き換えられる。
func (s *Service) Update(ctx context.Context, editor *model.User, recipeID string, in Input) (*model.RecipeDetail, error) {
	current, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if current.AuthorID != editor.ID {
		return nil, model.NewNotRecipeAuthorError()
	}

	r, lines, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	r.ID = current.ID
	r.AuthorID = current.AuthorID
	r.CreatedAt = current.CreatedAt
	r.UpdatedAt = s.now()
	for i := range lines {
		lines[i].RecipeID = r.ID
	}

	if err := s.Recipes.Update(ctx, r, in.TagIDs, lines); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewRecipeAlreadyExistsError()
		}
		return nil, fmt.Errorf("レシピの更新に失敗しました: %w", err)
	}

	slog.Info("recipe updated", slog.String("recipe_id", r.ID))
	return s.Get(ctx, editor.ID, r.ID)
}

// Delete はレシピを削除する。作者または管理者のみ削除できる。
func (s *Service) Delete(ctx context.Context, user *model.User, recipeID string) error {
	r, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if r.AuthorID != user.ID && !user.IsAdmin {
		return model.NewNotRecipeAuthorError()
	}
	if err := s.Recipes.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}

	slog.Info("recipe deleted",
		slog.String("recipe_id", recipeID),
		slog.String("user_id", user.ID),
	)
	return nil
}

// AddFavorite はレシピをお気に入りに追加する。
func (s *Service) AddFavorite(ctx context.Context, userID, recipeID string) (*model.Recipe, error) {
	return s.mark(ctx, s.Favorites, userID, recipeID, model.NewAlreadyFavoritedError)
}

// RemoveFavorite はレシピをお気に入りから外す。
func (s *Service) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	return s.unmark(ctx, s.Favorites, userID, recipeID, model.NewNotFavoritedError)
}

// AddToCart はレシピを買い物かごに追加する。
func (s *Service) AddToCart(ctx context.Context, userID, recipeID string) (*model.Recipe, error) {
	return s.mark(ctx, s.Cart, userID, recipeID, model.NewAlreadyInCartError)
}

// RemoveFromCart はレシピを買い物かごから外す。
func (s *Service) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	return s.unmark(ctx, s.Cart, userID, recipeID, model.NewNotInCartError)
}

func (s *Service) mark(
	ctx context.Context,
	marks repository.RecipeMarkRepository,
	userID, recipeID string,
	already func() *model.APIError,
) (*model.Recipe, error) {
	r, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	exists, err := marks.Exists(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("登録状態の取得に失敗しました: %w", err)
	}
	if exists {
		return nil, already()
	}
	if err := marks.Add(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, already()
		}
		return nil, fmt.Errorf("登録に失敗しました: %w", err)
	}
	return r, nil
}

func (s *Service) unmark(
	ctx context.Context,
	marks repository.RecipeMarkRepository,
	userID, recipeID string,
	absent func() *model.APIError,
) error {
	if _, err := s.findRecipe(ctx, recipeID); err != nil {
		return err
	}
	removed, err := marks.Remove(ctx, userID, recipeID)
	if err != nil {
		return fmt.Errorf("登録の解除に失敗しました: %w", err)
	}
	if !removed {
		return absent()
	}
	return nil
}

func (s *Service) findRecipe(ctx context.Context, recipeID string) (*model.Recipe, error) {
	if !model.ValidID(recipeID) {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	r, err := s.Recipes.FindByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	if r == nil {
		return nil, model.NewRecipeNotFoundError(recipeID)
	}
	return r, nil
}

// validate は入力を検証し、保存用のレシピ本体と材料行を組み立てる。
func (s *Service) validate(ctx context.Context, in Input) (*model.Recipe, []model.IngredientLine, error) {
	// 1. 本体
	name := strings.TrimSpace(in.Name)
	if name == "" || len([]rune(name)) > maxNameLength {
		return nil, nil, model.NewValidationError("name", "1〜256文字で入力してください")
	}
	text := in.Text
	if s.Sanitizer != nil {
		text = s.Sanitizer.Sanitize(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, model.NewValidationError("text", "作り方を入力してください")
	}
	if in.CookingTime < s.limits.MinCookingTime || in.CookingTime > s.limits.MaxCookingTime {
		return nil, nil, model.NewValidationError("cooking_time",
			fmt.Sprintf("%d〜%dの範囲で指定してください", s.limits.MinCookingTime, s.limits.MaxCookingTime))
	}

	// 2. タグ
	if err := s.validateTags(ctx, in.TagIDs); err != nil {
		return nil, nil, err
	}

	// 3. 材料
	lines, err := s.validateIngredients(ctx, in.Ingredients)
	if err != nil {
		return nil, nil, err
	}

	// 4. 画像
	r := &model.Recipe{Name: name, Text: text, CookingTime: in.CookingTime}
	if strings.TrimSpace(in.Image) != "" {
		data, mime, err := decodeImage(in.Image, s.limits.ImageMaxBytes)
		if err != nil {
			return nil, nil, err
		}
		r.ImageData = data
		r.ImageMime = mime
	}
	return r, lines, nil
}

func (s *Service) validateTags(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return model.NewValidationError("tags", "タグを1つ以上指定してください")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !model.ValidID(id) {
			return model.NewValidationError("tags", fmt.Sprintf("タグIDの形式が不正です: %s", id))
		}
		if seen[id] {
			return model.NewValidationError("tags", "同じタグが重複しています")
		}
		seen[id] = true
	}

	found, err := s.Tags.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	if len(found) == len(ids) {
		return nil
	}
	existing := make(map[string]bool, len(found))
	for _, t := range found {
		existing[t.ID] = true
	}
	for _, id := range ids {
		if !existing[id] {
			return model.NewTagNotFoundError(id)
		}
	}
	return nil
}

func (s *Service) validateIngredients(ctx context.Context, items []IngredientInput) ([]model.IngredientLine, error) {
	if len(items) == 0 {
		return nil, model.NewValidationError("ingredients", "材料を1つ以上指定してください")
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	lines := make([]model.IngredientLine, 0, len(items))
	for _, item := range items {
		if !model.ValidID(item.ID) {
			return nil, model.NewValidationError("ingredients", fmt.Sprintf("食材IDの形式が不正です: %s", item.ID))
		}
		if seen[item.ID] {
			return nil, model.NewValidationError("ingredients", "同じ材料が重複しています")
		}
		seen[item.ID] = true
		if item.Amount < s.limits.MinIngredientAmount || item.Amount > s.limits.MaxIngredientAmount {
			return nil, model.NewValidationError("amount",
				fmt.Sprintf("%d〜%dの範囲で指定してください", s.limits.MinIngredientAmount, s.limits.MaxIngredientAmount))
		}
		ids = append(ids, item.ID)
		lines = append(lines, model.IngredientLine{IngredientID: item.ID, Amount: item.Amount})
	}

	found, err := s.Ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("食材の取得に失敗しました: %w", err)
	}
	if len(found) != len(ids) {
		existing := make(map[string]bool, len(found))
		for _, in := range found {
			existing[in.ID] = true
		}
		for _, id := range ids {
			if !existing[id] {
				return nil, model.NewIngredientNotFoundError(id)
			}
		}
	}
	return lines, nil
}

// details はレシピにタグ・材料・作者と閲覧者ごとのフラグを結合する。
// 匿名閲覧者の場合、フラグはすべてfalseになる。
func (s *Service) details(ctx context.Context, viewerID string, recipes []*model.Recipe) ([]model.RecipeDetail, error) {
	if len(recipes) == 0 {
		return []model.RecipeDetail{}, nil
	}

	ids := make([]string, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	authorSeen := make(map[string]bool)
	for i, r := range recipes {
		ids[i] = r.ID
		if !authorSeen[r.AuthorID] {
			authorSeen[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	// 1. タグと材料
	tags, err := s.Recipes.TagsByRecipeIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	ingredients, err := s.Recipes.IngredientsByRecipeIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("材料の取得に失敗しました: %w", err)
	}

	// 2. 作者
	authors := make(map[string]*model.User, len(authorIDs))
	for _, id := range authorIDs {
		u, err := s.Users.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("作者の取得に失敗しました: %w", err)
		}
		authors[id] = u
	}

	// 3. 閲覧者ごとのフラグ
	favorited := map[string]bool{}
	inCart := map[string]bool{}
	followed := map[string]bool{}
	if viewerID != "" {
		if favorited, err = s.Favorites.MarkedAmong(ctx, viewerID, ids); err != nil {
			return nil, fmt.Errorf("お気に入り状態の取得に失敗しました: %w", err)
		}
		if inCart, err = s.Cart.MarkedAmong(ctx, viewerID, ids); err != nil {
			return nil, fmt.Errorf("買い物かご状態の取得に失敗しました: %w", err)
		}
		if followed, err = s.Follows.FollowedAmong(ctx, viewerID, authorIDs); err != nil {
			return nil, fmt.Errorf("フォロー状態の取得に失敗しました: %w", err)
		}
	}

	out := make([]model.RecipeDetail, len(recipes))
	for i, r := range recipes {
		out[i] = model.RecipeDetail{
			Recipe:           *r,
			Author:           authors[r.AuthorID],
			AuthorSubscribed: followed[r.AuthorID],
			Tags:             tags[r.ID],
			Ingredients:      ingredients[r.ID],
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
		}
	}
	return out, nil
}

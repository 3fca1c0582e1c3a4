// Package user はユーザー管理とフォロー（購読）のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

// TokenRevoker はユーザーのトークン一括削除インターフェース。
type TokenRevoker interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// AuthorRecipeLister は投稿者のレシピ取得インターフェース。
// repository.RecipeRepositoryの部分集合として定義する。
type AuthorRecipeLister interface {
	List(ctx context.Context, filter model.RecipeFilter) ([]*model.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error)
}

// Profile はユーザーと閲覧者から見たフォロー状態。
type Profile struct {
	User         *model.User
	IsSubscribed bool
}

// AuthorSummary はフォロー中の投稿者とそのレシピ概要。
type AuthorSummary struct {
	Profile
	Recipes      []*model.Recipe
	RecipesCount int
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo     repository.UserRepository
	followRepo   repository.FollowRepository
	recipes      AuthorRecipeLister
	tokenRevoker TokenRevoker
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	recipes AuthorRecipeLister,
	tokenRevoker TokenRevoker,
) *Service {
	return &Service{
		userRepo:     userRepo,
		followRepo:   followRepo,
		recipes:      recipes,
		tokenRevoker: tokenRevoker,
	}
}

// profiles は閲覧者のフォロー状態を付与したProfileを返す。
func (s *Service) profiles(ctx context.Context, viewerID string, users []*model.User) ([]Profile, error) {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := s.followRepo.FollowedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("フォロー状態の取得に失敗しました: %w", err)
	}

	out := make([]Profile, len(users))
	for i, u := range users {
		out[i] = Profile{User: u, IsSubscribed: followed[u.ID]}
	}
	return out, nil
}

// List はユーザー一覧と総数を返す。
func (s *Service) List(ctx context.Context, viewerID string, limit, offset int) ([]Profile, int, error) {
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ユーザー数の取得に失敗しました: %w", err)
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	profiles, err := s.profiles(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// Get は指定ユーザーのプロフィールを返す。
func (s *Service) Get(ctx context.Context, viewerID, userID string) (*Profile, error) {
	if !model.ValidID(userID) {
		return nil, model.NewUserNotFoundError()
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	profiles, err := s.profiles(ctx, viewerID, []*model.User{u})
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

// Subscribe はviewerIDがauthorIDをフォローする。
// 自分自身のフォローと重複フォローは拒否する。
func (s *Service) Subscribe(ctx context.Context, viewerID, authorID string, recipesLimit int) (*AuthorSummary, error) {
	if viewerID == authorID {
		return nil, model.NewSelfSubscriptionError()
	}
	if !model.ValidID(authorID) {
		return nil, model.NewUserNotFoundError()
	}

	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewUserNotFoundError()
	}

	exists, err := s.followRepo.Exists(ctx, viewerID, authorID)
	if err != nil {
		return nil, fmt.Errorf("フォロー状態の取得に失敗しました: %w", err)
	}
	if exists {
		return nil, model.NewAlreadySubscribedError()
	}

	follow := &model.Follow{
		ID:           uuid.New().String(),
		SubscriberID: viewerID,
		AuthorID:     authorID,
		CreatedAt:    time.Now(),
	}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewAlreadySubscribedError()
		}
		return nil, fmt.Errorf("フォローの作成に失敗しました: %w", err)
	}

	slog.Info("author subscribed",
		slog.String("user_id", viewerID),
		slog.String("author_id", authorID),
	)

	summaries, err := s.summarize(ctx, []Profile{{User: author, IsSubscribed: true}}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

// Unsubscribe はフォローを解除する。フォローしていない場合はNOT_SUBSCRIBEDを返す。
func (s *Service) Unsubscribe(ctx context.Context, viewerID, authorID string) error {
	if !model.ValidID(authorID) {
		return model.NewUserNotFoundError()
	}
	author, err := s.userRepo.FindByID(ctx, authorID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if author == nil {
		return model.NewUserNotFoundError()
	}

	deleted, err := s.followRepo.Delete(ctx, viewerID, authorID)
	if err != nil {
		return fmt.Errorf("フォローの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewNotSubscribedError()
	}

	slog.Info("author unsubscribed",
		slog.String("user_id", viewerID),
		slog.String("author_id", authorID),
	)
	return nil
}

// Subscriptions はviewerIDがフォローしている投稿者を、レシピ概要付きで返す。
// recipesLimitが0以下の場合は投稿者ごとの全レシピを含める。
func (s *Service) Subscriptions(ctx context.Context, viewerID string, limit, offset, recipesLimit int) ([]AuthorSummary, int, error) {
	total, err := s.followRepo.CountAuthors(ctx, viewerID)
	if err != nil {
		return nil, 0, fmt.Errorf("フォロー数の取得に失敗しました: %w", err)
	}
	authors, err := s.followRepo.ListAuthors(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("フォロー一覧の取得に失敗しました: %w", err)
	}

	profiles := make([]Profile, len(authors))
	for i, a := range authors {
		profiles[i] = Profile{User: a, IsSubscribed: true}
	}
	summaries, err := s.summarize(ctx, profiles, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// summarize は投稿者ごとのレシピ数と新しい順のレシピを付与する。
func (s *Service) summarize(ctx context.Context, profiles []Profile, recipesLimit int) ([]AuthorSummary, error) {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.User.ID
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("レシピ数の取得に失敗しました: %w", err)
	}

	out := make([]AuthorSummary, len(profiles))
	for i, p := range profiles {
		limit := recipesLimit
		if limit < 0 {
			limit = 0
		}
		recipes, err := s.recipes.List(ctx, model.RecipeFilter{AuthorID: p.User.ID, Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("投稿者のレシピ取得に失敗しました: %w", err)
		}
		out[i] = AuthorSummary{Profile: p, Recipes: recipes, RecipesCount: counts[p.User.ID]}
	}
	return out, nil
}

// Withdraw はユーザーの退会処理を実行する。
// トークンを失効させた後にユーザーを削除し、フォロー・レシピ・お気に入り・買い物かごはCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します", slog.String("user_id", userID))

	// 1. トークンを削除
	if s.tokenRevoker != nil {
		if err := s.tokenRevoker.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("トークンの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", userID))
	return nil
}

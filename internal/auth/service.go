// Package auth はユーザー登録、パスワード認証、APIトークン管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcryptの入力上限
	maxNameLength     = 150
	maxEmailLength    = 254
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenMaxAge time.Duration // トークン有効期間
	BcryptCost  int           // 0の場合はbcrypt.DefaultCost
}

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		config:    config,
	}
}

// Register はユーザーを登録する。
// メールアドレスまたはユーザー名が既に使われている場合はUSER_ALREADY_EXISTSを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	// 1. 入力値検証
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	// 2. パスワードをハッシュ化
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. ユーザーを作成
	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewUserAlreadyExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// validateRegistration は登録内容を検証する。
func validateRegistration(in RegisterInput) error {
	if in.Email == "" {
		return model.NewValidationError("email", "必須項目です")
	}
	if len(in.Email) > maxEmailLength {
		return model.NewValidationError("email", "長すぎます")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return model.NewValidationError("email", "メールアドレスの形式が正しくありません")
	}
	if in.Username == "" {
		return model.NewValidationError("username", "必須項目です")
	}
	if len([]rune(in.Username)) > maxNameLength {
		return model.NewValidationError("username", "長すぎます")
	}
	if !usernamePattern.MatchString(in.Username) || strings.EqualFold(in.Username, "me") {
		return model.NewValidationError("username", "使用できない文字が含まれています")
	}
	if in.FirstName == "" {
		return model.NewValidationError("first_name", "必須項目です")
	}
	if in.LastName == "" {
		return model.NewValidationError("last_name", "必須項目です")
	}
	if len([]rune(in.FirstName)) > maxNameLength || len([]rune(in.LastName)) > maxNameLength {
		return model.NewValidationError("name", "長すぎます")
	}
	return validatePassword("password", in.Password)
}

// validatePassword はパスワードの長さと構成を検証する。
func validatePassword(field, password string) error {
	if len(password) < minPasswordLength {
		return model.NewValidationError(field, fmt.Sprintf("%d文字以上で入力してください", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return model.NewValidationError(field, fmt.Sprintf("%dバイト以下で入力してください", maxPasswordLength))
	}
	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return model.NewValidationError(field, "数字のみのパスワードは使用できません")
	}
	return nil
}

// Login はメールアドレスとパスワードを検証し、新しいトークンを発行する。
func (s *Service) Login(ctx context.Context, email, password string) (*model.AuthToken, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.createToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return token, nil
}

// Logout は提示されたトークンを破棄する。
func (s *Service) Logout(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("token key is required")
	}
	if err := s.tokenRepo.DeleteByKey(ctx, key); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	slog.Info("user logged out")
	return nil
}

// Authenticate はトークンから現在のユーザーを取得する。
// トークンが無効・期限切れ、またはユーザーが存在しない場合はnilを返す。
func (s *Service) Authenticate(ctx context.Context, key string) (*model.User, error) {
	if key == "" {
		return nil, nil
	}

	token, err := s.tokenRepo.FindValid(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	if token == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SetPassword は現在のパスワードを検証したうえでパスワードを変更する。
// 変更後は既存のトークンをすべて失効させる。
func (s *Service) SetPassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return model.NewValidationError("current_password", "現在のパスワードが正しくありません")
	}
	if err := validatePassword("new_password", newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	slog.Info("password changed", slog.String("user_id", userID))
	return nil
}

// createToken はトークンを作成し永続化する。
func (s *Service) createToken(ctx context.Context, userID string) (*model.AuthToken, error) {
	key, err := generateTokenKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token key: %w", err)
	}

	now := time.Now()
	token := &model.AuthToken{
		Key:       key,
		UserID:    userID,
		ExpiresAt: now.Add(s.config.TokenMaxAge),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return token, nil
}

// generateTokenKey は暗号的に安全なトークンキーを生成する。
func generateTokenKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Auth
	TokenMaxAge          time.Duration
	TokenCleanupInterval time.Duration

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitWrite   int

	// Pagination
	PageSize int

	// Shopping list
	ShoppingCartFilename string
	ShoppingListFormat   string
	ShoppingListLocale   string
	ShoppingListFontPath string

	// Recipe validation
	MinIngredientAmount int
	MaxIngredientAmount int
	MinCookingTime      int
	MaxCookingTime      int
	RecipeImageMaxBytes int

	// Catalog import
	IngredientsCSVPath string

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または数値の範囲設定が矛盾する場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = strings.TrimRight(os.Getenv("BASE_URL"), "/")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenMaxAge = getEnvDuration("TOKEN_MAX_AGE", 30*24*time.Hour)
	cfg.TokenCleanupInterval = getEnvDuration("TOKEN_CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 30)
	cfg.PageSize = getEnvInt("PAGE_SIZE", 6)
	cfg.ShoppingCartFilename = getEnvString("SHOPPING_CART_FILENAME", "shopping_list.txt")
	cfg.ShoppingListFormat = strings.ToLower(getEnvString("SHOPPING_LIST_FORMAT", "txt"))
	cfg.ShoppingListLocale = getEnvString("SHOPPING_LIST_LOCALE", "ru")
	cfg.ShoppingListFontPath = getEnvString("SHOPPING_LIST_FONT_PATH", "")
	cfg.MinIngredientAmount = getEnvInt("MIN_INGREDIENT_AMOUNT", 1)
	cfg.MaxIngredientAmount = getEnvInt("MAX_INGREDIENT_AMOUNT", 32000)
	cfg.MinCookingTime = getEnvInt("MIN_COOKING_TIME", 1)
	cfg.MaxCookingTime = getEnvInt("MAX_COOKING_TIME", 32000)
	cfg.RecipeImageMaxBytes = getEnvInt("RECIPE_IMAGE_MAX_BYTES", 5242880)
	cfg.IngredientsCSVPath = getEnvString("INGREDIENTS_CSV_PATH", "data/ingredients.csv")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は範囲設定の整合性を検証する。
func (c *Config) validate() error {
	if c.MinIngredientAmount < 1 || c.MinIngredientAmount > c.MaxIngredientAmount {
		return fmt.Errorf("invalid ingredient amount bounds: min=%d max=%d", c.MinIngredientAmount, c.MaxIngredientAmount)
	}
	if c.MinCookingTime < 1 || c.MinCookingTime > c.MaxCookingTime {
		return fmt.Errorf("invalid cooking time bounds: min=%d max=%d", c.MinCookingTime, c.MaxCookingTime)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page size: %d", c.PageSize)
	}
	switch c.ShoppingListFormat {
	case "txt", "pdf":
	default:
		return fmt.Errorf("invalid shopping list format: %s", c.ShoppingListFormat)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

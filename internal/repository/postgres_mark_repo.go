package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

// postgresMarkRepo はユーザーとレシピの関連テーブルを扱う共通実装。
// tableはパッケージ内の定数のみを受け付ける。
type postgresMarkRepo struct {
	db    *sql.DB
	table string
}

// Exists はuserIDがrecipeIDを登録済みかを返す。
func (r *postgresMarkRepo) Exists(ctx context.Context, userID, recipeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.table+` WHERE user_id = $1 AND recipe_id = $2)`,
		userID, recipeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", r.table, err)
	}
	return exists, nil
}

// Add は関連を作成する。
func (r *postgresMarkRepo) Add(ctx context.Context, userID, recipeID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.table+` (id, user_id, recipe_id) VALUES ($1, $2, $3)`,
		uuid.New().String(), userID, recipeID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}
	return nil
}

// Remove は関連を削除する。
func (r *postgresMarkRepo) Remove(ctx context.Context, userID, recipeID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM `+r.table+` WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", r.table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkedAmong はrecipeIDsのうちuserIDが登録済みのIDの集合を返す。
func (r *postgresMarkRepo) MarkedAmong(ctx context.Context, userID string, recipeIDs []string) (map[string]bool, error) {
	marked := make(map[string]bool)
	if userID == "" || len(recipeIDs) == 0 {
		return marked, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM `+r.table+` WHERE user_id = $1 AND recipe_id = ANY($2)`,
		userID, pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
		}
		marked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", r.table, err)
	}
	return marked, nil
}

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	postgresMarkRepo
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{postgresMarkRepo{db: db, table: "favorites"}}
}

// PostgresCartRepo はPostgreSQLを使用した買い物かごリポジトリ。
type PostgresCartRepo struct {
	postgresMarkRepo
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{postgresMarkRepo{db: db, table: "shopping_cart"}}
}

// ListRecipeIDsByUser はユーザーの買い物かごに入っているレシピIDを追加順に返す。
func (r *PostgresCartRepo) ListRecipeIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM shopping_cart WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("買い物かごの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("買い物かご行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("買い物かごの走査に失敗しました: %w", err)
	}
	return ids, nil
}

// ListLinesByRecipeIDs は指定レシピの材料行を食材情報と結合して返す。
// 食材をLEFT JOINし、解決できない行はResolved=falseとして残す。
func (r *PostgresCartRepo) ListLinesByRecipeIDs(ctx context.Context, recipeIDs []string) ([]model.ShoppingLine, error) {
	if len(recipeIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT ri.recipe_id, ri.ingredient_id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri
		 LEFT JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ANY($1)
		 ORDER BY ri.recipe_id, ri.id`,
		pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("材料行の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var lines []model.ShoppingLine
	for rows.Next() {
		var line model.ShoppingLine
		var name, unit sql.NullString
		if err := rows.Scan(&line.RecipeID, &line.IngredientID, &name, &unit, &line.Amount); err != nil {
			return nil, fmt.Errorf("材料行の読み取りに失敗しました: %w", err)
		}
		line.Name = name.String
		line.MeasurementUnit = unit.String
		line.Resolved = name.Valid && unit.Valid
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("材料行の走査に失敗しました: %w", err)
	}
	return lines, nil
}

// compile-time interface check
var (
	_ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
	_ CartRepository     = (*PostgresCartRepo)(nil)
)

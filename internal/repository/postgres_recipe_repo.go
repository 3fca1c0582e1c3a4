package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.cooking_time, r.image_mime, r.created_at, r.updated_at`

// PostgresRecipeRepo はPostgreSQLを使用したレシピリポジトリ。
type PostgresRecipeRepo struct {
	db *sql.DB
}

// NewPostgresRecipeRepo はPostgresRecipeRepoを生成する。
func NewPostgresRecipeRepo(db *sql.DB) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{db: db}
}

func scanRecipe(row rowScanner) (*model.Recipe, error) {
	rc := &model.Recipe{}
	err := row.Scan(&rc.ID, &rc.AuthorID, &rc.Name, &rc.Text, &rc.CookingTime,
		&rc.ImageMime, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	rc, err := scanRecipe(r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レシピの取得に失敗しました: %w", err)
	}
	return rc, nil
}

// FindImage はレシピ画像のバイナリとMIMEタイプを返す。
func (r *PostgresRecipeRepo) FindImage(ctx context.Context, id string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(image_data, ''::bytea), image_mime FROM recipes WHERE id = $1`,
		id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("レシピ画像の取得に失敗しました: %w", err)
	}
	return data, mime, nil
}

// buildRecipeWhere はフィルタ条件からWHERE句と引数を組み立てる。
// 閲覧者が未指定の場合、お気に入り・買い物かごの絞り込みは無視する。
func buildRecipeWhere(filter model.RecipeFilter) (string, []any) {
	var conds []string
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AuthorID != "" {
		conds = append(conds, "r.author_id = "+next(filter.AuthorID))
	}
	if len(filter.TagSlugs) > 0 {
		conds = append(conds, `EXISTS (SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY(`+next(pq.Array(filter.TagSlugs))+`))`)
	}
	if filter.ViewerID != "" {
		if filter.FavoritedOnly {
			conds = append(conds, `EXISTS (SELECT 1 FROM favorites f
				WHERE f.recipe_id = r.id AND f.user_id = `+next(filter.ViewerID)+`)`)
		}
		if filter.InCartOnly {
			conds = append(conds, `EXISTS (SELECT 1 FROM shopping_cart sc
				WHERE sc.recipe_id = r.id AND sc.user_id = `+next(filter.ViewerID)+`)`)
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List はフィルタ条件に一致するレシピを新しい順に返す。
func (r *PostgresRecipeRepo) List(ctx context.Context, filter model.RecipeFilter) ([]*model.Recipe, error) {
	where, args := buildRecipeWhere(filter)
	query := `SELECT ` + recipeColumns + ` FROM recipes r` + where + ` ORDER BY r.created_at DESC, r.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("レシピ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var recipes []*model.Recipe
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("レシピ行の読み取りに失敗しました: %w", err)
		}
		recipes = append(recipes, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レシピ一覧の走査に失敗しました: %w", err)
	}
	return recipes, nil
}

// Count はフィルタ条件に一致するレシピ数を返す。
func (r *PostgresRecipeRepo) Count(ctx context.Context, filter model.RecipeFilter) (int, error) {
	where, args := buildRecipeWhere(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("レシピ数の取得に失敗しました: %w", err)
	}
	return n, nil
}

// Create はレシピ本体・タグ・材料行を同一トランザクションで作成する。
func (r *PostgresRecipeRepo) Create(ctx context.Context, recipe *model.Recipe, tagIDs []string, lines []model.IngredientLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, author_id, name, text, cooking_time, image_data, image_mime, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		recipe.ID, recipe.AuthorID, recipe.Name, recipe.Text, recipe.CookingTime,
		recipe.ImageData, recipe.ImageMime, recipe.CreatedAt, recipe.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("レシピの作成に失敗しました: %w", err)
	}

	if err := replaceRecipeRelations(ctx, tx, recipe.ID, tagIDs, lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update はレシピ本体を更新し、必要に応じてタグ・材料行を置き換える。
func (r *PostgresRecipeRepo) Update(ctx context.Context, recipe *model.Recipe, tagIDs []string, lines []model.IngredientLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var result sql.Result
	if len(recipe.ImageData) > 0 {
		result, err = tx.ExecContext(ctx,
			`UPDATE recipes SET name = $2, text = $3, cooking_time = $4, image_data = $5, image_mime = $6, updated_at = $7
			 WHERE id = $1`,
			recipe.ID, recipe.Name, recipe.Text, recipe.CookingTime, recipe.ImageData, recipe.ImageMime, recipe.UpdatedAt,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE recipes SET name = $2, text = $3, cooking_time = $4, updated_at = $5
			 WHERE id = $1`,
			recipe.ID, recipe.Name, recipe.Text, recipe.CookingTime, recipe.UpdatedAt,
		)
	}
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("レシピの更新に失敗しました: %w", err)
	}
	if err := expectAffected(result, "recipe", recipe.ID); err != nil {
		return err
	}

	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipe.ID); err != nil {
			return fmt.Errorf("タグの削除に失敗しました: %w", err)
		}
	}
	if lines != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
			return fmt.Errorf("材料行の削除に失敗しました: %w", err)
		}
	}
	if err := replaceRecipeRelations(ctx, tx, recipe.ID, tagIDs, lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// replaceRecipeRelations はタグと材料行を挿入する。既存行の削除は呼び出し側で行う。
func replaceRecipeRelations(ctx context.Context, tx *sql.Tx, recipeID string, tagIDs []string, lines []model.IngredientLine) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			recipeID, tagID,
		); err != nil {
			return fmt.Errorf("タグの関連付けに失敗しました: %w", err)
		}
	}
	for _, line := range lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, $3)`,
			recipeID, line.IngredientID, line.Amount,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("材料行の作成に失敗しました: %w", err)
		}
	}
	return nil
}

// Delete は指定IDのレシピを削除する。
func (r *PostgresRecipeRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("レシピの削除に失敗しました: %w", err)
	}
	return expectAffected(result, "recipe", id)
}

// TagsByRecipeIDs はレシピIDごとのタグ一覧を名前順で返す。
func (r *PostgresRecipeRepo) TagsByRecipeIDs(ctx context.Context, recipeIDs []string) (map[string][]model.Tag, error) {
	out := make(map[string][]model.Tag)
	if len(recipeIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt
		 JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id = ANY($1)
		 ORDER BY t.name`,
		pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("レシピのタグ取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID string
		var t model.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		out[recipeID] = append(out[recipeID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ行の走査に失敗しました: %w", err)
	}
	return out, nil
}

// IngredientsByRecipeIDs はレシピIDごとの材料行を登録順で返す。
func (r *PostgresRecipeRepo) IngredientsByRecipeIDs(ctx context.Context, recipeIDs []string) (map[string][]model.RecipeIngredient, error) {
	out := make(map[string][]model.RecipeIngredient)
	if len(recipeIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ANY($1)
		 ORDER BY i.name, i.measurement_unit`,
		pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("レシピの材料取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID string
		var ri model.RecipeIngredient
		if err := rows.Scan(&recipeID, &ri.IngredientID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return nil, fmt.Errorf("材料行の読み取りに失敗しました: %w", err)
		}
		out[recipeID] = append(out[recipeID], ri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("材料行の走査に失敗しました: %w", err)
	}
	return out, nil
}

// CountByAuthors は投稿者IDごとのレシピ数を返す。レシピが無い投稿者は含まれない。
func (r *PostgresRecipeRepo) CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	if len(authorIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT author_id, COUNT(*) FROM recipes WHERE author_id = ANY($1) GROUP BY author_id`,
		pq.Array(authorIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("投稿者別レシピ数の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("レシピ数行の読み取りに失敗しました: %w", err)
		}
		out[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レシピ数行の走査に失敗しました: %w", err)
	}
	return out, nil
}

// compile-time interface check
var _ RecipeRepository = (*PostgresRecipeRepo)(nil)

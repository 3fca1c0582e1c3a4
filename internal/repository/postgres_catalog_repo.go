package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/foodgram/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

func (r *PostgresTagRepo) queryTags(ctx context.Context, query string, args ...any) ([]*model.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		t := &model.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// List はタグ一覧を名前順に返す。
func (r *PostgresTagRepo) List(ctx context.Context) ([]*model.Tag, error) {
	return r.queryTags(ctx, `SELECT id, name, color, slug FROM tags ORDER BY name`)
}

// FindByID は指定IDのタグを取得する。見つからない場合はnilを返す。
func (r *PostgresTagRepo) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	t := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}
	return t, nil
}

// FindByIDs は指定ID群のうち存在するタグを返す。
func (r *PostgresTagRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryTags(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = ANY($1) ORDER BY name`,
		pq.Array(ids),
	)
}

// Create はタグを作成する。
func (r *PostgresTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, color, slug) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.Name, tag.Color, tag.Slug,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// PostgresIngredientRepo はPostgreSQLを使用した食材リポジトリ。
type PostgresIngredientRepo struct {
	db *sql.DB
}

// NewPostgresIngredientRepo はPostgresIngredientRepoを生成する。
func NewPostgresIngredientRepo(db *sql.DB) *PostgresIngredientRepo {
	return &PostgresIngredientRepo{db: db}
}

func (r *PostgresIngredientRepo) queryIngredients(ctx context.Context, query string, args ...any) ([]*model.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []*model.Ingredient
	for rows.Next() {
		in := &model.Ingredient{}
		if err := rows.Scan(&in.ID, &in.Name, &in.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}
	return ingredients, nil
}

// List は食材一覧を名前順に返す。
func (r *PostgresIngredientRepo) List(ctx context.Context, namePrefix string) ([]*model.Ingredient, error) {
	if namePrefix == "" {
		return r.queryIngredients(ctx,
			`SELECT id, name, measurement_unit FROM ingredients ORDER BY name, measurement_unit`)
	}
	return r.queryIngredients(ctx,
		`SELECT id, name, measurement_unit FROM ingredients
		 WHERE lower(name) LIKE $1 ESCAPE '\'
		 ORDER BY name, measurement_unit`,
		escapeLike(strings.ToLower(namePrefix))+"%",
	)
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindByID は指定IDの食材を取得する。見つからない場合はnilを返す。
func (r *PostgresIngredientRepo) FindByID(ctx context.Context, id string) (*model.Ingredient, error) {
	in := &model.Ingredient{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`,
		id,
	).Scan(&in.ID, &in.Name, &in.MeasurementUnit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient: %w", err)
	}
	return in, nil
}

// FindByIDs は指定ID群のうち存在する食材を返す。
func (r *PostgresIngredientRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryIngredients(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ANY($1)`,
		pq.Array(ids),
	)
}

// Create は食材を作成する。
func (r *PostgresIngredientRepo) Create(ctx context.Context, ingredient *model.Ingredient) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit) VALUES ($1, $2, $3)`,
		ingredient.ID, ingredient.Name, ingredient.MeasurementUnit,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert ingredient: %w", err)
	}
	return nil
}

// GetOrCreate は (name, measurement_unit) の食材を返し、存在しなければ作成する。
// 同時実行時もON CONFLICTにより重複作成されない。
func (r *PostgresIngredientRepo) GetOrCreate(ctx context.Context, name, unit string) (*model.Ingredient, bool, error) {
	in := &model.Ingredient{ID: uuid.New().String(), Name: name, MeasurementUnit: unit}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit) VALUES ($1, $2, $3)
		 ON CONFLICT (name, measurement_unit) DO NOTHING
		 RETURNING id`,
		in.ID, name, unit,
	).Scan(&in.ID)
	if err == nil {
		return in, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("failed to insert ingredient: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM ingredients WHERE name = $1 AND measurement_unit = $2`,
		name, unit,
	).Scan(&in.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find existing ingredient: %w", err)
	}
	return in, false, nil
}

// compile-time interface check
var (
	_ TagRepository        = (*PostgresTagRepo)(nil)
	_ IngredientRepository = (*PostgresIngredientRepo)(nil)
)

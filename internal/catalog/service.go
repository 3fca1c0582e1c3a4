// Package catalog はタグと食材カタログの管理を提供する。
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

const maxFieldLength = 200

var (
	colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ImportResult はCSV取り込みの結果。
type ImportResult struct {
	Created  int
	Existing int
	Skipped  int
}

// Service はカタログ管理のサービス層。
type Service struct {
	tagRepo        repository.TagRepository
	ingredientRepo repository.IngredientRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(tagRepo repository.TagRepository, ingredientRepo repository.IngredientRepository) *Service {
	return &Service{tagRepo: tagRepo, ingredientRepo: ingredientRepo}
}

// ListTags はタグ一覧を返す。
func (s *Service) ListTags(ctx context.Context) ([]*model.Tag, error) {
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	return tags, nil
}

// GetTag は指定IDのタグを返す。
func (s *Service) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	if !model.ValidID(id) {
		return nil, model.NewTagNotFoundError(id)
	}
	tag, err := s.tagRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	if tag == nil {
		return nil, model.NewTagNotFoundError(id)
	}
	return tag, nil
}

// CreateTag はタグを作成する。
func (s *Service) CreateTag(ctx context.Context, name, color, slug string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	slug = strings.TrimSpace(slug)

	switch {
	case name == "" || len([]rune(name)) > maxFieldLength:
		return nil, model.NewValidationError("name", "1〜200文字で入力してください")
	case !colorPattern.MatchString(color):
		return nil, model.NewValidationError("color", "#RRGGBB形式で入力してください")
	case slug == "" || len(slug) > maxFieldLength || !slugPattern.MatchString(slug):
		return nil, model.NewValidationError("slug", "英数字・ハイフン・アンダースコアのみ使用できます")
	}

	tag := &model.Tag{ID: uuid.New().String(), Name: name, Color: strings.ToUpper(color), Slug: slug}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewTagAlreadyExistsError()
		}
		return nil, fmt.Errorf("タグの作成に失敗しました: %w", err)
	}

	slog.Info("tag created", slog.String("tag_id", tag.ID), slog.String("slug", tag.Slug))
	return tag, nil
}

// ListIngredients は食材一覧を返す。nameが指定された場合は前方一致で絞り込む。
func (s *Service) ListIngredients(ctx context.Context, name string) ([]*model.Ingredient, error) {
	ingredients, err := s.ingredientRepo.List(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("食材一覧の取得に失敗しました: %w", err)
	}
	return ingredients, nil
}

// GetIngredient は指定IDの食材を返す。
func (s *Service) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	if !model.ValidID(id) {
		return nil, model.NewIngredientNotFoundError(id)
	}
	in, err := s.ingredientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("食材の取得に失敗しました: %w", err)
	}
	if in == nil {
		return nil, model.NewIngredientNotFoundError(id)
	}
	return in, nil
}

// CreateIngredient は食材を作成する。
func (s *Service) CreateIngredient(ctx context.Context, name, unit string) (*model.Ingredient, error) {
	name = strings.TrimSpace(name)
	unit = strings.TrimSpace(unit)
	if err := validateIngredient(name, unit); err != nil {
		return nil, err
	}

	in := &model.Ingredient{ID: uuid.New().String(), Name: name, MeasurementUnit: unit}
	if err := s.ingredientRepo.Create(ctx, in); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewIngredientAlreadyExistsError()
		}
		return nil, fmt.Errorf("食材の作成に失敗しました: %w", err)
	}
	return in, nil
}

func validateIngredient(name, unit string) error {
	if name == "" || len([]rune(name)) > maxFieldLength {
		return model.NewValidationError("name", "1〜200文字で入力してください")
	}
	if unit == "" || len([]rune(unit)) > maxFieldLength {
		return model.NewValidationError("measurement_unit", "1〜200文字で入力してください")
	}
	return nil
}

// ImportIngredients は「名前,単位」の2列CSVから食材を取り込む。
// 既存の (名前, 単位) は作成せず、空欄や列数不足の行は読み飛ばす。何度実行しても結果は同じになる。
func (s *Service) ImportIngredients(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return result, fmt.Errorf("csv line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if len(record) < 2 {
			result.Skipped++
			continue
		}
		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if validateIngredient(name, unit) != nil {
			result.Skipped++
			continue
		}

		_, created, err := s.ingredientRepo.GetOrCreate(ctx, name, unit)
		if err != nil {
			return result, fmt.Errorf("csv line %d (%s): %w", line, name, err)
		}
		if created {
			result.Created++
		} else {
			result.Existing++
		}
	}

	slog.Info("ingredients imported",
		slog.Int("created", result.Created),
		slog.Int("existing", result.Existing),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

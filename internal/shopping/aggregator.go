// Package shopping は買い物かごのレシピから材料を集計し、買い物リストを生成する。
package shopping

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hitoshi/foodgram/internal/model"
)

var (
	// ErrEmptyCart は買い物かごが空であることを表す。エラーではなく終端状態として扱う。
	ErrEmptyCart = errors.New("shopping: cart is empty")

	// ErrCorruptLine は食材を解決できない材料行が存在することを表す。
	// 合計が狂うため、該当行を読み飛ばさず集計を中止する。
	ErrCorruptLine = errors.New("shopping: ingredient line cannot be resolved")
)

// Group は (Name, Unit) ごとに数量を合算した買い物リストの1行。
type Group struct {
	Name  string
	Unit  string
	Total int64
}

// LineSource は集計に必要な読み取り操作。repository.CartRepositoryが満たす。
type LineSource interface {
	ListRecipeIDsByUser(ctx context.Context, userID string) ([]string, error)
	ListLinesByRecipeIDs(ctx context.Context, recipeIDs []string) ([]model.ShoppingLine, error)
}

// Aggregator はユーザーの買い物かごを材料ごとの合計に変換する。
// 読み取り専用で、呼び出し間で可変状態を共有しない。
type Aggregator struct {
	source LineSource
	locale language.Tag
}

// NewAggregator はAggregatorを生成する。localeは並び順に使うBCP 47の言語タグ。
func NewAggregator(source LineSource, locale string) (*Aggregator, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid shopping list locale %q: %w", locale, err)
	}
	return &Aggregator{source: source, locale: tag}, nil
}

// Aggregate はuserIDの買い物かごを集計し、名前順に並べたグループを返す。
// かごが空の場合はErrEmptyCartを返す。
func (a *Aggregator) Aggregate(ctx context.Context, userID string) ([]Group, error) {
	// 1. かごのレシピを解決
	recipeIDs, err := a.source.ListRecipeIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart recipes: %w", err)
	}
	if len(recipeIDs) == 0 {
		return nil, ErrEmptyCart
	}

	// 2. 材料行を解決
	lines, err := a.source.ListLinesByRecipeIDs(ctx, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ingredient lines: %w", err)
	}

	// 3〜5. グループ化・合算・並べ替え
	return Merge(lines, a.locale)
}

type groupKey struct {
	name string
	unit string
}

// Merge は材料行を (名前, 単位) でグループ化して合算し、localeの照合順序で名前順に並べる。
// 名前が同じでも単位が異なる行は別のグループになる。
// 照合順序で等しい場合は名前、単位のバイト順で並べるため、出力順は常に一意に決まる。
func Merge(lines []model.ShoppingLine, locale language.Tag) ([]Group, error) {
	totals := make(map[groupKey]int64)
	for _, line := range lines {
		if !line.Resolved {
			return nil, fmt.Errorf("%w: recipe=%s ingredient=%s", ErrCorruptLine, line.RecipeID, line.IngredientID)
		}
		totals[groupKey{name: line.Name, unit: line.MeasurementUnit}] += int64(line.Amount)
	}

	groups := make([]Group, 0, len(totals))
	for k, total := range totals {
		groups = append(groups, Group{Name: k.name, Unit: k.unit, Total: total})
	}

	// collate.Collatorはゴルーチン安全ではないため呼び出しごとに生成する
	c := collate.New(locale)
	sort.Slice(groups, func(i, j int) bool {
		if cmp := c.CompareString(groups[i].Name, groups[j].Name); cmp != 0 {
			return cmp < 0
		}
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].Unit < groups[j].Unit
	})

	return groups, nil
}

// Package model はドメインモデルを定義する。
package model

import "time"

// Tag はレシピに付与するタグを表す。name、color、slugはそれぞれ一意。
type Tag struct {
	ID    string
	Name  string
	Color string
	Slug  string
}

// Ingredient は食材カタログの1件を表す。
// (Name, MeasurementUnit) の組は一意で、どちらも空にできない。
type Ingredient struct {
	ID              string
	Name            string
	MeasurementUnit string
}

// Recipe はユーザーが公開するレシピを表す。
// (Name, AuthorID) の組は一意。
type Recipe struct {
	ID          string
	AuthorID    string
	Name        string
	Text        string
	CookingTime int
	ImageData   []byte
	ImageMime   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngredientLine はレシピと食材の関連（数量付き）を表す。
// (RecipeID, IngredientID) の組は一意。
type IngredientLine struct {
	RecipeID     string
	IngredientID string
	Amount       int
}

// RecipeIngredient は表示用に食材情報を結合したレシピの材料行。
type RecipeIngredient struct {
	IngredientID    string
	Name            string
	MeasurementUnit string
	Amount          int
}

// RecipeDetail はレシピ本体に作者・タグ・材料と閲覧者ごとのフラグを結合したもの。
type RecipeDetail struct {
	Recipe
	Author           *User
	AuthorSubscribed bool
	Tags             []Tag
	Ingredients      []RecipeIngredient
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeFilter はレシピ一覧の絞り込み条件。
// ViewerIDが空の場合、FavoritedOnly・InCartOnlyは無視される。
type RecipeFilter struct {
	ViewerID      string
	AuthorID      string
	TagSlugs      []string
	FavoritedOnly bool
	InCartOnly    bool
	Limit         int
	Offset        int
}

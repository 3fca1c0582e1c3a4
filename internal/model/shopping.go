// Package model はドメインモデルを定義する。
package model

// ShoppingLine は買い物かごのレシピから展開した材料行を表す。
// 食材を解決できなかった行はResolvedがfalseになる。
type ShoppingLine struct {
	RecipeID        string
	IngredientID    string
	Name            string
	MeasurementUnit string
	Amount          int
	Resolved        bool
}

package handler

import (
	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/user"
)

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// tagResponse はタグのAPIレスポンス。
type tagResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// ingredientResponse は食材のAPIレスポンス。
type ingredientResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// recipeIngredientResponse はレシピの材料行のAPIレスポンス。
type recipeIngredientResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// recipeResponse はレシピ詳細のAPIレスポンス。
type recipeResponse struct {
	ID               string                     `json:"id"`
	Tags             []tagResponse              `json:"tags"`
	Author           *userResponse              `json:"author"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// recipeShortResponse はレシピ概要のAPIレスポンス。
type recipeShortResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// subscriptionResponse はフォロー中の投稿者のAPIレスポンス。
type subscriptionResponse struct {
	userResponse
	Recipes      []recipeShortResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

// tokenResponse はログイン成功時のAPIレスポンス。
type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

func toUserResponse(u *model.User, isSubscribed bool) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}

func toProfileResponse(p user.Profile) userResponse {
	return toUserResponse(p.User, p.IsSubscribed)
}

func toTagResponse(t model.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toIngredientResponse(in *model.Ingredient) ingredientResponse {
	return ingredientResponse{ID: in.ID, Name: in.Name, MeasurementUnit: in.MeasurementUnit}
}

// imageURL はレシピ画像を配信するエンドポイントの絶対URLを返す。
func imageURL(baseURL, recipeID string) string {
	return baseURL + "/api/recipes/" + recipeID + "/image"
}

func toRecipeShortResponse(baseURL string, r *model.Recipe) recipeShortResponse {
	return recipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       imageURL(baseURL, r.ID),
		CookingTime: r.CookingTime,
	}
}

func toRecipeResponse(baseURL string, d model.RecipeDetail) recipeResponse {
	resp := recipeResponse{
		ID:               d.ID,
		Tags:             make([]tagResponse, len(d.Tags)),
		Ingredients:      make([]recipeIngredientResponse, len(d.Ingredients)),
		IsFavorited:      d.IsFavorited,
		IsInShoppingCart: d.IsInShoppingCart,
		Name:             d.Name,
		Image:            imageURL(baseURL, d.ID),
		Text:             d.Text,
		CookingTime:      d.CookingTime,
	}
	if d.Author != nil {
		author := toUserResponse(d.Author, d.AuthorSubscribed)
		resp.Author = &author
	}
	for i, t := range d.Tags {
		resp.Tags[i] = toTagResponse(t)
	}
	for i, in := range d.Ingredients {
		resp.Ingredients[i] = recipeIngredientResponse{
			ID:              in.IngredientID,
			Name:            in.Name,
			MeasurementUnit: in.MeasurementUnit,
			Amount:          in.Amount,
		}
	}
	return resp
}

func toSubscriptionResponse(baseURL string, s user.AuthorSummary) subscriptionResponse {
	recipes := make([]recipeShortResponse, len(s.Recipes))
	for i, r := range s.Recipes {
		recipes[i] = toRecipeShortResponse(baseURL, r)
	}
	return subscriptionResponse{
		userResponse: toProfileResponse(s.Profile),
		Recipes:      recipes,
		RecipesCount: s.RecipesCount,
	}
}

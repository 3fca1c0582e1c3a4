package recipe

import (
	"context"

	"github.com/hitoshi/foodgram/internal/model"
	"github.com/hitoshi/foodgram/internal/repository"
)

// --- モック定義 ---

type mockRecipeRepo struct {
	recipes   map[string]*model.Recipe
	tags      map[string][]string
	lines     map[string][]model.IngredientLine
	createErr error
	updated   *model.Recipe
	deleted   []string
	lastTags  []string
}

func newMockRecipeRepo() *mockRecipeRepo {
	return &mockRecipeRepo{
		recipes: make(map[string]*model.Recipe),
		tags:    make(map[string][]string),
		lines:   make(map[string][]model.IngredientLine),
	}
}

func (m *mockRecipeRepo) FindByID(_ context.Context, id string) (*model.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	cp.ImageData = nil
	return &cp, nil
}

func (m *mockRecipeRepo) FindImage(_ context.Context, id string) ([]byte, string, error) {
	r, ok := m.recipes[id]
	if !ok {
		return nil, "", nil
	}
	return r.ImageData, r.ImageMime, nil
}

func (m *mockRecipeRepo) List(_ context.Context, filter model.RecipeFilter) ([]*model.Recipe, error) {
	var out []*model.Recipe
	for _, r := range m.recipes {
		if filter.AuthorID == "" || r.AuthorID == filter.AuthorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecipeRepo) Count(ctx context.Context, filter model.RecipeFilter) (int, error) {
	rs, _ := m.List(ctx, filter)
	return len(rs), nil
}

func (m *mockRecipeRepo) Create(_ context.Context, r *model.Recipe, tagIDs []string, lines []model.IngredientLine) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.recipes[r.ID] = r
	m.tags[r.ID] = tagIDs
	m.lines[r.ID] = lines
	m.lastTags = tagIDs
	return nil
}

func (m *mockRecipeRepo) Update(_ context.Context, r *model.Recipe, tagIDs []string, lines []model.IngredientLine) error {
	cp := *r
	if len(cp.ImageData) == 0 {
		cp.ImageData = m.recipes[r.ID].ImageData
		cp.ImageMime = m.recipes[r.ID].ImageMime
	}
	m.recipes[r.ID] = &cp
	m.updated = r
	if tagIDs != nil {
		m.tags[r.ID] = tagIDs
	}
	if lines != nil {
		m.lines[r.ID] = lines
	}
	return nil
}

func (m *mockRecipeRepo) Delete(_ context.Context, id string) error {
	delete(m.recipes, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRecipeRepo) TagsByRecipeIDs(_ context.Context, ids []string) (map[string][]model.Tag, error) {
	out := make(map[string][]model.Tag)
	for _, id := range ids {
		for _, tagID := range m.tags[id] {
			out[id] = append(out[id], model.Tag{ID: tagID, Slug: tagID})
		}
	}
	return out, nil
}

func (m *mockRecipeRepo) IngredientsByRecipeIDs(_ context.Context, ids []string) (map[string][]model.RecipeIngredient, error) {
	out := make(map[string][]model.RecipeIngredient)
	for _, id := range ids {
		for _, l := range m.lines[id] {
			out[id] = append(out[id], model.RecipeIngredient{IngredientID: l.IngredientID, Amount: l.Amount})
		}
	}
	return out, nil
}

func (m *mockRecipeRepo) CountByAuthors(_ context.Context, _ []string) (map[string]int, error) {
	return nil, nil
}

type mockTagRepo struct {
	existing map[string]bool
}

func (m *mockTagRepo) List(_ context.Context) ([]*model.Tag, error)             { return nil, nil }
func (m *mockTagRepo) FindByID(_ context.Context, _ string) (*model.Tag, error) { return nil, nil }
func (m *mockTagRepo) Create(_ context.Context, _ *model.Tag) error             { return nil }

func (m *mockTagRepo) FindByIDs(_ context.Context, ids []string) ([]*model.Tag, error) {
	var out []*model.Tag
	for _, id := range ids {
		if m.existing[id] {
			out = append(out, &model.Tag{ID: id})
		}
	}
	return out, nil
}

type mockIngredientRepo struct {
	existing map[string]bool
}

func (m *mockIngredientRepo) List(_ context.Context, _ string) ([]*model.Ingredient, error) {
	return nil, nil
}
func (m *mockIngredientRepo) FindByID(_ context.Context, _ string) (*model.Ingredient, error) {
	return nil, nil
}
func (m *mockIngredientRepo) Create(_ context.Context, _ *model.Ingredient) error { return nil }
func (m *mockIngredientRepo) GetOrCreate(_ context.Context, _, _ string) (*model.Ingredient, bool, error) {
	return nil, false, nil
}

func (m *mockIngredientRepo) FindByIDs(_ context.Context, ids []string) ([]*model.Ingredient, error) {
	var out []*model.Ingredient
	for _, id := range ids {
		if m.existing[id] {
			out = append(out, &model.Ingredient{ID: id})
		}
	}
	return out, nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}
func (m *mockUserRepo) FindByEmail(_ context.Context, _ string) (*model.User, error) { return nil, nil }
func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error                { return nil }
func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]*model.User, error)      { return nil, nil }
func (m *mockUserRepo) Count(_ context.Context) (int, error)                         { return 0, nil }
func (m *mockUserRepo) UpdatePassword(_ context.Context, _, _ string) error          { return nil }
func (m *mockUserRepo) DeleteByID(_ context.Context, _ string) error                 { return nil }

type mockFollowRepo struct {
	follows map[[2]string]bool
}

func (m *mockFollowRepo) Exists(_ context.Context, s, a string) (bool, error) {
	return m.follows[[2]string{s, a}], nil
}
func (m *mockFollowRepo) Create(_ context.Context, _ *model.Follow) error { return nil }
func (m *mockFollowRepo) Delete(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}
func (m *mockFollowRepo) ListAuthors(_ context.Context, _ string, _, _ int) ([]*model.User, error) {
	return nil, nil
}
func (m *mockFollowRepo) CountAuthors(_ context.Context, _ string) (int, error) { return 0, nil }

func (m *mockFollowRepo) FollowedAmong(_ context.Context, subscriberID string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if m.follows[[2]string{subscriberID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

// mockMarkRepo はお気に入り・買い物かご共通のメモリ実装。
type mockMarkRepo struct {
	marks  map[[2]string]bool
	addErr error
}

func newMockMarkRepo() *mockMarkRepo {
	return &mockMarkRepo{marks: make(map[[2]string]bool)}
}

func (m *mockMarkRepo) Exists(_ context.Context, userID, recipeID string) (bool, error) {
	return m.marks[[2]string{userID, recipeID}], nil
}

func (m *mockMarkRepo) Add(_ context.Context, userID, recipeID string) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.marks[[2]string{userID, recipeID}] = true
	return nil
}

func (m *mockMarkRepo) Remove(_ context.Context, userID, recipeID string) (bool, error) {
	key := [2]string{userID, recipeID}
	if !m.marks[key] {
		return false, nil
	}
	delete(m.marks, key)
	return true, nil
}

func (m *mockMarkRepo) MarkedAmong(_ context.Context, userID string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range ids {
		if m.marks[[2]string{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

func (m *mockMarkRepo) ListRecipeIDsByUser(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (m *mockMarkRepo) ListLinesByRecipeIDs(_ context.Context, _ []string) ([]model.ShoppingLine, error) {
	return nil, nil
}

type countingRecorder struct{ created int }

func (c *countingRecorder) RecordRecipeCreated() { c.created++ }

// --- compile-time interface checks ---
var (
	_ repository.RecipeRepository     = (*mockRecipeRepo)(nil)
	_ repository.TagRepository        = (*mockTagRepo)(nil)
	_ repository.IngredientRepository = (*mockIngredientRepo)(nil)
	_ repository.UserRepository       = (*mockUserRepo)(nil)
	_ repository.FollowRepository     = (*mockFollowRepo)(nil)
	_ repository.FavoriteRepository   = (*mockMarkRepo)(nil)
	_ repository.CartRepository       = (*mockMarkRepo)(nil)
)

package models

import "time"

type Recipe struct {
	ID            int64
	UserID        int64
	Title         string
	TimeMinutes   int
	Price         Price
	Link          string
	ImageKey      string
	TagIDs        []int64
	IngredientIDs []int64
	CreatedAt     time.Time
}

// RecipeDetail is a recipe with its tags and ingredients resolved.
type RecipeDetail struct {
	Recipe
	Tags        []Attribute
	Ingredients []Attribute
	// ImageURL is a time limited download link, empty without an image.
	ImageURL string
}

// RecipeFilter narrows recipe listings. A recipe matches when it is linked
// to any of the given tags and any of the given ingredients.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipePatch carries a partial update. Nil fields are left unchanged;
// non-nil TagIDs/IngredientIDs replace the whole set.
type RecipePatch struct {
	Title         *string
	TimeMinutes   *int
	Price         *Price
	Link          *string
	TagIDs        *[]int64
	IngredientIDs *[]int64
}

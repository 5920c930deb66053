package httpapi

import (
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
)

// Requests. Both JSON and form bodies bind into these.

type createUserRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=5,max=72"`
	Name     string `json:"name" form:"name" binding:"max=255"`
}

type tokenRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" binding:"required"`
}

type updateUserRequest struct {
	Email    *string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=5,max=72"`
	Name     *string `json:"name" form:"name" binding:"omitempty,max=255"`
}

type attributeRequest struct {
	Name string `json:"name" form:"name"`
}

type recipeRequest struct {
	Title       *string       `json:"title" form:"title" binding:"omitempty,max=255"`
	TimeMinutes *int          `json:"time_minutes" form:"time_minutes" binding:"omitempty,gte=0,lte=2147483647"`
	Price       *models.Price `json:"price" form:"price"`
	Link        *string       `json:"link" form:"link" binding:"omitempty,max=255"`
	Tags        *[]int64      `json:"tags" form:"tags"`
	Ingredients *[]int64      `json:"ingredients" form:"ingredients"`
}

func (r *recipeRequest) patch() models.RecipePatch {
	return models.RecipePatch{
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price,
		Link:          r.Link,
		TagIDs:        r.Tags,
		IngredientIDs: r.Ingredients,
	}
}

// missing lists the fields a full (create or PUT) payload must carry.
func (r *recipeRequest) missing() fieldErrors {
	errs := fieldErrors{}
	if r.Title == nil {
		errs.add("title", msgRequired)
	}
	if r.TimeMinutes == nil {
		errs.add("time_minutes", msgRequired)
	}
	if r.Price == nil {
		errs.add("price", msgRequired)
	}
	return errs
}

// Responses.

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type attributeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newAttributeResponses(list []models.Attribute) []attributeResponse {
	out := make([]attributeResponse, len(list))
	for i, a := range list {
		out[i] = attributeResponse{ID: a.ID, Name: a.Name}
	}
	return out
}

type recipeResponse struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Ingredients []int64      `json:"ingredients"`
	Tags        []int64      `json:"tags"`
	TimeMinutes int          `json:"time_minutes"`
	Price       models.Price `json:"price"`
	Link        string       `json:"link"`
}

func newRecipeResponse(r *models.Recipe) recipeResponse {
	return recipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		Ingredients: nonNilIDs(r.IngredientIDs),
		Tags:        nonNilIDs(r.TagIDs),
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
	}
}

type recipeDetailResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Ingredients []attributeResponse `json:"ingredients"`
	Tags        []attributeResponse `json:"tags"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       models.Price        `json:"price"`
	Link        string              `json:"link"`
	Image       *string             `json:"image"`
}

func newRecipeDetailResponse(d *models.RecipeDetail) recipeDetailResponse {
	return recipeDetailResponse{
		ID:          d.ID,
		Title:       d.Title,
		Ingredients: newAttributeResponses(d.Ingredients),
		Tags:        newAttributeResponses(d.Tags),
		TimeMinutes: d.TimeMinutes,
		Price:       d.Price,
		Link:        d.Link,
		Image:       imageURL(d),
	}
}

type recipeImageResponse struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

func imageURL(d *models.RecipeDetail) *string {
	if d.ImageURL == "" {
		return nil
	}
	u := d.ImageURL
	return &u
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

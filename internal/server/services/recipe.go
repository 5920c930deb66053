package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/dbx"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ImageStore keeps recipe images in object storage.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

const maxCharField = 255

// imageTypes maps accepted sniffed content types to key extensions.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageStore
}

// NewRecipeService constructs a RecipeService. images may be nil, in which
// case uploads fail and details carry no image URL.
func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, images ImageStore) *RecipeService {
	return &RecipeService{db: db, repomanager: m, images: images}
}

// List returns the owner's recipes with their tag and ingredient ids.
func (s *RecipeService) List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error) {
	list, err := s.repomanager.Recipes(s.db).ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]int64, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}

	tags, err := s.repomanager.Attributes(s.db, attributes.Tags).ListByRecipes(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.repomanager.Attributes(s.db, attributes.Ingredients).ListByRecipes(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	for _, r := range list {
		r.TagIDs = attributeIDs(tags[r.ID])
		r.IngredientIDs = attributeIDs(ingredients[r.ID])
	}
	return list, nil
}

// Get returns the recipe with tags and ingredients resolved.
func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*models.RecipeDetail, error) {
	return s.detail(ctx, s.db, userID, id)
}

// Create stores recipe and its tag and ingredient links in one transaction.
// recipe.UserID is the owner; every linked id must belong to that owner.
func (s *RecipeService) Create(ctx context.Context, recipe *models.Recipe) (*models.RecipeDetail, error) {
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Recipes(tx).Create(ctx, recipe); err != nil {
			return fmt.Errorf("error creating recipe: %w", err)
		}
		return s.link(ctx, tx, recipe.UserID, recipe.ID, &recipe.TagIDs, &recipe.IngredientIDs)
	}); err != nil {
		return nil, err
	}

	return s.detail(ctx, s.db, recipe.UserID, recipe.ID)
}

// Update applies patch to the owner's recipe. Non-nil id lists replace the
// current links.
func (s *RecipeService) Update(ctx context.Context, userID, id int64, patch models.RecipePatch) (*models.RecipeDetail, error) {
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		recipe, err := repo.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		applyPatch(recipe, patch)
		if err := validateRecipe(recipe); err != nil {
			return err
		}
		if err := repo.Update(ctx, recipe); err != nil {
			return err
		}
		return s.link(ctx, tx, userID, id, patch.TagIDs, patch.IngredientIDs)
	}); err != nil {
		return nil, err
	}

	return s.detail(ctx, s.db, userID, id)
}

func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	return s.repomanager.Recipes(s.db).Delete(ctx, userID, id)
}

// UploadImage stores data as the recipe's image, replacing any previous one.
// Only JPEG, PNG, GIF and WebP content is accepted.
func (s *RecipeService) UploadImage(ctx context.Context, userID, id int64, data []byte) (*models.RecipeDetail, error) {
	if s.images == nil {
		return nil, fmt.Errorf("image storage is not configured: %w", common.ErrorInternal)
	}
	if len(data) == 0 {
		return nil, common.NewValidationError("image", "The submitted file is empty.")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, common.NewValidationError("image",
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	repo := s.repomanager.Recipes(s.db)
	recipe, err := repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	key := GetRandomStorageKey(ext)
	if err := s.images.Put(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("error storing image: %w", err)
	}
	if err := repo.SetImageKey(ctx, userID, id, key); err != nil {
		_ = s.images.Delete(ctx, key)
		return nil, err
	}
	if recipe.ImageKey != "" {
		// the old object is unreachable now; a failed delete only leaks storage
		_ = s.images.Delete(ctx, recipe.ImageKey)
	}

	return s.detail(ctx, s.db, userID, id)
}

// GetRandomStorageKey returns a fresh object key under a date prefix.
func GetRandomStorageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("recipes/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *RecipeService) detail(ctx context.Context, db dbx.DBTX, userID, id int64) (*models.RecipeDetail, error) {
	recipe, err := s.repomanager.Recipes(db).GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	ids := []int64{id}
	tags, err := s.repomanager.Attributes(db, attributes.Tags).ListByRecipes(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.repomanager.Attributes(db, attributes.Ingredients).ListByRecipes(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	d := &models.RecipeDetail{
		Recipe:      *recipe,
		Tags:        nonNil(tags[id]),
		Ingredients: nonNil(ingredients[id]),
	}
	d.TagIDs = attributeIDs(d.Tags)
	d.IngredientIDs = attributeIDs(d.Ingredients)

	if recipe.ImageKey != "" && s.images != nil {
		url, err := s.images.PresignGet(ctx, recipe.ImageKey)
		if err != nil {
			return nil, fmt.Errorf("error presigning image url: %w", err)
		}
		d.ImageURL = url
	}
	return d, nil
}

// link replaces the recipe's links for every non-nil id list.
func (s *RecipeService) link(ctx context.Context, tx dbx.DBTX, userID, recipeID int64, tagIDs, ingredientIDs *[]int64) error {
	for _, l := range []struct {
		kind attributes.Kind
		ids  *[]int64
	}{
		{attributes.Tags, tagIDs},
		{attributes.Ingredients, ingredientIDs},
	} {
		if l.ids == nil {
			continue
		}
		repo := s.repomanager.Attributes(tx, l.kind)
		if err := repo.Unlink(ctx, recipeID); err != nil {
			return err
		}
		if err := repo.Link(ctx, userID, recipeID, *l.ids); err != nil {
			return err
		}
	}
	return nil
}

func applyPatch(r *models.Recipe, p models.RecipePatch) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.TimeMinutes != nil {
		r.TimeMinutes = *p.TimeMinutes
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Link != nil {
		r.Link = *p.Link
	}
}

// validateRecipe trims Title and Link in place before checking them.
func validateRecipe(r *models.Recipe) error {
	r.Title = strings.TrimSpace(r.Title)
	r.Link = strings.TrimSpace(r.Link)

	switch {
	case r.Title == "":
		return common.NewValidationError("title", "This field may not be blank.")
	case utf8.RuneCountInString(r.Title) > maxCharField:
		return common.NewValidationError("title", "Ensure this field has no more than %d characters.", maxCharField)
	case r.TimeMinutes < 0:
		return common.NewValidationError("time_minutes", "Ensure this value is greater than or equal to 0.")
	case r.TimeMinutes > math.MaxInt32:
		return common.NewValidationError("time_minutes", "Ensure this value is less than or equal to %d.", math.MaxInt32)
	case r.Price < 0:
		return common.NewValidationError("price", "Ensure this value is greater than or equal to 0.")
	case r.Price > models.MaxPrice:
		return common.NewValidationError("price", "Ensure that there are no more than 5 digits in total.")
	case utf8.RuneCountInString(r.Link) > maxCharField:
		return common.NewValidationError("link", "Ensure this field has no more than %d characters.", maxCharField)
	}
	return nil
}

func attributeIDs(list []models.Attribute) []int64 {
	ids := make([]int64, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids
}

func nonNil(list []models.Attribute) []models.Attribute {
	if list == nil {
		return []models.Attribute{}
	}
	return list
}

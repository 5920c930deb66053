// Package attributes stores the owned name records attached to recipes:
// tags and ingredients. Both live in identically shaped tables, so a single
// implementation serves either one, selected by Kind.
package attributes

import (
	"context"

	"github.com/dmitrijs2005/recipeapi/internal/server/models"
)

// Kind names the tables backing one attribute type.
type Kind struct {
	// Name is the singular, human readable name ("tag").
	Name string
	// Table holds the attribute rows.
	Table string
	// LinkTable joins recipes to attributes.
	LinkTable string
	// LinkColumn is the attribute id column in LinkTable.
	LinkColumn string
}

var (
	Tags        = Kind{Name: "tag", Table: "tags", LinkTable: "recipe_tags", LinkColumn: "tag_id"}
	Ingredients = Kind{Name: "ingredient", Table: "ingredients", LinkTable: "recipe_ingredients", LinkColumn: "ingredient_id"}
)

type Repository interface {
	Create(ctx context.Context, attr *models.Attribute) (*models.Attribute, error)
	// ListByUser returns the owner's attributes ordered by name descending.
	ListByUser(ctx context.Context, userID int64, filter models.AttributeFilter) ([]*models.Attribute, error)
	// ListByRecipes returns the attributes linked to the owner's recipes,
	// grouped by recipe id.
	ListByRecipes(ctx context.Context, userID int64, recipeIDs []int64) (map[int64][]models.Attribute, error)
	// Link attaches ids to recipeID. Every id must belong to userID, otherwise
	// a validation error naming the offending id is returned.
	Link(ctx context.Context, userID, recipeID int64, ids []int64) error
	// Unlink detaches every attribute from recipeID.
	Unlink(ctx context.Context, recipeID int64) error
}

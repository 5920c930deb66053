package recipes

import (
	"context"

	"github.com/dmitrijs2005/recipeapi/internal/server/models"
)

// Repository persists recipe rows. Every lookup is scoped to the owner, so a
// recipe belonging to someone else is reported as common.ErrorNotFound.
// Tag and ingredient links are managed by the attributes repository.
type Repository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	ListByUser(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Recipe, error)
	Update(ctx context.Context, recipe *models.Recipe) error
	SetImageKey(ctx context.Context, userID, id int64, key string) error
	Delete(ctx context.Context, userID, id int64) error
}

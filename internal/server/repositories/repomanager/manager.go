package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/recipeapi/internal/dbx"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	Attributes(db dbx.DBTX, kind attributes.Kind) attributes.Repository
}

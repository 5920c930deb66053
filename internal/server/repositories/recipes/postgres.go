package recipes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/dbx"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	query :=
		`INSERT INTO recipes (user_id, title, time_minutes, price, link)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		recipe.UserID, recipe.Title, recipe.TimeMinutes, recipe.Price, recipe.Link,
	).Scan(&recipe.ID, &recipe.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return recipe, nil
}

const selectRecipe = `SELECT r.id, r.user_id, r.title, r.time_minutes, r.price, r.link, r.image_key, r.created_at FROM recipes r`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	rec := &models.Recipe{}
	err := s.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.TimeMinutes, &rec.Price, &rec.Link, &rec.ImageKey, &rec.CreatedAt)
	return rec, err
}

// ListByUser returns the owner's recipes, newest id first. A non-empty
// TagIDs or IngredientIDs keeps recipes linked to at least one of the ids.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error) {
	var sb strings.Builder
	sb.WriteString(selectRecipe)
	sb.WriteString(` WHERE r.user_id = $1`)
	args := []any{userID}

	addFilter := func(linkTable, column string, ids []int64) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&sb, ` AND EXISTS (SELECT 1 FROM %s l WHERE l.recipe_id = r.id AND l.%s IN (%s))`,
			linkTable, column, dbx.Placeholders(len(args)+1, len(ids)))
		for _, id := range ids {
			args = append(args, id)
		}
	}
	addFilter("recipe_tags", "tag_id", filter.TagIDs)
	addFilter("recipe_ingredients", "ingredient_id", filter.IngredientIDs)

	sb.WriteString(` ORDER BY r.id DESC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Recipe, 0)
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	rec, err := scanRecipe(r.db.QueryRowContext(ctx, selectRecipe+` WHERE r.id = $1 AND r.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Update writes the scalar fields of recipe. Ownership is taken from
// recipe.UserID.
func (r *PostgresRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	query :=
		`UPDATE recipes SET title = $1, time_minutes = $2, price = $3, link = $4
		 WHERE id = $5 AND user_id = $6
		 `

	res, err := r.db.ExecContext(ctx, query,
		recipe.Title, recipe.TimeMinutes, recipe.Price, recipe.Link, recipe.ID, recipe.UserID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) SetImageKey(ctx context.Context, userID, id int64, key string) error {
	query := `UPDATE recipes SET image_key = $1 WHERE id = $2 AND user_id = $3`

	res, err := r.db.ExecContext(ctx, query, key, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes the recipe; link rows go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM recipes WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

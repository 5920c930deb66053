package attributes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/dbx"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
)

// PostgresRepository stores one attribute Kind. Table names come from the
// package level Kind values only, never from user input.
type PostgresRepository struct {
	db   dbx.DBTX
	kind Kind
}

func NewPostgresRepository(db dbx.DBTX, kind Kind) *PostgresRepository {
	return &PostgresRepository{db: db, kind: kind}
}

func (r *PostgresRepository) Create(ctx context.Context, attr *models.Attribute) (*models.Attribute, error) {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING id`, r.kind.Table)

	if err := r.db.QueryRowContext(ctx, query, attr.UserID, attr.Name).Scan(&attr.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return attr, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, filter models.AttributeFilter) ([]*models.Attribute, error) {
	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.name FROM %s a WHERE a.user_id = $1 ORDER BY a.name DESC`, r.kind.Table)
	if filter.AssignedOnly {
		query = fmt.Sprintf(
			`SELECT DISTINCT a.id, a.user_id, a.name FROM %s a
			 JOIN %s l ON l.%s = a.id
			 JOIN recipes r ON r.id = l.recipe_id
			 WHERE a.user_id = $1 AND r.user_id = $1
			 ORDER BY a.name DESC`,
			r.kind.Table, r.kind.LinkTable, r.kind.LinkColumn)
	}

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Attribute, 0)
	for rows.Next() {
		a := &models.Attribute{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListByRecipes(ctx context.Context, userID int64, recipeIDs []int64) (map[int64][]models.Attribute, error) {
	result := make(map[int64][]models.Attribute, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(
		`SELECT l.recipe_id, a.id, a.user_id, a.name FROM %s l
		 JOIN %s a ON a.id = l.%s
		 WHERE a.user_id = $1 AND l.recipe_id IN (%s)
		 ORDER BY a.id`,
		r.kind.LinkTable, r.kind.Table, r.kind.LinkColumn, dbx.Placeholders(2, len(recipeIDs)))

	args := make([]any, 0, len(recipeIDs)+1)
	args = append(args, userID)
	for _, id := range recipeIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		var a models.Attribute
		if err := rows.Scan(&recipeID, &a.ID, &a.UserID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result[recipeID] = append(result[recipeID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// Link inserts one row per distinct id. The insert selects from the owner's
// attributes, so a foreign or missing id affects zero rows.
func (r *PostgresRepository) Link(ctx context.Context, userID, recipeID int64, ids []int64) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (recipe_id, %s)
		 SELECT $1, id FROM %s WHERE id = $2 AND user_id = $3`,
		r.kind.LinkTable, r.kind.LinkColumn, r.kind.Table)

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		res, err := r.db.ExecContext(ctx, query, recipeID, id, userID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected error: %w", err)
		}
		if n == 0 {
			return common.NewValidationError(r.kind.Table, "Invalid pk \"%d\" - object does not exist.", id)
		}
	}
	return nil
}

func (r *PostgresRepository) Unlink(ctx context.Context, recipeID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, r.kind.LinkTable)
	if _, err := r.db.ExecContext(ctx, query, recipeID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

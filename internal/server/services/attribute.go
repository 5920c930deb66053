package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/repomanager"
)

// AttributeService manages one kind of owned attribute (tags or ingredients).
type AttributeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kind        attributes.Kind
}

func NewAttributeService(db *sql.DB, m repomanager.RepositoryManager, kind attributes.Kind) *AttributeService {
	return &AttributeService{db: db, repomanager: m, kind: kind}
}

func (s *AttributeService) List(ctx context.Context, userID int64, filter models.AttributeFilter) ([]*models.Attribute, error) {
	return s.repomanager.Attributes(s.db, s.kind).ListByUser(ctx, userID, filter)
}

// Create stores a new attribute owned by userID. Surrounding whitespace is
// trimmed; a blank name is rejected.
func (s *AttributeService) Create(ctx context.Context, userID int64, name string) (*models.Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("name", "This field may not be blank.")
	}
	if utf8.RuneCountInString(name) > maxCharField {
		return nil, common.NewValidationError("name", "Ensure this field has no more than %d characters.", maxCharField)
	}

	a, err := s.repomanager.Attributes(s.db, s.kind).Create(ctx, &models.Attribute{UserID: userID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("error creating %s: %w", s.kind.Name, err)
	}
	return a, nil
}

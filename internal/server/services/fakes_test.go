package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/dbx"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/recipes"
	refreshtokensrepo "github.com/dmitrijs2005/recipeapi/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/recipeapi/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	byID   map[int64]*models.User
	nextID int64

	createErr error
	getErr    error
	updateErr error
	gets      int
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byID: map[int64]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	createErr error

	created []string
	deleted []string
	purged  int64
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID int64, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(context.Context, time.Time) (int64, error) {
	return f.purged, nil
}

// --- recipes ---

type fakeRecipesRepo struct {
	byID   map[int64]*models.Recipe
	nextID int64

	createErr   error
	setImageErr error
}

func newFakeRecipesRepo() *fakeRecipesRepo {
	return &fakeRecipesRepo{byID: map[int64]*models.Recipe{}}
}

func (f *fakeRecipesRepo) Create(_ context.Context, r *models.Recipe) (*models.Recipe, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	r.ID = f.nextID
	cp := *r
	cp.TagIDs, cp.IngredientIDs = nil, nil
	f.byID[r.ID] = &cp
	return r, nil
}

func (f *fakeRecipesRepo) ListByUser(_ context.Context, userID int64, _ models.RecipeFilter) ([]*models.Recipe, error) {
	out := make([]*models.Recipe, 0)
	for id := f.nextID; id > 0; id-- {
		if r, ok := f.byID[id]; ok && r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRecipesRepo) GetByID(_ context.Context, userID, id int64) (*models.Recipe, error) {
	r, ok := f.byID[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecipesRepo) Update(_ context.Context, r *models.Recipe) error {
	if _, err := f.GetByID(context.Background(), r.UserID, r.ID); err != nil {
		return err
	}
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeRecipesRepo) SetImageKey(_ context.Context, userID, id int64, key string) error {
	if f.setImageErr != nil {
		return f.setImageErr
	}
	r, ok := f.byID[id]
	if !ok || r.UserID != userID {
		return common.ErrorNotFound
	}
	r.ImageKey = key
	return nil
}

func (f *fakeRecipesRepo) Delete(_ context.Context, userID, id int64) error {
	r, ok := f.byID[id]
	if !ok || r.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

// --- tags / ingredients ---

type fakeAttrRepo struct {
	kind   attributes.Kind
	byID   map[int64]models.Attribute
	links  map[int64][]int64
	nextID int64

	lastFilter models.AttributeFilter
}

func newFakeAttrRepo(kind attributes.Kind, attrs ...models.Attribute) *fakeAttrRepo {
	f := &fakeAttrRepo{kind: kind, byID: map[int64]models.Attribute{}, links: map[int64][]int64{}}
	for _, a := range attrs {
		f.byID[a.ID] = a
		if a.ID > f.nextID {
			f.nextID = a.ID
		}
	}
	return f
}

func (f *fakeAttrRepo) Create(_ context.Context, a *models.Attribute) (*models.Attribute, error) {
	f.nextID++
	a.ID = f.nextID
	f.byID[a.ID] = *a
	return a, nil
}

func (f *fakeAttrRepo) ListByUser(_ context.Context, userID int64, filter models.AttributeFilter) ([]*models.Attribute, error) {
	f.lastFilter = filter
	out := make([]*models.Attribute, 0)
	for _, a := range f.byID {
		if a.UserID == userID {
			cp := a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAttrRepo) ListByRecipes(_ context.Context, userID int64, recipeIDs []int64) (map[int64][]models.Attribute, error) {
	out := map[int64][]models.Attribute{}
	for _, rid := range recipeIDs {
		for _, id := range f.links[rid] {
			if a := f.byID[id]; a.UserID == userID {
				out[rid] = append(out[rid], a)
			}
		}
	}
	return out, nil
}

func (f *fakeAttrRepo) Link(_ context.Context, userID, recipeID int64, ids []int64) error {
	for _, id := range ids {
		a, ok := f.byID[id]
		if !ok || a.UserID != userID {
			return common.NewValidationError(f.kind.Table, "Invalid pk \"%d\" - object does not exist.", id)
		}
		f.links[recipeID] = append(f.links[recipeID], id)
	}
	return nil
}

func (f *fakeAttrRepo) Unlink(_ context.Context, recipeID int64) error {
	delete(f.links, recipeID)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	u           *fakeUsersRepo
	r           *fakeRefreshRepo
	rec         *fakeRecipesRepo
	tags        *fakeAttrRepo
	ingredients *fakeAttrRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                    { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository    { return m.r }
func (m *fakeRepoManager) Recipes(dbx.DBTX) recipes.Repository                    { return m.rec }
func (m *fakeRepoManager) Attributes(_ dbx.DBTX, kind attributes.Kind) attributes.Repository {
	if kind == attributes.Ingredients {
		return m.ingredients
	}
	return m.tags
}

// --- cache / images ---

type fakeCache struct {
	m       map[int64]*models.User
	deleted []int64
}

func newFakeCache() *fakeCache { return &fakeCache{m: map[int64]*models.User{}} }

func (c *fakeCache) Get(_ context.Context, id int64) (*models.User, bool) {
	u, ok := c.m[id]
	return u, ok
}
func (c *fakeCache) Set(_ context.Context, u *models.User) { c.m[u.ID] = u }
func (c *fakeCache) Delete(_ context.Context, id int64) {
	delete(c.m, id)
	c.deleted = append(c.deleted, id)
}

type fakeImages struct {
	objects map[string][]byte
	types   map[string]string
	deleted []string
	putErr  error
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeImages) Put(_ context.Context, key, contentType string, body []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = body
	f.types[key] = contentType
	return nil
}

func (f *fakeImages) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.test/" + key + "?sig=x", nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

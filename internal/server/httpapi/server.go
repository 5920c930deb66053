// Package httpapi exposes the recipe REST API over gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/recipeapi/internal/logging"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/dmitrijs2005/recipeapi/internal/server/services"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	CreateUser(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, upd services.ProfileUpdate) (*models.User, error)
}

type RecipeService interface {
	List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error)
	Get(ctx context.Context, userID, id int64) (*models.RecipeDetail, error)
	Create(ctx context.Context, recipe *models.Recipe) (*models.RecipeDetail, error)
	Update(ctx context.Context, userID, id int64, patch models.RecipePatch) (*models.RecipeDetail, error)
	Delete(ctx context.Context, userID, id int64) error
	UploadImage(ctx context.Context, userID, id int64, data []byte) (*models.RecipeDetail, error)
}

type AttributeService interface {
	List(ctx context.Context, userID int64, filter models.AttributeFilter) ([]*models.Attribute, error)
	Create(ctx context.Context, userID int64, name string) (*models.Attribute, error)
}

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address     string
	logger      logging.Logger
	users       UserService
	recipes     RecipeService
	tags        AttributeService
	ingredients AttributeService
	jwtSecret   []byte
}

func NewHTTPServer(a string, l logging.Logger, us UserService, rs RecipeService, tags, ingredients AttributeService, secretKey string) *HTTPServer {
	useJSONFieldNames()
	return &HTTPServer{
		address:     a,
		logger:      l.With("module", "http_server"),
		users:       us,
		recipes:     rs,
		tags:        tags,
		ingredients: ingredients,
		jwtSecret:   []byte(secretKey),
	}
}

// Handler builds the gin engine with every route registered.
func (s *HTTPServer) Handler() http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), s.requestLogger())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": msgNotFound})
	})
	r.NoMethod(func(c *gin.Context) {
		// credentials are checked before the verb on authenticated routes
		if isProtected(c.Request.URL.Path) {
			if _, ok := s.authenticate(c); !ok {
				return
			}
		}
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method \"" + c.Request.Method + "\" not allowed."})
	})

	user := r.Group("/api/user")
	{
		user.POST("/create", s.createUser)
		user.POST("/token", s.createToken)
		user.POST("/token/refresh", s.refreshToken)

		me := user.Group("/me", s.authRequired())
		me.GET("", s.getMe)
		me.PUT("", s.updateMe(false))
		me.PATCH("", s.updateMe(true))
	}

	recipe := r.Group("/api/recipe", s.authRequired())
	{
		recipe.GET("/recipes", s.listRecipes)
		recipe.POST("/recipes", s.createRecipe)
		recipe.GET("/recipes/:id", s.getRecipe)
		recipe.PUT("/recipes/:id", s.updateRecipe(false))
		recipe.PATCH("/recipes/:id", s.updateRecipe(true))
		recipe.DELETE("/recipes/:id", s.deleteRecipe)
		recipe.POST("/recipes/:id/upload-image", s.uploadImage)

		recipe.GET("/tags", s.listAttributes(s.tags))
		recipe.POST("/tags", s.createAttribute(s.tags))
		recipe.GET("/ingredients", s.listAttributes(s.ingredients))
		recipe.POST("/ingredients", s.createAttribute(s.ingredients))
	}

	return r
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and shuts down gracefully once ctx is done.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

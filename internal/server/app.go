// Package server wires configuration, storage backends and services together
// and runs the REST API and the gRPC health server until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/recipeapi/internal/logging"
	"github.com/dmitrijs2005/recipeapi/internal/server/cache"
	"github.com/dmitrijs2005/recipeapi/internal/server/config"
	"github.com/dmitrijs2005/recipeapi/internal/server/httpapi"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/attributes"
	"github.com/dmitrijs2005/recipeapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/recipeapi/internal/server/services"
	"github.com/dmitrijs2005/recipeapi/internal/server/storage"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/recipeapi/internal/server/grpc"
)

// tokenPurgeInterval is how often expired refresh tokens are removed.
const tokenPurgeInterval = time.Hour

type App struct {
	config            *config.Config
	logger            logging.Logger
	db                *sql.DB
	userService       *services.UserService
	recipeService     *services.RecipeService
	tagService        *services.AttributeService
	ingredientService *services.AttributeService
	closers           []func() error
}

// OpenDB connects to Postgres through the pgx stdlib driver and applies
// pending migrations.
func OpenDB(ctx context.Context, dsn string, m repomanager.RepositoryManager) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return db, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	m := repomanager.NewPostgresRepositoryManager()

	db, err := OpenDB(ctx, c.DatabaseDSN, m)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	app.closers = append(app.closers, db.Close)

	var userCache services.UserCache
	if c.RedisAddr != "" {
		rc, err := cache.Connect(ctx, c.RedisAddr, c.RedisPassword)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.closers = append(app.closers, rc.Close)
		userCache = cache.NewRedisUserCache(rc, c.UserCacheTTL, logger)
	}

	images, err := storage.NewS3ImageStore(ctx, c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	app.userService = services.NewUserService(db, m, c, userCache)
	app.recipeService = services.NewRecipeService(db, m, images)
	app.tagService = services.NewAttributeService(db, m, attributes.Tags)
	app.ingredientService = services.NewAttributeService(db, m, attributes.Ingredients)

	return app, nil
}

// Close releases the database and cache connections.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		_ = app.closers[i]()
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.userService, app.recipeService, app.tagService, app.ingredientService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// runTokenJanitor deletes expired refresh tokens every interval until ctx
// is done.
func runTokenJanitor(ctx context.Context, p tokenPurger, interval time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Error(ctx, "purging refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "purged refresh tokens", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		runTokenJanitor(ctx, app.userService, tokenPurgeInterval, app.logger.With("module", "token_janitor"))
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
}

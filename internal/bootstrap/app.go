package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "docsort-backend/internal/auth"
	"docsort-backend/internal/documents"
	"docsort-backend/internal/services/health"
	"docsort-backend/internal/shared/auth"
	"docsort-backend/internal/shared/config"
	"docsort-backend/internal/shared/server"
	"docsort-backend/internal/shared/server/middleware"
	"docsort-backend/internal/shared/storage/db"
	"docsort-backend/internal/shared/storage/object"
	localstore "docsort-backend/internal/shared/storage/object/local"
	s3store "docsort-backend/internal/shared/storage/object/s3"
	"docsort-backend/internal/shared/telemetry"
	"docsort-backend/internal/uploads"
	"docsort-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Tokens           *auth.Issuer
	DocumentsRepo    documents.Repo
	UsersRepo        users.Repo
	DocumentsService *documents.Service
	UsersService     *users.Service
	DocumentsHandler *documents.Handler
	UsersHandler     *users.Handler
	MeHandler        *users.MeHandler
	UploadsHandler   *uploads.Handler
	GoogleAuth       *googleauth.GoogleService
	Health           *health.Service
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	return BuildContext(context.Background(), cfg)
}

// BuildContext is Build with a caller-supplied context for connecting to
// backing services.
func BuildContext(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	tokens, err := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil && cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Tokens: tokens,
		Health: health.NewService(sqlDB),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	public := []server.RouteRegistrar{app.UsersHandler}
	if app.GoogleAuth.Configured() {
		public = append(public, app.GoogleAuth)
	}
	protected := []server.RouteRegistrar{app.DocumentsHandler, app.MeHandler}
	if app.UploadsHandler != nil {
		protected = append(protected, app.UploadsHandler)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    app.Config,
		Verifier:  app.Tokens,
		Health:    app.Health,
		Public:    public,
		Protected: protected,
		Limiter:   middleware.NewRateLimiter(nil),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_storage", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_storage", map[string]any{
				"reason": "database connect failed",
				"error":  err,
			})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) error {
	var docRepo documents.Repo
	var userRepo users.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	docSvc := documents.NewService(docRepo, app.Store)
	userSvc := users.NewService(userRepo, app.Tokens)

	app.DocumentsRepo = docRepo
	app.UsersRepo = userRepo
	app.DocumentsService = docSvc
	app.UsersService = userSvc
	app.DocumentsHandler = documents.NewHandler(docSvc, app.Config.MaxUploadBytes)
	app.UsersHandler = users.NewHandler(userSvc)
	app.MeHandler = users.NewMeHandler(userSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
	if presigner, ok := app.Store.(object.Presigner); ok {
		app.UploadsHandler = uploads.NewHandler(presigner, app.Config.MaxUploadBytes)
	}

	if app.DocumentsHandler == nil || app.UsersHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/affeed/affeed/internal/config"
	"github.com/affeed/affeed/internal/db"
	"github.com/affeed/affeed/internal/repository"
	"github.com/affeed/affeed/internal/service"
	"github.com/affeed/affeed/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Storage         storage.Storage
	SessionService  *service.SessionService
	ComposerService *service.ComposerService
	FeedService     *service.FeedService
	ShareService    *service.ShareService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations (creates tables and seeds the roster)
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	postRepository := repository.NewPostRepository(database)

	// Storage
	blobStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Sessions evicted by expiry must not leak their draft media. The
	// composer is wired after the store, hence the indirection.
	var composerService *service.ComposerService
	sessionStore := repository.NewSessionStore(cfg.SessionExpiry, func(s repository.Session) {
		if composerService != nil {
			composerService.ReleaseDraftMedia(s.Draft)
		}
	})

	// Services
	captionService, err := service.NewCaptionService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize caption service: %v", err)
	}

	composerService = service.NewComposerService(
		sessionStore,
		postRepository,
		userRepository,
		blobStorage,
		captionService,
		cfg.MaxUploadSize,
	)
	sessionService := service.NewSessionService(
		userRepository,
		sessionStore,
		composerService,
		cfg.JWTSecret,
		cfg.SessionExpiry,
		cfg.IsProduction(),
	)
	feedService := service.NewFeedService(postRepository, userRepository, blobStorage)
	shareService := service.NewShareService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Storage:         blobStorage,
		SessionService:  sessionService,
		ComposerService: composerService,
		FeedService:     feedService,
		ShareService:    shareService,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}

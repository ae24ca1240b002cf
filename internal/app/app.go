package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acadex/server/internal/module/auth"
	"github.com/acadex/server/internal/module/auth/oauth"
	"github.com/acadex/server/internal/module/project"
	"github.com/acadex/server/internal/module/user"
	sharedcache "github.com/acadex/server/internal/shared/cache"
	"github.com/acadex/server/internal/shared/config"
	"github.com/acadex/server/internal/shared/database"
	"github.com/acadex/server/internal/shared/logger"
	"github.com/acadex/server/internal/shared/metrics"
	"github.com/acadex/server/internal/shared/middleware"
)

// App wires the modules together and owns their lifecycles.
type App struct {
	config  *config.Config
	db      *gorm.DB
	redis   redis.UniversalClient
	router  *gin.Engine
	logger  *zap.Logger
	metrics *metrics.Metrics

	// Modules
	authHandler    *auth.Handler
	authService    *auth.Service
	userHandler    *user.Handler
	userAdmin      *user.AdminHandler
	projectHandler *project.Handler
	projectAdmin   *project.AdminHandler
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.New(prometheus.DefaultRegisterer, "acadex"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if cfg.Database.MigrationsPath != "" {
		if err := database.Migrate(db, cfg.Database.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	// Redis is optional; OAuth state and login throttling fall back to
	// in-process implementations without it.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, using in-memory fallbacks", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initModules constructs services and handlers in dependency order.
func (a *App) initModules() error {
	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret:             a.config.Auth.JWTSecret,
		AccessTokenExpiry:  a.config.Auth.AccessTokenExpiry,
		RefreshTokenExpiry: a.config.Auth.RefreshTokenExpiry,
		Issuer:             "acadex",
	})

	userRepo := user.NewRepository(a.db)
	tokenRepo := auth.NewRefreshTokenRepository(a.db)

	// Auth module
	var stateStore auth.StateStore
	var limiter auth.RateLimiter
	if a.redis != nil {
		stateStore = auth.NewRedisStateStore(a.redis, 0)
		limiter = auth.NewLoginRateLimiter(a.redis, a.config.Auth.LoginRateLimit, a.config.Auth.LoginRateWindow)
	} else {
		stateStore = auth.NewMemoryStateStore(0)
		limiter = auth.NopRateLimiter{}
	}

	providers := oauth.NewProviders(
		oauthConfig(&a.config.OAuth.Google),
		oauthConfig(&a.config.OAuth.GitHub),
	)

	a.authService = auth.NewService(
		userRepo,
		tokenRepo,
		jwtManager,
		providers,
		stateStore,
		limiter,
		a.metrics,
		a.logger,
	)
	a.authHandler = auth.NewHandler(a.authService)

	// User module
	userService := user.NewService(userRepo, tokenRepo, &a.config.Auth, a.logger)
	a.userHandler = user.NewHandler(userService)
	a.userAdmin = user.NewAdminHandler(userService)

	// Project module
	projectRepo := project.NewRepository(a.db)
	projectService := project.NewService(projectRepo, userRepo, a.metrics, a.logger)
	a.projectHandler = project.NewHandler(projectService)
	a.projectAdmin = project.NewAdminHandler(projectService)

	return nil
}

// oauthConfig converts a configured provider entry, or nil when the
// provider is not enabled.
func oauthConfig(cfg *config.OAuthProviderConfig) *oauth.Config {
	if !cfg.Enabled() {
		return nil
	}
	return &oauth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
	}
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")

	// The middleware package owns the token contract; the auth service
	// satisfies it through this adapter.
	validator := middleware.ValidatorFunc(func(token string) (*middleware.Claims, error) {
		claims, err := a.authService.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:  claims.UserID,
			Email:   claims.Email,
			IsGuest: claims.IsGuest,
		}, nil
	})

	public := v1.Group("")
	protected := v1.Group("")
	protected.Use(middleware.RequireAuth(validator))

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireAuth(validator), middleware.RequireAdmin(&a.config.Auth))

	a.authHandler.RegisterRoutes(public)
	a.authHandler.RegisterProtectedRoutes(protected)

	a.userHandler.RegisterProtectedRoutes(protected)
	a.userAdmin.RegisterRoutes(admin)

	a.projectHandler.RegisterProtectedRoutes(protected)
	a.projectAdmin.RegisterRoutes(admin)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
}

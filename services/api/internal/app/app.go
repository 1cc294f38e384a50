package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedfinder/pkg/cache"
	"feedfinder/pkg/config"
	"feedfinder/pkg/database"
	"feedfinder/pkg/jwt"
	"feedfinder/pkg/logger"
	"feedfinder/pkg/middleware"
	"feedfinder/pkg/queue"
	"feedfinder/pkg/s3"
	apiHTTP "feedfinder/services/api/internal/controller/http"
	"feedfinder/services/api/internal/repo/persistent"
	"feedfinder/services/api/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "feedfinder/services/api/docs" // Swagger docs
)

// Requests per window. The IP limit is looser since clients behind one NAT
// share it.
const (
	ipRateLimit     = 300
	userRateLimit   = 100
	rateLimitWindow = time.Minute
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	jwtService  *jwt.Service
	queueClient *queue.Client
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v (CSRF tokens kept in memory, no rate limit)", err)
		redisClient = nil
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v (uploads disabled)", err)
		s3Client = nil
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
		queueClient = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		jwtService:  jwt.NewService(cfg.JWTSecret),
		queueClient: queueClient,
	}, nil
}

// Optional backends are handed on as untyped nils so the consumers' nil
// checks see them as missing.
func (a *App) cmdable() redis.Cmdable {
	if a.redisClient == nil {
		return nil
	}
	return a.redisClient
}

func (a *App) storage() usecase.Storage {
	if a.s3Client == nil {
		return nil
	}
	return a.s3Client
}

func (a *App) publisher() queue.Publisher {
	if a.queueClient == nil {
		return queue.NewAsyncPublisher(nil, a.log)
	}
	return queue.NewAsyncPublisher(a.queueClient, a.log)
}

func (a *App) csrfStore() middleware.CSRFStore {
	if a.redisClient == nil {
		return middleware.NewMemoryCSRFStore()
	}
	return middleware.NewRedisCSRFStore(a.redisClient)
}

func (a *App) Run() error {
	// Initialize repositories
	userRepo := persistent.NewUserRepository(a.db)
	sessionRepo := persistent.NewSessionRepository(a.db)
	followRepo := persistent.NewFollowRepository(a.db)
	postRepo := persistent.NewPostRepository(a.db)
	ratingRepo := persistent.NewRatingRepository(a.db)

	// Initialize use cases and routes
	publisher := a.publisher()
	gin.SetMode(gin.ReleaseMode)
	r := newRouter(routerDeps{
		cfg:       a.cfg,
		log:       a.log,
		jwt:       a.jwtService,
		redis:     a.cmdable(),
		csrfStore: a.csrfStore(),
		auth:      usecase.NewAuthUseCase(userRepo, sessionRepo, a.jwtService, a.log),
		posts:     usecase.NewPostUseCase(postRepo, userRepo, a.storage(), a.cmdable(), publisher, a.log),
		profiles:  usecase.NewProfileUseCase(userRepo, postRepo, followRepo, ratingRepo, publisher, a.log),
		feeds:     usecase.NewFeedUseCase(postRepo, userRepo, followRepo, a.cmdable(), a.log),
	})

	// Create HTTP server
	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		a.log.Info("API starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

type routerDeps struct {
	cfg       *config.Config
	log       *logger.Logger
	jwt       *jwt.Service
	redis     redis.Cmdable
	csrfStore middleware.CSRFStore

	auth     usecase.AuthUseCase
	posts    usecase.PostUseCase
	profiles usecase.ProfileUseCase
	feeds    usecase.FeedUseCase
}

func newRouter(d routerDeps) *gin.Engine {
	authHandler := apiHTTP.NewAuthHandler(d.auth, d.cfg.CookieSecure, d.log)
	postHandler := apiHTTP.NewPostHandler(d.posts, d.log)
	profileHandler := apiHTTP.NewProfileHandler(d.profiles, d.log)
	feedHandler := apiHTTP.NewFeedHandler(d.feeds, d.log)

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	// The SPA sends cookies, so origins are listed rather than "*".
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.CSRFHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	csrf := middleware.NewCSRF(d.csrfStore, d.cfg.CookieSecure, d.log)
	protect := csrf.Protect()
	auth := middleware.AuthMiddleware(d.jwt, d.auth)
	optional := middleware.OptionalAuth(d.jwt, d.auth)
	perUser := middleware.UserRateLimitMiddleware(d.redis, userRateLimit, rateLimitWindow)
	admin := middleware.RequireAdmin()

	api := r.Group("/api", middleware.RateLimitMiddleware(d.redis, ipRateLimit, rateLimitWindow))
	{
		api.GET("/csrf-token", csrf.IssueToken)
		api.POST("/login", protect, authHandler.Login)
		api.POST("/register", protect, authHandler.Register)
		api.POST("/refresh", authHandler.Refresh)

		api.GET("/posts/public", postHandler.PublicPosts)
		api.GET("/profile/:id/stats", profileHandler.GetStats)
		api.GET("/rating/:email", profileHandler.GetRating)
		api.GET("/friends/:id", profileHandler.GetFriends)
	}

	// Anonymous or logged in; the viewer decides what exclusive content shows.
	viewer := api.Group("", optional, perUser)
	{
		viewer.GET("/posts/search", postHandler.SearchPosts)
		viewer.GET("/posts/user/:id", postHandler.UserPosts)
		viewer.GET("/profile/:id", profileHandler.GetProfile)
	}

	member := api.Group("", auth, perUser)
	{
		member.POST("/logout", protect, authHandler.Logout)
		member.GET("/verify-session", authHandler.VerifySession)

		member.GET("/posts/following", feedHandler.FollowingPosts)
		member.POST("/posts", protect, postHandler.CreatePost)
		member.POST("/upload", protect, postHandler.Upload)

		member.PUT("/profile/update", protect, profileHandler.UpdateOwnProfile)
		member.PUT("/profile/:id", protect, profileHandler.UpdateProfile)
		member.POST("/rate", protect, profileHandler.Rate)
		member.POST("/friends/:id", protect, profileHandler.Follow)
		member.POST("/premium/upgrade", protect, profileHandler.UpgradePremium)

		moderation := member.Group("/admin", admin)
		moderation.GET("/posts", postHandler.AdminPosts)
		moderation.DELETE("/posts/:id", protect, postHandler.DeleteAdminPost)
	}

	return r
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down API...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop accepting requests before the backends go away.
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	sqlDB, err := a.db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	a.log.Info("API exited")
	return nil
}

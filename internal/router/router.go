// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/plugin-marketplace/internal/config"
	"github.com/javajoker/plugin-marketplace/internal/handlers"
	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/middleware"
	"github.com/javajoker/plugin-marketplace/internal/services"
	"github.com/javajoker/plugin-marketplace/internal/storage"
)

// formOverhead is the room left for text fields and multipart framing on
// top of the file size limits.
const formOverhead = 1 << 20

// Dependencies are the long-lived resources the HTTP layer is built on.
// CatalogCache, Metrics, AuditLogger and RateLimiters are optional.
type Dependencies struct {
	DB           *gorm.DB
	Config       *config.Config
	Blobs        storage.BlobStore
	CatalogCache services.CatalogCache
	Metrics      *metrics.Metrics
	AuditLogger  *middleware.AuditLogger
	RateLimiters *middleware.RateLimiters
}

func Initialize(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	rateLimits := deps.RateLimiters
	if rateLimits == nil {
		rateLimits = &middleware.RateLimiters{}
	}

	// Initialize services
	pluginStore := services.NewPluginStore(deps.DB)
	storageService := services.NewStorageService(deps.Blobs, cfg.Storage, deps.Metrics)
	pluginService := services.NewPluginService(pluginStore, storageService, deps.CatalogCache, deps.Metrics)
	catalogService := services.NewCatalogService(pluginStore, deps.CatalogCache, deps.Metrics)
	entitlementService := services.NewEntitlementService(deps.DB, pluginStore, storageService, deps.Metrics)
	ratingService := services.NewRatingService(pluginStore, deps.CatalogCache, deps.Metrics)
	authService := services.NewAuthService(deps.DB, cfg)
	userService := services.NewUserService(deps.DB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, entitlementService)
	pluginHandler := handlers.NewPluginHandler(
		pluginService,
		catalogService,
		entitlementService,
		ratingService,
		cfg.Storage.MaxArtifactSize+cfg.Storage.MaxThumbnailSize+formOverhead,
	)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(rateLimits.GeneralRateLimit())
	if deps.AuditLogger != nil {
		r.Use(deps.AuditLogger.Middleware())
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Authentication routes
		auth := api.Group("/auth")
		auth.Use(rateLimits.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// User routes
		users := api.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.PUT("/profile", userHandler.UpdateProfile)
			users.GET("/purchases", userHandler.GetPurchases)
		}

		// Plugin routes
		plugins := api.Group("/plugins")
		{
			plugins.GET("", middleware.OptionalAuth(), pluginHandler.GetPlugins)
			plugins.GET("/featured", pluginHandler.GetFeaturedPlugins)
			plugins.GET("/:id", middleware.OptionalAuth(), pluginHandler.GetPlugin)
			plugins.GET("/:id/versions", pluginHandler.GetPluginVersions)
			plugins.GET("/:id/thumbnail", pluginHandler.GetThumbnail)

			// Authenticated routes
			protected := plugins.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", rateLimits.UploadRateLimit(), pluginHandler.CreatePlugin)
				protected.GET("/my-plugins", pluginHandler.GetMyPlugins)
				protected.PUT("/:id", rateLimits.UploadRateLimit(), pluginHandler.UpdatePlugin)
				protected.DELETE("/:id", pluginHandler.DeletePlugin)
				protected.POST("/:id/rate", pluginHandler.RatePlugin)
				protected.GET("/:id/rating", pluginHandler.GetUserRating)
				protected.POST("/:id/purchase", pluginHandler.PurchasePlugin)
				protected.GET("/:id/download", pluginHandler.DownloadPlugin)
			}
		}
	}

	return r
}

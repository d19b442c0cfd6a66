package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizops-suite/customer-import/internal/api/handlers"
	"github.com/bizops-suite/customer-import/internal/api/middleware"
	"github.com/bizops-suite/customer-import/internal/config"
	"github.com/bizops-suite/customer-import/internal/importer"
	"github.com/bizops-suite/customer-import/internal/repository"
	"github.com/bizops-suite/customer-import/pkg/auth"
)

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(pool *pgxpool.Pool, cfg *config.Config, sessions *importer.Manager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.StructuredLogging())

	// Health check (no auth required)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "customer-import",
		})
	})

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(pool)
	importRepo := repository.NewImportRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	executor := importer.NewExecutor(customerRepo, nil)

	// Initialize handlers
	importHandler := handlers.NewImportHandler(sessions, customerRepo, importRepo, idempotencyRepo, executor, cfg)
	customerHandler := handlers.NewCustomerHandler(customerRepo)

	// API v1 routes (authenticated)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		// Import workflow — mutations require admin or analyst role
		v1.GET("/imports/template",
			middleware.RequireRole("admin", "analyst", "viewer"),
			importHandler.HandleTemplate,
		)
		v1.POST("/imports",
			middleware.RequireRole("admin", "analyst"),
			importHandler.HandleUpload,
		)
		v1.GET("/imports/:session_id",
			middleware.RequireRole("admin", "analyst", "viewer"),
			importHandler.HandleGetSession,
		)
		v1.PUT("/imports/:session_id/mapping",
			middleware.RequireRole("admin", "analyst"),
			importHandler.HandleUpdateMapping,
		)
		v1.POST("/imports/:session_id/preview",
			middleware.RequireRole("admin", "analyst"),
			importHandler.HandlePreview,
		)
		v1.POST("/imports/:session_id/execute",
			middleware.RequireRole("admin", "analyst"),
			importHandler.HandleExecute,
		)
		v1.GET("/imports/:session_id/progress",
			middleware.RequireRole("admin", "analyst", "viewer"),
			importHandler.HandleProgress,
		)
		v1.DELETE("/imports/:session_id",
			middleware.RequireRole("admin", "analyst"),
			importHandler.HandleDiscard,
		)

		// Customers — all authenticated roles can view
		v1.GET("/customers",
			middleware.RequireRole("admin", "analyst", "viewer"),
			customerHandler.HandleList,
		)
		v1.GET("/customers/:id",
			middleware.RequireRole("admin", "analyst", "viewer"),
			customerHandler.HandleGet,
		)
	}

	// Token generation endpoint (dev only — generates test JWTs)
	r.POST("/dev/token", devTokenHandler(cfg))

	return r
}

// devTokenHandler returns a handler that generates test JWTs for development.
func devTokenHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TenantID string `json:"tenant_id"`
			UserID   string `json:"user_id"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "invalid request"})
			return
		}

		tenantID, err := uuid.Parse(req.TenantID)
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid tenant_id"})
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid user_id"})
			return
		}
		if req.Role == "" {
			req.Role = "admin"
		}

		token, err := auth.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, tenantID, userID, req.Role, cfg.JWT.ExpiryHours)
		if err != nil {
			c.JSON(500, gin.H{"error": "failed to generate token"})
			return
		}

		c.JSON(200, gin.H{"token": token})
	}
}

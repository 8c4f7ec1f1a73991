// internal/router/router.go
package router

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/trendora/admin-backend/internal/config"
	"github.com/trendora/admin-backend/internal/handlers"
	"github.com/trendora/admin-backend/internal/middleware"
	"github.com/trendora/admin-backend/internal/services"
	"github.com/trendora/admin-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *services.DraftService) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	authService := services.NewAuthService(db, cfg)
	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db)
	supplierService := services.NewSupplierService(db)
	reviewService := services.NewReviewService(db)
	userService := services.NewUserService(db)
	draftService := services.NewDraftService(storageService, categoryService, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productHandler := handlers.NewProductHandler(productService, reviewService)
	supplierHandler := handlers.NewSupplierHandler(supplierService, productService)
	userHandler := handlers.NewUserHandler(userService)
	uploadHandler := handlers.NewUploadHandler(storageService)
	draftHandler := handlers.NewDraftHandler(draftService, productService, cfg)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Uploads.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Public catalog routes
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)
			products.GET("/:id/reviews", productHandler.GetProductReviews)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.GetCategories)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			// Category management
			adminCategories := admin.Group("/categories")
			{
				adminCategories.POST("", categoryHandler.CreateCategory)
				adminCategories.PUT("/:id", categoryHandler.UpdateCategory)
				adminCategories.DELETE("/:id", categoryHandler.DeleteCategory)
				adminCategories.POST("/:id/subcategories", categoryHandler.CreateSubcategory)
			}
			admin.DELETE("/subcategories/:id", categoryHandler.DeleteSubcategory)

			// Catalog management
			admin.DELETE("/products/:id", productHandler.DeleteProduct)
			admin.DELETE("/reviews/:id", productHandler.DeleteReview)

			// Supplier management
			adminSuppliers := admin.Group("/suppliers")
			{
				adminSuppliers.GET("", supplierHandler.GetSuppliers)
				adminSuppliers.POST("/:id/approve", supplierHandler.ApproveSupplier)
				adminSuppliers.POST("/:id/reject", supplierHandler.RejectSupplier)
			}

			// Supplier product approval queue
			adminSupplierProducts := admin.Group("/supplier-products")
			{
				adminSupplierProducts.GET("", supplierHandler.GetSupplierProducts)
				adminSupplierProducts.GET("/:id", supplierHandler.GetSupplierProduct)
				adminSupplierProducts.POST("/:id/approve", supplierHandler.ApproveSupplierProduct)
				adminSupplierProducts.POST("/:id/reject", supplierHandler.RejectSupplierProduct)
				adminSupplierProducts.DELETE("/:id", supplierHandler.DeleteSupplierProduct)
			}

			// User management
			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", userHandler.GetUsers)
				adminUsers.GET("/:id", userHandler.GetUser)
				adminUsers.POST("/:id/suspend", userHandler.SuspendUser)
				adminUsers.POST("/:id/activate", userHandler.ActivateUser)
				adminUsers.GET("/:id/orders", userHandler.GetUserOrders)
			}

			// Direct uploads
			admin.POST("/uploads", middleware.UploadRateLimit(), uploadHandler.UploadImage)

			// Draft editing sessions
			drafts := admin.Group("/drafts")
			{
				drafts.POST("", draftHandler.OpenDraft)
				drafts.GET("/:id", draftHandler.GetDraft)
				drafts.PATCH("/:id", draftHandler.UpdateDraft)
				drafts.DELETE("/:id", draftHandler.CloseDraft)
				drafts.GET("/:id/categories", draftHandler.GetDraftCategories)
				drafts.POST("/:id/images", middleware.UploadRateLimit(), draftHandler.SelectImages)
				drafts.DELETE("/:id/images/:assetId", draftHandler.RemoveImage)
				drafts.POST("/:id/collections/:collection", draftHandler.AppendCollectionItem)
				drafts.PUT("/:id/collections/:collection/:index", draftHandler.UpdateCollectionItem)
				drafts.DELETE("/:id/collections/:collection/:index", draftHandler.RemoveCollectionItem)
				drafts.POST("/:id/features", draftHandler.AddFeature)
				drafts.PUT("/:id/features/:index", draftHandler.UpdateFeature)
				drafts.DELETE("/:id/features/:index", draftHandler.RemoveFeature)
				drafts.POST("/:id/features/:index/image", middleware.UploadRateLimit(), draftHandler.SetFeatureImage)
				drafts.DELETE("/:id/features/:index/image", draftHandler.ClearFeatureImage)
				drafts.POST("/:id/submit", draftHandler.SubmitDraft)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r, draftService
}

package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"institute-reviews/cmd/api/handlers"
	"institute-reviews/cmd/api/middleware"
	"institute-reviews/cmd/api/ratelimit"
	"institute-reviews/cmd/api/services"
	_ "institute-reviews/docs"
)

type Deps struct {
	Reviews *services.ReviewService
	Auth    *services.AuthService
	Store   handlers.Pinger
	// Limiter guards mutating review routes; nil disables limiting.
	Limiter ratelimit.Limiter
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	// Health check
	r.GET("/health", handlers.HealthHandler(d.Store))

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	requireUser := middleware.RequireUser(d.Auth)
	limit := middleware.RateLimit(d.Limiter, "reviews")

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/reviews", middleware.OptionalUser(d.Auth), handlers.ListReviewsHandler(d.Reviews))
		api.GET("/reviews/summary", handlers.ReviewSummaryHandler(d.Reviews))
		api.GET("/reviews/:id", handlers.GetReviewHandler(d.Reviews))
		api.POST("/reviews", requireUser, limit, handlers.CreateReviewHandler(d.Reviews))
		api.PUT("/reviews/:id/reply", requireUser, middleware.RequireAdmin(), handlers.ReplyReviewHandler(d.Reviews))
		api.PUT("/reviews/:id/:reaction", requireUser, limit, handlers.ReactReviewHandler(d.Reviews))
		api.DELETE("/reviews/:id", requireUser, handlers.DeleteReviewHandler(d.Reviews))

		authGroup := api.Group("/auth")
		authGroup.POST("/register", handlers.RegisterHandler(d.Auth))
		authGroup.POST("/login", handlers.LoginHandler(d.Auth))
		authGroup.GET("/me", requireUser, handlers.MeHandler(d.Auth))
	}

	return r
}

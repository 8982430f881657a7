package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opaque/pkg/logger"
	"opaque/pkg/metrics"
	"opaque/reviews-service/internal/app/reviews/service"
)

const serviceName = "reviews-service"

// Router - зависимости для SetupRoutes
type Router struct {
	Reviews     *ReviewHandler
	Admin       *AdminHandler
	Auth        *AuthHandler
	AuthMW      *AuthMiddleware
	RateLimiter *RateLimiter
	CORSOrigins []string
	HealthCheck func(c *gin.Context) error
}

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(r Router) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	// request_id + одна JSON запись на запрос (ELK Stack)
	router.Use(logger.RequestLogger())

	router.Use(metrics.GinMiddleware(serviceName, "/health", "/metrics"))

	// CORS для React фронтенда
	router.Use(cors.New(cors.Config{
		AllowOrigins:     r.CORSOrigins,
		AllowWildcard:    true,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		if r.HealthCheck != nil {
			if err := r.HealthCheck(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": serviceName,
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Публичный API для сайта
	api := router.Group("/api/reviews")
	{
		api.GET("/", r.Reviews.ListReviews)
		api.GET("/stats", r.Reviews.RatingStats)
		api.GET("/:id", r.Reviews.GetReview)

		create := []gin.HandlerFunc{r.Reviews.CreateReview}
		if r.RateLimiter != nil {
			create = append([]gin.HandlerFunc{r.RateLimiter.Middleware()}, create...)
		}
		api.POST("/", create...)
	}

	admin := router.Group("/admin")
	{
		login := []gin.HandlerFunc{r.Auth.Login}
		if r.RateLimiter != nil {
			login = append([]gin.HandlerFunc{r.RateLimiter.Middleware()}, login...)
		}
		admin.POST("/login", login...)

		reviews := admin.Group("/reviews")
		reviews.Use(r.AuthMW.Authenticate())
		{
			reviews.GET("", r.AuthMW.RequirePermission(service.PermReviewView), r.Admin.ListReviews)
			reviews.GET("/:id", r.AuthMW.RequirePermission(service.PermReviewView), r.Admin.GetReview)
			reviews.PATCH("/:id", r.AuthMW.RequirePermission(service.PermReviewChange), r.Admin.UpdateReview)
			reviews.DELETE("/:id", r.AuthMW.RequirePermission(service.PermReviewDelete), r.Admin.DeleteReview)
		}
	}

	return router
}

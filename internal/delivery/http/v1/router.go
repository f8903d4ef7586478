package v1

import (
	"net/http"

	"network20-backend/config"
	"network20-backend/internal/delivery/http/middleware"
	"network20-backend/internal/delivery/http/response"
	"network20-backend/internal/domain"
	"network20-backend/internal/usecase"
	"network20-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	Store    domain.ProfileStore
	JobUC    domain.JobUsecase
	HealthUC usecase.HealthUsecase
	// Verifier is nil in local mode
	Verifier    middleware.TokenVerifier
	AuthLimiter *middleware.RateLimiter
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL, gin.Mode() == gin.ReleaseMode)) // CORS must be first
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	v1.GET("/health", func(c *gin.Context) {
		result := deps.HealthUC.Check(c.Request.Context())
		if result["status"] != "ok" {
			response.Error(c, http.StatusServiceUnavailable, "System degraded", result)
			return
		}
		response.Success(c, http.StatusOK, "System operational", result)
	})
	v1.GET("/metrics", gin.WrapH(metrics.Handler()))
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.AuthLimiter != nil {
		limit = deps.AuthLimiter.Handler()
	}

	api := v1.Group("")
	api.Use(middleware.OptionalAuth(deps.Verifier))
	{
		NewAuthHandler(api, deps.Store, limit)
		NewProfileHandler(api, deps.Store)
		NewJobHandler(api, deps.JobUC)
	}

	return r
}

package router

import (
	"net/http"

	"user-pool-service/internal/adapter/gin/handler"
	"user-pool-service/internal/adapter/gin/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// SetupRouter configures and returns a Gin router with all routes and middleware.
// rateLimiter may be nil.
func SetupRouter(
	userHandler *handler.UserHandler,
	systemHandler *handler.SystemHandler,
	rateLimiter *middleware.RateLimiter,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(rateLimiter.Handler())

	routes := []route{
		{http.MethodGet, "/welcome", systemHandler.Welcome},
		{http.MethodGet, "/users", userHandler.ListUsers},
		{http.MethodPost, "/users", userHandler.CreateUser},
		{http.MethodGet, "/pool-status", systemHandler.PoolStatus},
		{http.MethodGet, "/health", systemHandler.Health},
	}
	for _, r := range routes {
		router.Handle(r.method, r.path, r.handler)
	}

	return router
}

package router

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/pageza/nutritionist/backend/config"
	"github.com/pageza/nutritionist/backend/internal/api"
	"github.com/pageza/nutritionist/backend/internal/metrics"
	"github.com/pageza/nutritionist/backend/internal/middleware"
	"go.uber.org/zap"
)

// maxBodySize leaves room for a 10MB image plus multipart framing
const maxBodySize = 12 << 20

// SetupRouter configures the middleware chain and the application routes
func SetupRouter(cfg *config.Config, svc api.Services, m *metrics.Metrics, log *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(requestid.New())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.BodySizeLimit(maxBodySize, log))
	router.Use(middleware.ErrorHandler())
	if m != nil {
		router.Use(m.Middleware())
	}

	api.RegisterRoutes(router, svc, m, log)
	return router
}

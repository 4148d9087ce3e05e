package server

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/openbeelab/beemon/internal/apiary"
	"github.com/openbeelab/beemon/internal/auth"
	"github.com/openbeelab/beemon/internal/config"
	"github.com/openbeelab/beemon/internal/device"
	"github.com/openbeelab/beemon/internal/hive"
	"github.com/openbeelab/beemon/internal/inspection"
	"github.com/openbeelab/beemon/internal/logger"
	"github.com/openbeelab/beemon/internal/metrics"
	"github.com/openbeelab/beemon/internal/research"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config            config.Config
	Logger            *zap.Logger
	DB                *pgxpool.Pool
	ObjectStore       *minio.Client
	Telemetry         client.Client
	AuthService       *auth.Service
	ApiaryService     *apiary.Service
	HiveService       *hive.Service
	DeviceService     *device.Service
	InspectionService *inspection.Service
	ResearchService   *research.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Logger != nil {
		router.Use(logger.Middleware(deps.Logger))
	}
	metrics.InitMetrics()
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService, deps.Logger)

		protected := api.Group("/")
		protected.Use(auth.AuthMiddleware(deps.AuthService))

		if deps.ApiaryService != nil {
			apiary.RegisterRoutes(protected, deps.ApiaryService)
		}
		if deps.HiveService != nil {
			hive.RegisterRoutes(protected, deps.HiveService)
		}
		if deps.DeviceService != nil {
			device.RegisterRoutes(protected, deps.DeviceService)
		}
		if deps.InspectionService != nil {
			inspection.RegisterRoutes(protected, deps.InspectionService)
		}
		if deps.ResearchService != nil {
			research.RegisterRoutes(protected, deps.ResearchService)

			admin := protected.Group("/")
			admin.Use(auth.AdminRequired())
			research.RegisterAdminRoutes(admin, deps.ResearchService)
		}
	}

	return router
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"grid-reservation/internal/handler/api"
	"grid-reservation/internal/handler/middleware"
	"grid-reservation/internal/infra/metrics"
	"grid-reservation/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type RouterParams struct {
	fx.In

	Engine             *gin.Engine
	Config             config.Config
	Logger             *slog.Logger
	ReservationHandler *api.ReservationHandler
	UserHandler        *api.UserHandler
	Recorder           *metrics.Recorder
	Gatherer           prometheus.Gatherer
}

func NewRouter(p RouterParams) {
	setupMiddleware(p.Engine, p.Config, p.Logger, p.Recorder)
	setupRoutes(p.Engine, p.ReservationHandler, p.UserHandler, p.Gatherer)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger, cfg.Log))
	engine.Use(middleware.MetricsMiddleware(recorder))
	engine.Use(middleware.ErrorHandler())
	engine.NoRoute(middleware.NoRoute)
}

func setupRoutes(engine *gin.Engine, reservationHandler *api.ReservationHandler, userHandler *api.UserHandler, gatherer prometheus.Gatherer) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	reservations := engine.Group("/reservation")
	{
		addRoutes(reservations, []route{
			{Method: http.MethodPost, Path: "/post", Handler: reservationHandler.Reserve},
			{Method: http.MethodGet, Path: "/getall", Handler: reservationHandler.ListAll},
			{Method: http.MethodDelete, Path: "/cancel", Handler: reservationHandler.Cancel},
			{Method: http.MethodGet, Path: "/getbytime", Handler: reservationHandler.ListByTime},
			{Method: http.MethodGet, Path: "/getbyuser", Handler: reservationHandler.ListByUser},
			{Method: http.MethodGet, Path: "/getbyequip", Handler: reservationHandler.ListByEquipment},
			{Method: http.MethodGet, Path: "/financial", Handler: reservationHandler.Financial},
			{Method: http.MethodGet, Path: "/equipment", Handler: reservationHandler.Catalog},
			{Method: http.MethodGet, Path: "/access", Handler: reservationHandler.Access},
		})

		users := reservations.Group("/user")
		addRoutes(users, []route{
			{Method: http.MethodGet, Path: "", Handler: userHandler.Login},
			{Method: http.MethodPost, Path: "/adduser", Handler: userHandler.AddUser},
			{Method: http.MethodPut, Path: "/changeuser", Handler: userHandler.ChangeRole},
			{Method: http.MethodDelete, Path: "/deleteuser", Handler: userHandler.RemoveUser},
			{Method: http.MethodGet, Path: "/getall", Handler: userHandler.ListUsers},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

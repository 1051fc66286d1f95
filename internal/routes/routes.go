package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lolo20020803/ProyectoSBC/internal/handlers"
	"github.com/Lolo20020803/ProyectoSBC/internal/middleware"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/websocket"
)

// DetectorDeps are the collaborators of the detector HTTP API.
type DetectorDeps struct {
	Detector handlers.Detector
	Control  chan bool
	Events   repository.MotionEventRepository
	Viewers  *websocket.HubService
	MQTT     func() (published, errors uint64) // nil without a broker
	APIKey   string
	LogDir   string // empty disables /api/logs
	LogName  string
	Logger   handlers.Logger
}

// SetupDetectorRoutes registers the detector API endpoints and wraps the mux
// with the API key middleware.
func SetupDetectorRoutes(deps DetectorDeps) http.Handler {
	mux := http.NewServeMux()

	var viewerCount func() int
	if deps.Viewers != nil {
		mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(deps.Viewers, deps.Logger))
		viewerCount = deps.Viewers.GetClientCount
	}
	if deps.Events != nil {
		mux.HandleFunc("/api/events", handlers.EventsHandler(deps.Events, deps.Logger))
	}
	mux.HandleFunc("/api/stats", handlers.StatsHandler(deps.Detector, viewerCount, deps.MQTT, deps.Logger))
	mux.HandleFunc("/api/gate", handlers.GateHandler(deps.Detector, deps.Control, deps.Logger))
	if deps.LogDir != "" {
		mux.HandleFunc("/api/logs", handlers.LogsHandler(deps.LogDir, deps.LogName, deps.Logger))
	}
	mux.HandleFunc("/health", handlers.HealthHandler("detector"))

	return middleware.AuthMiddleware(deps.APIKey, mux)
}

// SetupCounterRoutes builds the gin engine of the occupancy counter.
// /message stays open to the detector; /api requires the API key when set.
func SetupCounterRoutes(counter *handlers.CounterHandler, apiKey string, release bool) *gin.Engine {
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.POST("/message", counter.PostMessage)

	api := router.Group("/api")
	api.Use(middleware.RequireAPIKey(apiKey))
	api.GET("/occupancy", counter.GetOccupancy)
	api.GET("/occupancy/history", counter.GetHistory)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "counter",
		})
	})

	return router
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lolo20020803/ProyectoSBC/internal/config"
	"github.com/Lolo20020803/ProyectoSBC/internal/handlers"
	"github.com/Lolo20020803/ProyectoSBC/internal/logger"
	"github.com/Lolo20020803/ProyectoSBC/internal/models"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository/sqlite"
	"github.com/Lolo20020803/ProyectoSBC/internal/routes"
	mqttsvc "github.com/Lolo20020803/ProyectoSBC/internal/services/mqtt"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/occupancy"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/sensors"
)

// CounterApp receives entering/leaving notifications, keeps the occupancy
// and publishes telemetry.
type CounterApp struct {
	config    *config.Config
	logger    *logger.Logger
	db        *sqlite.DB
	counter   *occupancy.Counter
	sensors   *sensors.Reader
	mqtt      *mqttsvc.Client
	telemetry *mqttsvc.TelemetryPublisher
	server    *http.Server
}

func NewCounterApp(cfg *config.Config, release bool) (*CounterApp, error) {
	log, err := logger.New(cfg.LogDirectory, "counter")
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	history := sqlite.NewOccupancyRepository(db)

	counter, err := occupancy.NewCounter(history, log)
	if err != nil {
		db.Close()
		log.Close()
		return nil, err
	}

	a := &CounterApp{
		config:  cfg,
		logger:  log,
		db:      db,
		counter: counter,
		sensors: sensors.NewFileReader(cfg.LightSensorPath, cfg.AirSensorPath, log),
	}

	if cfg.MQTT.Broker != "" {
		a.mqtt = mqttsvc.NewClient(cfg.MQTT, log)
		a.telemetry = mqttsvc.NewTelemetryPublisher(a.mqtt, cfg.MQTT.TelemetryTopic, cfg.TelemetryInterval, a.Snapshot, log)
	}

	router := routes.SetupCounterRoutes(handlers.NewCounterHandler(counter, history, log), cfg.APIKey, release)
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.CounterPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Snapshot reads the sensors and pairs them with the current occupancy.
func (a *CounterApp) Snapshot() models.Telemetry {
	light, air := a.sensors.Read()
	return models.Telemetry{
		Occupancy:    a.counter.Count(),
		LightPercent: light,
		AirPPM:       air,
	}
}

// Run serves notifications until ctx is done.
func (a *CounterApp) Run(ctx context.Context) error {
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)

	if a.mqtt != nil {
		if err := a.mqtt.Connect(ctx); err != nil {
			a.logger.Warning("MQTT unavailable, telemetry disabled until reconnect: %v", err)
		}
		g.Go(func() error {
			a.telemetry.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info("🚀 Occupancy counter listening on %s (occupancy=%d)", a.server.Addr, a.counter.Count())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("counter server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *CounterApp) close() {
	if a.mqtt != nil {
		published, errs := a.mqtt.Stats()
		a.logger.Info("📡 Telemetry published=%d errors=%d", published, errs)
		a.mqtt.Disconnect()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database: %v", err)
	}
	a.logger.Info("🛑 Counter stopped (occupancy=%d)", a.counter.Count())
	a.logger.Close()
}

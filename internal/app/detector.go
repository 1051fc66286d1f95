package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lolo20020803/ProyectoSBC/internal/config"
	"github.com/Lolo20020803/ProyectoSBC/internal/logger"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository/sqlite"
	"github.com/Lolo20020803/ProyectoSBC/internal/routes"
	"github.com/Lolo20020803/ProyectoSBC/internal/services"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/audio"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/motion"
	mqttsvc "github.com/Lolo20020803/ProyectoSBC/internal/services/mqtt"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/notify"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/vision"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/websocket"
)

const (
	shutdownTimeout  = 5 * time.Second
	notifyTimeout    = 3 * time.Second
	jpegQuality      = 80
	viewerQueueSize  = 16
	frameWorkerCount = 2
)

// DetectorApp captures frames, runs the motion processor and serves the
// detector API.
type DetectorApp struct {
	config    *config.Config
	logger    *logger.Logger
	db        *sqlite.DB
	camera    *vision.Camera
	processor *motion.Processor
	manager   *services.Manager
	hub       *websocket.HubService
	mqtt      *mqttsvc.Client
	gate      *mqttsvc.GateControl
	server    *http.Server

	frames  chan *motion.Frame
	control chan bool
	forward chan *motion.Frame
	results chan motion.Result
}

func NewDetectorApp(cfg *config.Config) (*DetectorApp, error) {
	log, err := logger.New(cfg.LogDirectory, "detector")
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	events := sqlite.NewMotionEventRepository(db)

	a := &DetectorApp{
		config:  cfg,
		logger:  log,
		db:      db,
		frames:  make(chan *motion.Frame, cfg.FrameQueueSize),
		control: make(chan bool, 1),
		forward: make(chan *motion.Frame, cfg.FrameQueueSize),
		results: make(chan motion.Result, cfg.FrameQueueSize),
	}

	pool := motion.NewFramePool(cfg.FrameWidth, cfg.FrameHeight, cfg.FrameBuffers)
	a.camera = vision.NewCamera(cfg.CameraDevice, pool, log)

	t := cfg.Tuning
	var sampler motion.AudioSampler
	if cfg.AudioDevice != "" {
		sampler = audio.NewDeviceSampler(cfg.AudioDevice, t.AudioSamples, t.AudioSampleRate, log)
	}
	var notifier motion.Notifier
	if cfg.NotifyURL != "" {
		notifier = notify.NewHTTPNotifier(cfg.NotifyURL, t.PostSendDelay, notifyTimeout)
	}

	a.processor = motion.NewProcessor(
		motion.ProcessorConfig{
			Camera:         cfg.CameraName,
			Marker:         image.Rect(t.Marker.X, t.Marker.Y, t.Marker.X+t.Marker.Width, t.Marker.Y+t.Marker.Height),
			AcquireTimeout: cfg.AcquireTimeout,
			PublishTimeout: cfg.PublishTimeout,
		},
		motion.Queues{
			Frames:  a.frames,
			Control: a.control,
			Forward: a.forward,
			Results: a.results,
		},
		motion.NewEstimator(vision.DiffCounter{}, t.BlockSize, t.BlockThreshold),
		motion.NewClassifier(t.MovementThreshold),
		motion.NewDispatcher(sampler, notifier, t.SettleDelay, log),
		vision.RectangleMarker{},
		log,
	)

	a.hub = websocket.NewHubService(viewerQueueSize, log)
	a.manager = services.NewManager(
		events,
		a.hub,
		func(f *motion.Frame) ([]byte, error) { return vision.EncodeJPEG(f, jpegQuality) },
		services.ManagerConfig{
			Camera:        cfg.CameraName,
			Retention:     time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
			EncodeWorkers: frameWorkerCount,
		},
		log,
	)

	if cfg.MQTT.Broker != "" {
		a.mqtt = mqttsvc.NewClient(cfg.MQTT, log)
		a.gate = mqttsvc.NewGateControl(a.control, log)
	}

	var mqttStats func() (uint64, uint64)
	if a.mqtt != nil {
		mqttStats = a.mqtt.Stats
	}

	a.server = &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: routes.SetupDetectorRoutes(routes.DetectorDeps{
			Detector: a.processor,
			Control:  a.control,
			Events:   events,
			Viewers:  a.hub,
			MQTT:     mqttStats,
			APIKey:   cfg.APIKey,
			LogDir:   cfg.LogDirectory,
			LogName:  "detector",
			Logger:   log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts every component and blocks until ctx is done, the camera stops
// or a component fails.
func (a *DetectorApp) Run(ctx context.Context) error {
	defer a.close()

	if a.mqtt != nil {
		if err := a.mqtt.Connect(ctx); err != nil {
			a.logger.Warning("MQTT unavailable, gate control over HTTP only: %v", err)
		} else if err := a.gate.Subscribe(a.mqtt, a.config.MQTT.ControlTopic); err != nil {
			a.logger.Warning("Failed to subscribe to %s: %v", a.config.MQTT.ControlTopic, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return a.camera.Run(gctx, a.frames)
	})

	a.manager.Start(gctx, a.results, a.forward)
	g.Go(func() error {
		defer close(a.forward)
		defer close(a.results)
		err := a.processor.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		a.logger.Info("🚀 Detector API listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("detector server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	// The camera closing its queue ends the processor without an error,
	// so the group context has to be cancelled here.
	g.Go(func() error {
		a.manager.Wait()
		if gctx.Err() == nil {
			a.logger.Warning("Frame source ended, stopping detector")
		}
		return errPipelineEnded
	})

	err := g.Wait()
	if errors.Is(err, errPipelineEnded) {
		err = nil
	}
	stats := a.processor.Stats()
	a.logger.Info("📊 Cycles=%d skipped=%d approaches=%d recedes=%d dropped=%d captured=%d stored=%d",
		stats.Cycles, stats.Skipped, stats.Approaches, stats.Recedes, stats.Dropped,
		a.camera.Captured(), a.manager.Stored())
	return err
}

var errPipelineEnded = errors.New("pipeline ended")

func (a *DetectorApp) close() {
	if a.mqtt != nil {
		published, errs := a.mqtt.Stats()
		a.logger.Info("📡 MQTT published=%d errors=%d", published, errs)
		a.mqtt.Disconnect()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database: %v", err)
	}
	a.logger.Info("🛑 Detector stopped")
	a.logger.Close()
}

package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/models"
)

// TelemetryPublisher periodically publishes a telemetry snapshot.
type TelemetryPublisher struct {
	publisher Publisher
	topic     string
	interval  time.Duration
	collect   func() models.Telemetry
	logger    Logger
}

func NewTelemetryPublisher(publisher Publisher, topic string, interval time.Duration, collect func() models.Telemetry, logger Logger) *TelemetryPublisher {
	if interval <= 0 {
		interval = time.Second
	}
	return &TelemetryPublisher{
		publisher: publisher,
		topic:     topic,
		interval:  interval,
		collect:   collect,
		logger:    logger,
	}
}

// Run publishes once per interval until ctx is done.
func (t *TelemetryPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("Telemetry publishing to %s every %v", t.topic, t.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.PublishOnce(); err != nil {
				t.logger.Warning("Telemetry publish failed: %v", err)
			}
		}
	}
}

func (t *TelemetryPublisher) PublishOnce() error {
	payload, err := json.Marshal(t.collect())
	if err != nil {
		return err
	}
	return t.publisher.Publish(t.topic, payload)
}

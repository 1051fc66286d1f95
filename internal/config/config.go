package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               int
	CounterPort        int
	APIKey             string
	DatabasePath       string
	LogDirectory       string
	CameraDevice       string
	CameraName         string
	FrameWidth         int
	FrameHeight        int
	FrameQueueSize     int
	FrameBuffers       int
	NotifyURL          string
	AudioDevice        string
	LightSensorPath    string
	AirSensorPath      string
	EventRetentionDays int
	TelemetryInterval  time.Duration
	AcquireTimeout     time.Duration // 0 waits forever
	PublishTimeout     time.Duration // 0 waits forever
	TuningFile         string
	MQTT               MQTTConfig
	Tuning             Tuning
}

// MQTTConfig contains MQTT broker settings. An empty Broker disables MQTT.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Token          string // device token, sent as the MQTT username
	ControlTopic   string
	TelemetryTopic string
	QoS            byte
}

// Tuning holds the detection constants. Zero values in a tuning file keep
// the defaults.
type Tuning struct {
	MovementThreshold int           `yaml:"movement_threshold"`
	BlockSize         int           `yaml:"block_size"`
	BlockThreshold    int           `yaml:"block_threshold"`
	Marker            Marker        `yaml:"marker"`
	SettleDelay       time.Duration `yaml:"settle_delay"`
	PostSendDelay     time.Duration `yaml:"post_send_delay"`
	AudioSamples      int           `yaml:"audio_samples"`
	AudioSampleRate   int           `yaml:"audio_sample_rate"`
}

// Marker is the rectangle drawn on frames with motion.
type Marker struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func DefaultTuning() Tuning {
	return Tuning{
		MovementThreshold: 50,
		BlockSize:         8,
		BlockThreshold:    15,
		Marker:            Marker{X: 0, Y: 0, Width: 20, Height: 20},
		SettleDelay:       750 * time.Millisecond,
		PostSendDelay:     1000 * time.Millisecond,
		AudioSamples:      1024,
		AudioSampleRate:   16000,
	}
}

// Load reads the configuration from the environment and, when TUNING_FILE
// is set, overlays the tuning constants from that YAML file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnvAsInt("PORT", 8081),
		CounterPort:        getEnvAsInt("COUNTER_PORT", 8080),
		APIKey:             getEnv("API_KEY", ""),
		DatabasePath:       getEnv("DATABASE_PATH", filepath.Join(".", "data", "occupancy.db")),
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
		CameraDevice:       getEnv("CAMERA_DEVICE", "0"),
		CameraName:         getEnv("CAMERA_NAME", "entrance"),
		FrameWidth:         getEnvAsInt("FRAME_WIDTH", 320),
		FrameHeight:        getEnvAsInt("FRAME_HEIGHT", 240),
		FrameQueueSize:     getEnvAsInt("FRAME_QUEUE_SIZE", 2),
		FrameBuffers:       getEnvAsInt("FRAME_BUFFERS", 4),
		NotifyURL:          getEnv("NOTIFY_URL", "http://localhost:8080/message"),
		AudioDevice:        getEnv("AUDIO_DEVICE", ""),
		LightSensorPath:    getEnv("LIGHT_SENSOR_PATH", ""),
		AirSensorPath:      getEnv("AIR_SENSOR_PATH", ""),
		EventRetentionDays: getEnvAsInt("EVENT_RETENTION_DAYS", 30),
		TelemetryInterval:  getEnvAsDuration("TELEMETRY_INTERVAL", time.Second),
		AcquireTimeout:     getEnvAsDuration("ACQUIRE_TIMEOUT", 5*time.Second),
		PublishTimeout:     getEnvAsDuration("PUBLISH_TIMEOUT", 5*time.Second),
		TuningFile:         getEnv("TUNING_FILE", ""),
		MQTT: MQTTConfig{
			Broker:         getEnv("MQTT_BROKER", ""),
			ClientID:       getEnv("MQTT_CLIENT_ID", "occupancy-sensor"),
			Token:          getEnv("MQTT_TOKEN", ""),
			ControlTopic:   getEnv("MQTT_CONTROL_TOPIC", "occupancy/detector/control"),
			TelemetryTopic: getEnv("MQTT_TELEMETRY_TOPIC", "v1/devices/me/telemetry"),
			QoS:            byte(getEnvAsInt("MQTT_QOS", 1)),
		},
		Tuning: DefaultTuning(),
	}

	if cfg.TuningFile != "" {
		if err := LoadTuning(cfg.TuningFile, &cfg.Tuning); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadTuning overlays the non-zero values of a YAML tuning file onto t.
func LoadTuning(path string, t *Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tuning file: %w", err)
	}

	var file Tuning
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse tuning file: %w", err)
	}

	if file.MovementThreshold != 0 {
		t.MovementThreshold = file.MovementThreshold
	}
	if file.BlockSize != 0 {
		t.BlockSize = file.BlockSize
	}
	if file.BlockThreshold != 0 {
		t.BlockThreshold = file.BlockThreshold
	}
	if file.Marker != (Marker{}) {
		t.Marker = file.Marker
	}
	if file.SettleDelay != 0 {
		t.SettleDelay = file.SettleDelay
	}
	if file.PostSendDelay != 0 {
		t.PostSendDelay = file.PostSendDelay
	}
	if file.AudioSamples != 0 {
		t.AudioSamples = file.AudioSamples
	}
	if file.AudioSampleRate != 0 {
		t.AudioSampleRate = file.AudioSampleRate
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.CounterPort <= 0 || c.CounterPort > 65535 {
		errs = append(errs, fmt.Errorf("counter port out of range: %d", c.CounterPort))
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		errs = append(errs, fmt.Errorf("frame size must be positive: %dx%d", c.FrameWidth, c.FrameHeight))
	}
	if c.FrameQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("frame queue size must be positive: %d", c.FrameQueueSize))
	}
	// Two frames are held per cycle, one more is filled by the camera.
	if c.FrameBuffers < 3 {
		errs = append(errs, fmt.Errorf("at least 3 frame buffers required: %d", c.FrameBuffers))
	}
	if c.AcquireTimeout < 0 || c.PublishTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.TelemetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("telemetry interval must be positive: %v", c.TelemetryInterval))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("invalid MQTT QoS: %d", c.MQTT.QoS))
	}

	t := c.Tuning
	if t.MovementThreshold <= 0 {
		errs = append(errs, fmt.Errorf("movement threshold must be positive: %d", t.MovementThreshold))
	}
	if t.BlockSize <= 0 || t.BlockThreshold <= 0 {
		errs = append(errs, fmt.Errorf("block size and threshold must be positive: %d/%d", t.BlockSize, t.BlockThreshold))
	}
	if t.Marker.Width <= 0 || t.Marker.Height <= 0 {
		errs = append(errs, fmt.Errorf("marker must have a positive size: %dx%d", t.Marker.Width, t.Marker.Height))
	}
	if t.SettleDelay < 0 || t.PostSendDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if t.AudioSamples <= 0 || t.AudioSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio capture must be positive: %d samples @ %d Hz", t.AudioSamples, t.AudioSampleRate))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

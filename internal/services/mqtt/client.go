// Package mqtt connects the detector and counter to an MQTT broker: gate
// control subscription and telemetry publishing.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Lolo20020803/ProyectoSBC/internal/config"
)

const (
	connectTimeout   = 5 * time.Second
	publishTimeout   = 2 * time.Second
	subscribeTimeout = 5 * time.Second
)

// Logger is the leveled logger used by this package.
type Logger interface {
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher publishes a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Client wraps a paho client with reconnect and bounded waits.
type Client struct {
	cfg    config.MQTTConfig
	client paho.Client
	logger Logger

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

func NewClient(cfg config.MQTTConfig, logger Logger) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// BrokerURL adds the tcp:// scheme when the broker has none.
func BrokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect establishes the broker connection. The client keeps reconnecting
// in the background after a later connection loss.
func (c *Client) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(BrokerURL(c.cfg.Broker))
	opts.SetClientID(c.cfg.ClientID)
	if c.cfg.Token != "" {
		opts.SetUsername(c.cfg.Token)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(paho.Client) {
		c.setConnected(true)
		c.logger.Info("MQTT connected to %s as %s", c.cfg.Broker, c.cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		c.setConnected(false)
		c.logger.Warning("MQTT connection lost, reconnecting: %v", err)
	}

	c.client = paho.NewClient(opts)
	c.logger.Info("Connecting to MQTT broker %s", c.cfg.Broker)

	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(connectTimeout):
		return fmt.Errorf("mqtt connection timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	c.setConnected(true)
	return nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) Publish(topic string, payload []byte) error {
	if c.client == nil || !c.IsConnected() {
		c.countError()
		return fmt.Errorf("mqtt not connected")
	}

	token := c.client.Publish(topic, c.cfg.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		c.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		c.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	c.mu.Lock()
	c.published++
	c.mu.Unlock()
	return nil
}

func (c *Client) countError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

// Subscribe registers handler for every message on topic.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	if c.client == nil {
		return fmt.Errorf("mqtt not connected")
	}

	token := c.client.Subscribe(topic, c.cfg.QoS, func(_ paho.Client, msg paho.Message) {
		handler(msg.Payload())
	})
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscription to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscription to %s failed: %w", topic, err)
	}
	c.logger.Info("Subscribed to %s", topic)
	return nil
}

// Stats returns the publish counters.
func (c *Client) Stats() (published, errors uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.published, c.errors
}

// Disconnect closes the connection, waiting up to 250ms for in-flight work.
func (c *Client) Disconnect() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}

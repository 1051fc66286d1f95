package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Lolo20020803/ProyectoSBC/internal/services/motion"
)

type gateCommand struct {
	Enabled *bool `json:"enabled"`
}

// ParseGatePayload accepts on/off, true/false, 1/0 or {"enabled": bool}.
func ParseGatePayload(payload []byte) (bool, error) {
	text := strings.TrimSpace(string(payload))

	if strings.HasPrefix(text, "{") {
		var cmd gateCommand
		if err := json.Unmarshal([]byte(text), &cmd); err != nil {
			return false, fmt.Errorf("invalid gate command: %w", err)
		}
		if cmd.Enabled == nil {
			return false, fmt.Errorf("gate command without \"enabled\"")
		}
		return *cmd.Enabled, nil
	}

	switch strings.ToLower(text) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("unknown gate payload %q", text)
}

// GateControl feeds gate values received over MQTT into a control queue.
type GateControl struct {
	control chan bool
	logger  Logger
}

// NewGateControl offers parsed values into control, replacing any value the
// processor has not read yet.
func NewGateControl(control chan bool, logger Logger) *GateControl {
	return &GateControl{control: control, logger: logger}
}

func (g *GateControl) Handle(payload []byte) {
	enabled, err := ParseGatePayload(payload)
	if err != nil {
		g.logger.Warning("Ignoring gate command: %v", err)
		return
	}
	motion.OfferLatest(g.control, enabled)
	g.logger.Info("Gate command received (enabled=%t)", enabled)
}

// Subscribe attaches the gate control to a topic.
func (g *GateControl) Subscribe(client *Client, topic string) error {
	return client.Subscribe(topic, g.Handle)
}

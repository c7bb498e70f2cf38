package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quayside/homelink-core/internal/device"
	"github.com/quayside/homelink-core/internal/infrastructure/mqtt"
	"github.com/quayside/homelink-core/internal/transport"
)

// Router is the command entry point the bridge drives. The registry
// satisfies it.
type Router interface {
	Device(id string) *device.Device
	Send(ctx context.Context, dev *device.Device, params, lanParams transport.Params, queryCloud bool)
}

// Subscriber is the inbound messaging surface the bridge listens on.
// The mqtt client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// CommandBridge routes inbound MQTT command messages into the
// registry.
//
// External consumers publish a JSON params payload on a device's set
// topic; the bridge resolves the device and hands the params to the
// router, which picks the channel. Commands always request a cloud
// status refresh so the resulting state lands back on the retained
// state topic.
type CommandBridge struct {
	sub    Subscriber
	router Router
	qos    byte
	logger Logger
}

// NewCommandBridge constructs a command bridge. Call Start to
// subscribe.
func NewCommandBridge(sub Subscriber, router Router, qos byte) *CommandBridge {
	return &CommandBridge{
		sub:    sub,
		router: router,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger. Pass nil to silence.
func (c *CommandBridge) SetLogger(logger Logger) {
	if logger == nil {
		c.logger = noopLogger{}
		return
	}
	c.logger = logger
}

// Start subscribes the bridge to the device command filter.
func (c *CommandBridge) Start() error {
	return c.sub.Subscribe(mqtt.Topics{}.DeviceCommandFilter(), c.qos, c.handleCommand)
}

// handleCommand dispatches one inbound command message. A returned
// error is logged by the subscriber without affecting acknowledgment.
func (c *CommandBridge) handleCommand(topic string, payload []byte) error {
	id, err := deviceIDFromCommandTopic(topic)
	if err != nil {
		return err
	}

	var params transport.Params
	if err := json.Unmarshal(payload, &params); err != nil {
		return fmt.Errorf("command payload for %s not JSON: %w", id, err)
	}
	if len(params) == 0 {
		return fmt.Errorf("empty command payload for %s", id)
	}

	dev := c.router.Device(id)
	if dev == nil {
		return fmt.Errorf("command for unknown device %s", id)
	}

	c.logger.Debug("routing external command",
		"device_id", id, "params", params)
	c.router.Send(context.Background(), dev, params, nil, true)
	return nil
}

// deviceIDFromCommandTopic extracts the device id from a per-device
// set topic.
func deviceIDFromCommandTopic(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, mqtt.TopicPrefixDevice+"/")
	if !ok {
		return "", fmt.Errorf("unexpected command topic %q", topic)
	}
	id, ok := strings.CutSuffix(rest, "/set")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("unexpected command topic %q", topic)
	}
	return id, nil
}

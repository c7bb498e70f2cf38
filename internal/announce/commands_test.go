package announce

import (
	"context"
	"sync"
	"testing"

	"github.com/quayside/homelink-core/internal/device"
	"github.com/quayside/homelink-core/internal/infrastructure/mqtt"
	"github.com/quayside/homelink-core/internal/transport"
)

// fakeSubscriber captures the subscription and hands the handler back
// for direct invocation.
type fakeSubscriber struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.topic = topic
	f.qos = qos
	f.handler = handler
	return nil
}

// routedCommand records one dispatched command.
type routedCommand struct {
	deviceID   string
	params     transport.Params
	queryCloud bool
}

// fakeRouter resolves devices from a map and captures sends.
type fakeRouter struct {
	mu      sync.Mutex
	devices map[string]*device.Device
	sends   []routedCommand
}

func (f *fakeRouter) Device(id string) *device.Device {
	return f.devices[id]
}

func (f *fakeRouter) Send(_ context.Context, dev *device.Device, params, _ transport.Params, queryCloud bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, routedCommand{dev.ID, params, queryCloud})
}

func (f *fakeRouter) sent() []routedCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]routedCommand(nil), f.sends...)
}

func newTestBridge(devices map[string]*device.Device) (*fakeSubscriber, *fakeRouter) {
	sub := &fakeSubscriber{}
	router := &fakeRouter{devices: devices}
	bridge := NewCommandBridge(sub, router, 1)
	if err := bridge.Start(); err != nil {
		panic(err)
	}
	return sub, router
}

func TestCommandBridgeSubscribesToCommandFilter(t *testing.T) {
	sub, _ := newTestBridge(nil)

	if sub.topic != "homelink/device/+/set" {
		t.Errorf("expected wildcard command filter, got %q", sub.topic)
	}
	if sub.qos != 1 {
		t.Errorf("expected qos 1, got %d", sub.qos)
	}
	if sub.handler == nil {
		t.Fatal("no handler registered")
	}
}

func TestCommandBridgeRoutesCommand(t *testing.T) {
	dev := &device.Device{ID: "d1"}
	sub, router := newTestBridge(map[string]*device.Device{"d1": dev})

	err := sub.handler(mqtt.Topics{}.DeviceCommand("d1"), []byte(`{"switch":"on"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sends := router.sent()
	if len(sends) != 1 {
		t.Fatalf("expected 1 routed command, got %d", len(sends))
	}
	if sends[0].deviceID != "d1" {
		t.Errorf("routed to wrong device: %s", sends[0].deviceID)
	}
	if sends[0].params["switch"] != "on" {
		t.Errorf("params not forwarded: %v", sends[0].params)
	}
	if !sends[0].queryCloud {
		t.Error("external commands must request a status refresh")
	}
}

func TestCommandBridgeRejectsUnknownDevice(t *testing.T) {
	sub, router := newTestBridge(map[string]*device.Device{})

	err := sub.handler(mqtt.Topics{}.DeviceCommand("ghost"), []byte(`{"switch":"on"}`))
	if err == nil {
		t.Fatal("expected error for unknown device")
	}
	if len(router.sent()) != 0 {
		t.Error("unknown device must not be routed")
	}
}

func TestCommandBridgeRejectsMalformedPayload(t *testing.T) {
	dev := &device.Device{ID: "d1"}
	sub, router := newTestBridge(map[string]*device.Device{"d1": dev})

	for _, payload := range []string{"not json", "{}", `[1,2]`} {
		if err := sub.handler(mqtt.Topics{}.DeviceCommand("d1"), []byte(payload)); err == nil {
			t.Errorf("payload %q must be rejected", payload)
		}
	}
	if len(router.sent()) != 0 {
		t.Error("malformed payloads must not be routed")
	}
}

func TestDeviceIDFromCommandTopic(t *testing.T) {
	tests := []struct {
		topic   string
		id      string
		wantErr bool
	}{
		{"homelink/device/1000abc123/set", "1000abc123", false},
		{"homelink/device/d1/set", "d1", false},
		{"homelink/device/set", "", true},
		{"homelink/device//set", "", true},
		{"homelink/device/d1/state", "", true},
		{"homelink/device/d1/extra/set", "", true},
		{"other/device/d1/set", "", true},
	}

	for _, tt := range tests {
		id, err := deviceIDFromCommandTopic(tt.topic)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got id %q", tt.topic, id)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.topic, err)
			continue
		}
		if id != tt.id {
			t.Errorf("%s: expected id %q, got %q", tt.topic, tt.id, id)
		}
	}
}

package announce

import (
	"encoding/json"
	"sync"

	"github.com/quayside/homelink-core/internal/bus"
	"github.com/quayside/homelink-core/internal/device"
	"github.com/quayside/homelink-core/internal/infrastructure/mqtt"
	"github.com/quayside/homelink-core/internal/registry"
	"github.com/quayside/homelink-core/internal/transport"
)

// Publisher is the outbound messaging surface the announcer needs.
// The mqtt client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// DeviceLookup reports the registry's current reachability belief for
// a device id. The registry satisfies it. Unknown ids report false.
type DeviceLookup interface {
	IsOnline(id string) bool
}

// Logger defines the logging interface used by the announcer.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Announcer mirrors registry signals onto retained MQTT topics.
//
// It subscribes to entity registration and per-device state signals,
// keeps the entity views current, and republishes merged state and
// availability so external consumers see the last known snapshot on
// connect.
type Announcer struct {
	bus    *bus.Bus
	pub    Publisher
	lookup DeviceLookup
	topics mqtt.Topics
	qos    byte
	logger Logger

	mu       sync.Mutex
	entities map[string][]device.Entity
}

// New constructs an announcer. Call Start to begin mirroring.
func New(b *bus.Bus, pub Publisher, lookup DeviceLookup, qos byte) *Announcer {
	return &Announcer{
		bus:      b,
		pub:      pub,
		lookup:   lookup,
		qos:      qos,
		logger:   noopLogger{},
		entities: make(map[string][]device.Entity),
	}
}

// SetLogger sets the logger. Pass nil to silence.
func (a *Announcer) SetLogger(logger Logger) {
	if logger == nil {
		a.logger = noopLogger{}
		return
	}
	a.logger = logger
}

// Start subscribes the announcer to registration signals. Per-device
// subscriptions are added as entities register.
func (a *Announcer) Start() {
	a.bus.Subscribe(registry.SignalAddEntities, func(payload any) {
		entities, ok := payload.([]device.Entity)
		if !ok || len(entities) == 0 {
			return
		}
		a.addEntities(entities)
	})
}

// addEntities records new entities and wires their device signal on
// first sight of the device id.
func (a *Announcer) addEntities(entities []device.Entity) {
	id := entities[0].DeviceID()

	a.mu.Lock()
	_, seen := a.entities[id]
	a.entities[id] = append(a.entities[id], entities...)
	a.mu.Unlock()

	if !seen {
		a.bus.Subscribe(id, func(payload any) {
			a.onDeviceSignal(id, payload)
		})
	}

	a.publishEntityList(id)
}

// onDeviceSignal handles one per-device state signal. A nil payload
// means only availability may have changed.
func (a *Announcer) onDeviceSignal(id string, payload any) {
	params, _ := payload.(transport.Params)
	if params != nil {
		a.applyUpdate(id, params)
		a.publishState(id)
	}
	a.publishAvailability(id)
}

func (a *Announcer) applyUpdate(id string, params transport.Params) {
	a.mu.Lock()
	entities := a.entities[id]
	a.mu.Unlock()

	for _, entity := range entities {
		entity.ApplyUpdate(params)
	}
}

// publishState republishes the merged per-entity state snapshot.
func (a *Announcer) publishState(id string) {
	a.mu.Lock()
	entities := a.entities[id]
	a.mu.Unlock()

	snapshot := make(map[string]transport.Params, len(entities))
	for _, entity := range entities {
		snapshot[entity.Kind()] = entity.State()
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		a.logger.Warn("state snapshot not serialisable",
			"device_id", id, "error", err)
		return
	}

	if err := a.pub.Publish(a.topics.DeviceState(id), payload, a.qos, true); err != nil {
		a.logger.Warn("state publish failed", "device_id", id, "error", err)
	}
}

// publishAvailability publishes "online"/"offline" from the registry's
// current view of the device.
func (a *Announcer) publishAvailability(id string) {
	status := "offline"
	if a.lookup.IsOnline(id) {
		status = "online"
	}

	if err := a.pub.Publish(a.topics.DeviceAvailability(id), []byte(status), a.qos, true); err != nil {
		a.logger.Warn("availability publish failed", "device_id", id, "error", err)
	}
}

// publishEntityList publishes the entity kinds registered for a
// device, retained, so consumers can discover the device's surface.
func (a *Announcer) publishEntityList(id string) {
	a.mu.Lock()
	entities := a.entities[id]
	a.mu.Unlock()

	kinds := make([]string, 0, len(entities))
	for _, entity := range entities {
		kinds = append(kinds, entity.Kind())
	}

	payload, err := json.Marshal(kinds)
	if err != nil {
		a.logger.Warn("entity list not serialisable",
			"device_id", id, "error", err)
		return
	}

	if err := a.pub.Publish(a.topics.DeviceEntities(id), payload, a.qos, true); err != nil {
		a.logger.Warn("entity list publish failed", "device_id", id, "error", err)
	}
}

// EntityCount returns the number of entities tracked for a device.
func (a *Announcer) EntityCount(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entities[id])
}

package registry

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quayside/homelink-core/internal/bus"
	"github.com/quayside/homelink-core/internal/device"
	"github.com/quayside/homelink-core/internal/transport"
)

// Bus signal names produced and consumed by the registry.
const (
	// SignalAddEntities carries the entity slice for newly registered
	// devices. Payload: []device.Entity.
	SignalAddEntities = "add_entities"

	// SignalConnected announces (re)establishment of the cloud
	// channel. No payload. Cloud transport publishes it.
	SignalConnected = "connected"

	// SignalCloudUpdate and SignalLocalUpdate carry inbound update
	// envelopes from the transports. Payload: *transport.Message.
	SignalCloudUpdate = "cloud_update"
	SignalLocalUpdate = "local_update"
)

// LocalTransport is the contract the registry needs from the local
// (LAN) channel. The implementation lives outside this module.
type LocalTransport interface {
	// Online reports whether the local channel is usable at all.
	Online() bool

	// Send delivers a command and waits up to timeout for the device
	// to acknowledge. The outcome is tri-state; only
	// transport.OutcomeOnline confirms delivery.
	Send(ctx context.Context, dev *device.Device, params transport.Params, seq string, timeout time.Duration) transport.Outcome

	// CheckOffline probes whether a device is truly unreachable and
	// records the result. Blocking; callers run it fire-and-forget.
	CheckOffline(ctx context.Context, dev *device.Device)

	// DecryptMessage decodes an encrypted broadcast payload with the
	// given key. Fails when the key is wrong or the payload malformed.
	DecryptMessage(msg *transport.Message, key string) (transport.Params, error)
}

// CloudTransport is the contract the registry needs from the cloud
// relay channel.
type CloudTransport interface {
	Online() bool

	// Send delivers a command through the cloud session. Nil params
	// with zero timeout is the "force status refresh" query. A zero
	// timeout means fire-and-forget: the call returns immediately
	// without waiting for acknowledgment.
	Send(ctx context.Context, dev *device.Device, params transport.Params, seq string, timeout time.Duration) transport.Outcome
}

// CapabilityFactory resolves device records into entity handlers and
// classifies activation-required devices. device.Catalog is the
// default implementation.
type CapabilityFactory interface {
	GetSpec(dev *device.Device) []device.EntityFactory
	SetupDIY(msg *transport.Message) *device.Device
	ActivationFor(capabilityID int) (device.Activation, bool)
}

// Recorder receives routing observability events. Optional; the
// influxdb client implements it.
type Recorder interface {
	// RecordSend is called once per transport attempt.
	RecordSend(deviceID, channel string, outcome transport.Outcome)

	// RecordOnlineChange is called when a device's cloud-reported
	// reachability flips.
	RecordOnlineChange(deviceID string, online bool)
}

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns the authoritative in-memory device map, routes
// outgoing commands across the two transports and reconciles inbound
// updates from both into per-device state.
//
// Thread Safety:
//   - Go schedules handlers preemptively, so unlike a cooperatively
//     scheduled host every map access and state merge takes r.mu.
//     State is always mutated before the corresponding signal is
//     published, so subscribers never observe stale state.
type Registry struct {
	local     LocalTransport
	cloud     CloudTransport
	bus       *bus.Bus
	factory   CapabilityFactory
	overrides device.OverrideStore

	logger   Logger
	recorder Recorder

	mu      sync.Mutex
	devices map[string]*device.Device

	// seqMu guards the monotonic command sequence.
	seqMu   sync.Mutex
	lastSeq int64

	// now is replaceable for tests.
	now func() time.Time

	// loopMu guards the activation loop lifecycle.
	loopMu     sync.Mutex
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// New creates a Registry wired to the given collaborators and
// subscribes its update handlers on the bus.
//
// overrides may be nil when no persisted configuration exists.
func New(local LocalTransport, cloud CloudTransport, b *bus.Bus, factory CapabilityFactory, overrides device.OverrideStore) *Registry {
	r := &Registry{
		local:     local,
		cloud:     cloud,
		bus:       b,
		factory:   factory,
		overrides: overrides,
		logger:    noopLogger{},
		devices:   make(map[string]*device.Device),
		now:       time.Now,
	}

	b.Subscribe(SignalCloudUpdate, func(payload any) {
		if msg, ok := payload.(*transport.Message); ok {
			r.CloudUpdate(msg)
		}
	})
	b.Subscribe(SignalLocalUpdate, func(payload any) {
		if msg, ok := payload.(*transport.Message); ok {
			r.LocalUpdate(msg)
		}
	})
	b.Subscribe(SignalConnected, func(any) {
		r.CloudConnected()
	})

	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetRecorder sets the optional routing observability recorder.
func (r *Registry) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// SetupDevices registers a batch of raw device records.
//
// For each record it merges any persisted configuration override
// (override wins; a malformed override is logged and skipped without
// aborting the batch), resolves the entity handlers via the capability
// factory and publishes them on the add-entities signal, then inserts
// the record into the registry. Calling again with overlapping ids is
// safe: last call wins for registry content and entities are
// re-published.
func (r *Registry) SetupDevices(devices []*device.Device) {
	batch := uuid.NewString()

	for _, dev := range devices {
		r.setupDevice(batch, dev)
	}
}

// setupDevice registers one device with per-device failure isolation.
func (r *Registry) setupDevice(batch string, dev *device.Device) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("device setup panicked",
				"device_id", dev.ID, "batch", batch, "panic", rec)
		}
	}()

	if r.overrides != nil {
		if override, ok := r.overrides.Get(dev.ID); ok {
			if err := device.ApplyOverride(dev, override); err != nil {
				r.logger.Warn("skipping malformed device override",
					"device_id", dev.ID, "error", err)
			}
		}
	}

	r.logger.Debug("registering device",
		"device_id", dev.ID,
		"capability_id", dev.CapabilityID,
		"batch", batch,
		"params", dev.Params,
	)

	entities := make([]device.Entity, 0, 2)
	for _, factory := range r.factory.GetSpec(dev) {
		if entity := factory(dev); entity != nil {
			entities = append(entities, entity)
		}
	}
	r.bus.Publish(SignalAddEntities, entities)

	r.mu.Lock()
	r.devices[dev.ID] = dev
	r.mu.Unlock()
}

// Device returns the record for a device id, or nil if unknown.
func (r *Registry) Device(id string) *device.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.devices[id]
}

// IsOnline reports the current reachability belief for a device id.
// Unknown ids report false. Unlike reading the record returned by
// Device directly, this accessor is safe against concurrent update
// handlers.
func (r *Registry) IsOnline(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev, ok := r.devices[id]
	return ok && dev.IsOnline()
}

// DeviceCount returns the number of registered devices. Placeholder
// records retained for undecryptable broadcasts are not counted.
func (r *Registry) DeviceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, dev := range r.devices {
		if !dev.Placeholder() {
			n++
		}
	}
	return n
}

// CloudConnected handles (re)establishment of the cloud channel.
//
// It republishes an empty update signal for every known device so
// subscribers re-evaluate derived availability, then starts the
// periodic activation loop if it is not already running.
func (r *Registry) CloudConnected() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.bus.Publish(id, nil)
	}

	r.startActivationLoop()
}

// Stop shuts the registry down: the device map is cleared, all bus
// registrations are dropped and the activation loop is cancelled.
// Outstanding offline probes are abandoned, not awaited.
func (r *Registry) Stop() {
	r.mu.Lock()
	r.devices = make(map[string]*device.Device)
	r.mu.Unlock()

	r.bus.Clear()

	r.loopMu.Lock()
	cancel, done := r.loopCancel, r.loopDone
	r.loopCancel, r.loopDone = nil, nil
	r.loopMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Sequence returns the next command sequence id: a millisecond
// timestamp, bumped when two commands land in the same millisecond.
func (r *Registry) Sequence() string {
	r.seqMu.Lock()
	defer r.seqMu.Unlock()

	seq := r.now().UnixMilli()
	if seq <= r.lastSeq {
		seq = r.lastSeq + 1
	}
	r.lastSeq = seq
	return strconv.FormatInt(seq, 10)
}

package device

import (
	"fmt"
	"sync"

	"github.com/quayside/homelink-core/internal/transport"
)

// Entity is one UI-facing handler facet of a device.
//
// Entities form a closed variant set resolved at registration time via
// GetSpec. The surface is deliberately small: consume a reconciled
// state update, or translate a logical action into command payloads.
type Entity interface {
	// DeviceID returns the id of the device this entity belongs to.
	DeviceID() string

	// Kind names the entity variant ("switch", "light", ...).
	Kind() string

	// ApplyUpdate merges a partial state update into the entity's
	// view. Untouched fields are preserved.
	ApplyUpdate(params transport.Params)

	// State returns a copy of the entity's current reconciled view.
	State() transport.Params

	// BuildCommands translates a logical action into the command
	// payload, plus an optional LAN-specific variant. A nil lan value
	// means the LAN payload is identical to params.
	BuildCommands(action string, value any) (params, lan transport.Params, err error)
}

// baseEntity carries the state shared by all entity variants.
type baseEntity struct {
	dev  *Device
	kind string

	mu    sync.Mutex
	state transport.Params
}

func newBase(dev *Device, kind string) baseEntity {
	return baseEntity{
		dev:   dev,
		kind:  kind,
		state: make(transport.Params),
	}
}

func (e *baseEntity) DeviceID() string { return e.dev.ID }
func (e *baseEntity) Kind() string     { return e.kind }

// ApplyUpdate merges the partial update, keeping untouched keys.
func (e *baseEntity) ApplyUpdate(params transport.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range params {
		e.state[k] = v
	}
}

// State returns a copy of the entity's current view.
func (e *baseEntity) State() transport.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Switch is the on/off relay entity.
type Switch struct {
	baseEntity
}

// NewSwitch constructs a switch entity for a device.
func NewSwitch(dev *Device) Entity {
	return &Switch{baseEntity: newBase(dev, "switch")}
}

// BuildCommands supports the "switch" action with value "on" or "off".
func (s *Switch) BuildCommands(action string, value any) (transport.Params, transport.Params, error) {
	if action != "switch" {
		return nil, nil, fmt.Errorf("%w: switch does not support %q", ErrUnknownAction, action)
	}
	v, ok := value.(string)
	if !ok || (v != "on" && v != "off") {
		return nil, nil, fmt.Errorf("%w: switch value must be \"on\" or \"off\"", ErrUnknownAction)
	}
	return transport.Params{"switch": v}, nil, nil
}

// Light is the brightness/colour-temperature entity.
type Light struct {
	baseEntity
}

// NewLight constructs a light entity for a device.
func NewLight(dev *Device) Entity {
	return &Light{baseEntity: newBase(dev, "light")}
}

func (l *Light) BuildCommands(action string, value any) (transport.Params, transport.Params, error) {
	switch action {
	case "switch":
		v, ok := value.(string)
		if !ok || (v != "on" && v != "off") {
			return nil, nil, fmt.Errorf("%w: light switch value must be \"on\" or \"off\"", ErrUnknownAction)
		}
		return transport.Params{"switch": v}, nil, nil
	case "brightness":
		v, ok := value.(int)
		if !ok || v < 0 || v > 100 {
			return nil, nil, fmt.Errorf("%w: brightness must be 0..100", ErrUnknownAction)
		}
		return transport.Params{"switch": "on", "brightness": v}, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: light does not support %q", ErrUnknownAction, action)
	}
}

// Sensor is the read-only telemetry entity (contact, temperature...).
type Sensor struct {
	baseEntity
}

// NewSensor constructs a sensor entity for a device.
func NewSensor(dev *Device) Entity {
	return &Sensor{baseEntity: newBase(dev, "sensor")}
}

// BuildCommands always fails: sensors are read-only.
func (s *Sensor) BuildCommands(action string, _ any) (transport.Params, transport.Params, error) {
	return nil, nil, fmt.Errorf("%w: sensor is read-only, got %q", ErrUnknownAction, action)
}

// PowerSensor exposes live power telemetry for activation-class devices.
type PowerSensor struct {
	baseEntity
}

// NewPowerSensor constructs a power telemetry entity for a device.
func NewPowerSensor(dev *Device) Entity {
	return &PowerSensor{baseEntity: newBase(dev, "power")}
}

// BuildCommands always fails: power readings are read-only.
func (p *PowerSensor) BuildCommands(action string, _ any) (transport.Params, transport.Params, error) {
	return nil, nil, fmt.Errorf("%w: power sensor is read-only, got %q", ErrUnknownAction, action)
}

// Fan is the fan-with-light entity. Fans take different field names
// over the LAN channel, so BuildCommands returns a distinct lan payload.
type Fan struct {
	baseEntity
}

// NewFan constructs a fan entity for a device.
func NewFan(dev *Device) Entity {
	return &Fan{baseEntity: newBase(dev, "fan")}
}

func (f *Fan) BuildCommands(action string, value any) (transport.Params, transport.Params, error) {
	switch action {
	case "switch":
		v, ok := value.(string)
		if !ok || (v != "on" && v != "off") {
			return nil, nil, fmt.Errorf("%w: fan switch value must be \"on\" or \"off\"", ErrUnknownAction)
		}
		// Cloud firmware takes fan=on/off, LAN firmware takes switches.
		lan := transport.Params{"switches": []any{map[string]any{"outlet": 1, "switch": v}}}
		return transport.Params{"fan": v}, lan, nil
	case "speed":
		v, ok := value.(int)
		if !ok || v < 1 || v > 3 {
			return nil, nil, fmt.Errorf("%w: fan speed must be 1..3", ErrUnknownAction)
		}
		return transport.Params{"fan": "on", "speed": v}, transport.Params{"speed": v}, nil
	default:
		return nil, nil, fmt.Errorf("%w: fan does not support %q", ErrUnknownAction, action)
	}
}

package device

import (
	"time"

	"github.com/quayside/homelink-core/internal/transport"
)

// Capability ids for well-known device models.
//
// The id space is vendor-assigned; ids not listed here resolve to a
// plain switch entity so unknown hardware still gets a usable handler.
const (
	CapSwitch      = 1   // single-channel relay
	CapSwitch2     = 2   // dual-channel relay
	CapSwitch3     = 3   // triple-channel relay
	CapSwitch4     = 4   // quad-channel relay
	CapPowerPlug   = 5   // plug with power telemetry
	CapSensor      = 102 // contact/door sensor
	CapLight       = 104 // rgb/ct light
	CapFan         = 34  // fan with light (different LAN params)
	CapPowerMeter  = 32  // inline power monitor
	CapPowerMeter2 = 182 // power monitor, fast telemetry
	CapPowerMeter3 = 190 // power monitor, fastest telemetry
	CapDIYPlug     = 1256
)

// EntityFactory constructs one handler facet for a device.
type EntityFactory func(dev *Device) Entity

// specs maps a capability id to the ordered entity factories for it.
// Resolution happens once, at device registration time.
var specs = map[int][]EntityFactory{
	CapSwitch:      {NewSwitch},
	CapSwitch2:     {NewSwitch},
	CapSwitch3:     {NewSwitch},
	CapSwitch4:     {NewSwitch},
	CapPowerPlug:   {NewSwitch, NewPowerSensor},
	CapSensor:      {NewSensor},
	CapLight:       {NewLight},
	CapFan:         {NewFan},
	CapPowerMeter:  {NewSwitch, NewPowerSensor},
	CapPowerMeter2: {NewSwitch, NewPowerSensor},
	CapPowerMeter3: {NewSwitch, NewPowerSensor},
	CapDIYPlug:     {NewSwitch},
}

// GetSpec returns the entity factories for a device.
//
// Unknown capability ids fall back to a plain switch so the device is
// still controllable; callers that need strict resolution can check
// with SpecKnown first.
func GetSpec(dev *Device) []EntityFactory {
	if factories, ok := specs[dev.CapabilityID]; ok {
		return factories
	}
	return []EntityFactory{NewSwitch}
}

// SpecKnown reports whether a capability id has an explicit spec.
func SpecKnown(capabilityID int) bool {
	_, ok := specs[capabilityID]
	return ok
}

// SetupDIY builds a provisional device record from a plaintext or
// just-decrypted local broadcast of a device that has never been
// registered. DIY-mode devices announce themselves on the LAN without
// any cloud registration.
func SetupDIY(msg *transport.Message) *Device {
	dev := &Device{
		ID:           msg.DeviceID,
		Name:         "DIY " + msg.DeviceID,
		CapabilityID: CapDIYPlug,
		Host:         msg.Host,
		Params:       msg.Params.Clone(),
	}
	// DIY broadcasts may carry their real capability id.
	if msg.Params != nil {
		if raw, ok := msg.Params["capability_id"]; ok {
			switch v := raw.(type) {
			case int:
				dev.CapabilityID = v
			case float64:
				dev.CapabilityID = int(v)
			}
		}
	}
	return dev
}

// Activation describes the periodic pulse a power-telemetry device
// needs to keep reporting live readings.
type Activation struct {
	// Interval is how long one pulse keeps telemetry flowing. The next
	// pulse is scheduled Interval after the previous send.
	Interval time.Duration

	// Params is the activation command payload.
	Params transport.Params
}

// activations maps power-telemetry capability ids to their pulse.
// The activation sweep period (see internal/registry) must stay below
// the minimum interval listed here.
var activations = map[int]Activation{
	CapPowerPlug:   {Interval: 3600 * time.Second, Params: transport.Params{"uiActive": 3600}},
	CapPowerMeter:  {Interval: 3600 * time.Second, Params: transport.Params{"uiActive": 3600}},
	CapPowerMeter2: {Interval: 300 * time.Second, Params: transport.Params{"uiActive": 300}},
	CapPowerMeter3: {Interval: 180 * time.Second, Params: transport.Params{"uiActive": 180}},
}

// ActivationFor returns the activation pulse for a capability id, if
// the device class requires one.
func ActivationFor(capabilityID int) (Activation, bool) {
	a, ok := activations[capabilityID]
	return a, ok
}

// Catalog is the default capability factory backed by the package
// tables. It satisfies the factory interface the registry consumes.
type Catalog struct{}

// GetSpec implements capability resolution via the package table.
func (Catalog) GetSpec(dev *Device) []EntityFactory { return GetSpec(dev) }

// SetupDIY implements provisional DIY registration.
func (Catalog) SetupDIY(msg *transport.Message) *Device { return SetupDIY(msg) }

// ActivationFor implements activation lookup via the package table.
func (Catalog) ActivationFor(capabilityID int) (Activation, bool) {
	return ActivationFor(capabilityID)
}

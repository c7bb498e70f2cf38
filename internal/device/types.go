package device

import (
	"time"

	"github.com/quayside/homelink-core/internal/transport"
)

// Device represents one physical device known to the registry.
//
// Records are mutable and shared: the registry hands the same pointer
// to the router, the update handlers and the entities it constructs.
// All mutation happens under the registry's lock; see
// internal/registry for the locking discipline.
type Device struct {
	// ID is the stable unique identifier and the registry key.
	ID   string `json:"deviceid"`
	Name string `json:"name,omitempty"`

	// CapabilityID discriminates the device type/model. It selects the
	// entity handlers at registration time and classifies devices that
	// require periodic activation pulses.
	CapabilityID int `json:"capability_id"`

	// Online is the cloud-reported reachability. Nil until the first
	// cloud contact; absence must never be read as offline.
	Online *bool `json:"online,omitempty"`

	// Host is the last-known local network address. Set only from
	// local-transport updates, overwritten on each local message.
	Host string `json:"host,omitempty"`

	// DeviceKey is the symmetric key used to decrypt local broadcast
	// payloads for devices not configured with a known key.
	DeviceKey string `json:"devicekey,omitempty"`

	// Extra, Params and Tags are free-form attribute bags carrying
	// vendor-specific configuration and last-known parameter values.
	Extra  map[string]any   `json:"extra,omitempty"`
	Params transport.Params `json:"params,omitempty"`
	Tags   map[string]any   `json:"tags,omitempty"`

	// PowTS is the next-eligible time for an activation pulse
	// (power-telemetry devices only). Zero means eligible immediately.
	PowTS time.Time `json:"-"`

	// Pending retains the raw broadcast of an unknown device whose
	// payload could not be decrypted, so a later registration through
	// another path can pick it up instead of re-failing.
	Pending *transport.Message `json:"-"`
}

// IsOnline reports the cloud-reported reachability.
// An unset flag counts as not online for routing purposes.
func (d *Device) IsOnline() bool {
	return d.Online != nil && *d.Online
}

// SetOnline stores an explicit reachability value.
func (d *Device) SetOnline(v bool) {
	d.Online = &v
}

// Placeholder reports whether this record is only a retained raw
// message awaiting a decryption key, not a registered device.
func (d *Device) Placeholder() bool {
	return d.Pending != nil
}

// NewPlaceholder builds a placeholder record from an undecryptable
// broadcast. It carries just enough identity to suppress repeated
// mis-handling of the same encrypted message.
func NewPlaceholder(msg *transport.Message) *Device {
	return &Device{
		ID:      msg.DeviceID,
		Host:    msg.Host,
		Pending: msg,
	}
}

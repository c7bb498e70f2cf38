package device

import (
	"fmt"
)

// Override is a persisted per-device configuration override, keyed by
// attribute name. Recognised attributes are applied to typed fields;
// anything else lands in the Extra bag. Overrides win over the values
// a device announced itself with.
type Override map[string]any

// OverrideStore provides persisted per-device configuration overrides.
// Implementations: StaticOverrides (config file) and
// SQLiteOverrideRepository (database).
type OverrideStore interface {
	// Get returns the override for a device id, if one exists.
	Get(deviceID string) (Override, bool)
}

// DeviceKeyFor extracts the decryption key from an override, if set.
func (o Override) DeviceKeyFor() (string, bool) {
	raw, ok := o["devicekey"]
	if !ok {
		return "", false
	}
	key, ok := raw.(string)
	return key, ok && key != ""
}

// ApplyOverride applies a configuration override to a device record.
//
// Application is all-or-nothing per attribute but not per override: a
// malformed attribute aborts with ErrInvalidOverride and the record is
// left exactly as it was. Callers log the error and keep the original;
// one bad override never aborts a registration batch.
func ApplyOverride(dev *Device, o Override) error {
	if len(o) == 0 {
		return nil
	}

	// Validate before mutating so a failure leaves dev untouched.
	staged := *dev
	extra := make(map[string]any, len(dev.Extra))
	for k, v := range dev.Extra {
		extra[k] = v
	}

	for key, raw := range o {
		switch key {
		case "name":
			v, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: name must be a string", ErrInvalidOverride)
			}
			staged.Name = v
		case "host":
			v, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: host must be a string", ErrInvalidOverride)
			}
			staged.Host = v
		case "devicekey":
			v, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: devicekey must be a string", ErrInvalidOverride)
			}
			staged.DeviceKey = v
		case "capability_id":
			switch v := raw.(type) {
			case int:
				staged.CapabilityID = v
			case float64:
				staged.CapabilityID = int(v)
			default:
				return fmt.Errorf("%w: capability_id must be a number", ErrInvalidOverride)
			}
		default:
			extra[key] = raw
		}
	}

	staged.Extra = extra
	*dev = staged
	return nil
}

// StaticOverrides is an OverrideStore backed by an in-memory map,
// typically loaded from the devices section of the config file.
type StaticOverrides map[string]Override

// Get implements OverrideStore.
func (s StaticOverrides) Get(deviceID string) (Override, bool) {
	o, ok := s[deviceID]
	return o, ok
}

// LayeredOverrides consults stores in order and merges their results,
// later stores winning per attribute. Used to layer database-provisioned
// overrides on top of the static config file.
type LayeredOverrides []OverrideStore

// Get implements OverrideStore.
func (l LayeredOverrides) Get(deviceID string) (Override, bool) {
	var merged Override
	for _, store := range l {
		o, ok := store.Get(deviceID)
		if !ok {
			continue
		}
		if merged == nil {
			merged = make(Override, len(o))
		}
		for k, v := range o {
			merged[k] = v
		}
	}
	return merged, merged != nil
}

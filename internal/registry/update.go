package registry

import (
	"github.com/quayside/homelink-core/internal/device"
	"github.com/quayside/homelink-core/internal/transport"
)

// CloudUpdate reconciles an inbound update from the cloud transport.
//
// Unknown devices are logged and discarded (the cloud announces
// devices that were never registered here). An explicit online value
// equal to the stored one drops the update entirely, preventing
// redundant downstream signal storms. A message without an online
// field counts as implicit evidence of reachability when the device
// is currently believed offline: a device that is sending data cannot
// be offline. In all non-discarded cases the per-device signal is
// published, even with empty params, so subscribers can react to
// presence changes.
func (r *Registry) CloudUpdate(msg *transport.Message) {
	r.mu.Lock()
	dev, ok := r.devices[msg.DeviceID]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("update for unknown cloud device",
			"device_id", msg.DeviceID, "params", msg.Params)
		return
	}

	params := msg.Params
	r.logger.Debug("cloud update",
		"device_id", msg.DeviceID, "seq", msg.Seq, "params", params)

	var flipped *bool
	if online, present := params.Online(); present && online != nil {
		if dev.Online != nil && *dev.Online == *online {
			r.mu.Unlock()
			return
		}
		dev.SetOnline(*online)
		flipped = online
	} else if dev.Online == nil || !*dev.Online {
		dev.SetOnline(true)
		t := true
		flipped = &t
	}

	// "online" is connectivity, not telemetry; it never enters the
	// record's param bag. Subscribers still receive the raw payload.
	telemetry := params
	if _, present := params.Online(); present {
		telemetry = params.Clone()
		delete(telemetry, "online")
	}
	mergeParams(dev, telemetry)
	r.mu.Unlock()

	if flipped != nil && r.recorder != nil {
		r.recorder.RecordOnlineChange(msg.DeviceID, *flipped)
	}

	r.bus.Publish(msg.DeviceID, params)
}

// LocalUpdate reconciles an inbound update from the local transport.
//
// Payloads may arrive encrypted (nil params). For an unknown device
// the handler tries the key from persisted configuration and, on
// success, performs just-in-time DIY registration; on failure the raw
// message is retained as a placeholder so identical broadcasts are
// not repeatedly mis-handled. For a known device the record's own key
// is required; decrypt failures drop the message without mutating
// state.
//
// A decoded "online" key signals connectivity rather than telemetry:
// an unknown value schedules the offline-confirmation probe, an
// explicit false publishes an immediate went-offline signal, and
// either way the message carries no further telemetry.
func (r *Registry) LocalUpdate(msg *transport.Message) {
	params := msg.Params

	r.mu.Lock()
	dev, exists := r.devices[msg.DeviceID]

	if !exists {
		if params == nil {
			decoded, ok := r.decryptWithConfiguredKey(msg)
			if !ok {
				r.devices[msg.DeviceID] = device.NewPlaceholder(msg)
				r.mu.Unlock()
				r.logger.Debug("skip setup for encrypted device",
					"device_id", msg.DeviceID)
				return
			}
			params = decoded
			msg.Params = decoded
		}

		// Just-in-time registration through the DIY path.
		r.mu.Unlock()
		dev = r.factory.SetupDIY(msg)
		r.SetupDevices([]*device.Device{dev})
		r.mu.Lock()
	} else if params == nil {
		if dev.DeviceKey == "" {
			// Can't decode and no key configured; not ours yet.
			r.mu.Unlock()
			return
		}
		decoded, err := r.local.DecryptMessage(msg, dev.DeviceKey)
		if err != nil {
			r.mu.Unlock()
			r.logger.Debug("can't decrypt local message",
				"device_id", msg.DeviceID, "error", err)
			return
		}
		params = decoded
	}

	r.logger.Debug("local update",
		"device_id", msg.DeviceID, "seq", msg.Seq, "params", params)

	// Connectivity signalling and telemetry are mutually exclusive in
	// one local message.
	if online, present := params.Online(); present {
		r.mu.Unlock()
		switch {
		case online == nil:
			r.spawnOfflineProbe(dev)
		case !*online:
			r.bus.Publish(msg.DeviceID, nil)
		}
		return
	}

	dev.Host = msg.Host
	mergeParams(dev, params)
	r.mu.Unlock()

	r.bus.Publish(msg.DeviceID, params)
}

// decryptWithConfiguredKey tries the persisted configuration key for
// a not-yet-registered device. Both a missing key and a failed
// decrypt report not-ok; the caller retains the raw message either way.
func (r *Registry) decryptWithConfiguredKey(msg *transport.Message) (transport.Params, bool) {
	if r.overrides == nil {
		return nil, false
	}
	override, ok := r.overrides.Get(msg.DeviceID)
	if !ok {
		return nil, false
	}
	key, ok := override.DeviceKeyFor()
	if !ok {
		return nil, false
	}

	params, err := r.local.DecryptMessage(msg, key)
	if err != nil {
		r.logger.Debug("configured key failed to decrypt broadcast",
			"device_id", msg.DeviceID, "error", err)
		return nil, false
	}
	return params, true
}

// mergeParams folds a partial update into the record's last-known
// params without discarding untouched fields. Callers hold r.mu.
func mergeParams(dev *device.Device, params transport.Params) {
	if len(params) == 0 {
		return
	}
	if dev.Params == nil {
		dev.Params = make(transport.Params, len(params))
	}
	for k, v := range params {
		dev.Params[k] = v
	}
}

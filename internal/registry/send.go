package registry

import (
	"context"
	"time"

	"github.com/quayside/homelink-core/internal/device"
	"github.com/quayside/homelink-core/internal/transport"
)

// Send timing bounds.
const (
	// localFastTimeout bounds the local attempt when the cloud is
	// available as fallback.
	localFastTimeout = 1 * time.Second

	// localSoloTimeout bounds the local attempt when it is the only
	// channel.
	localSoloTimeout = 5 * time.Second

	// cloudSendTimeout bounds an acknowledged cloud send. The
	// zero-payload refresh query uses zero (the cloud transport's own
	// limit applies).
	cloudSendTimeout = 10 * time.Second
)

// Recorder channel labels.
const (
	channelLocal = "local"
	channelCloud = "cloud"
)

// Send routes a command to a device.
//
// Transport availability is read once at entry. Depending on it, the
// command goes local-only, cloud-only, local with cloud fallback, or
// nowhere (both channels down is a silent no-op). Transport failures
// are routing signals, never errors: a send that cannot confirm the
// device schedules a fire-and-forget offline probe instead of failing
// the caller.
//
// lanParams supplies transport-specific payload differences for
// devices whose LAN firmware takes different fields; nil means the
// LAN payload equals params. When queryCloud is set, a confirmed
// cloud send is followed by a zero-payload query forcing the device
// to push fresh status.
func (r *Registry) Send(ctx context.Context, dev *device.Device, params, lanParams transport.Params, queryCloud bool) {
	seq := r.Sequence()

	// Host and the reachability belief are written by the update
	// handlers under r.mu; snapshot them under the same lock.
	r.mu.Lock()
	host := dev.Host
	online := dev.IsOnline()
	r.mu.Unlock()

	canLocal := r.local.Online() && host != ""
	canCloud := r.cloud.Online() && online

	if lanParams == nil {
		lanParams = params
	}

	switch {
	case canLocal && canCloud:
		// Try locally first with a short bound, then fall back.
		outcome := r.local.Send(ctx, dev, lanParams, seq, localFastTimeout)
		r.recordSend(dev.ID, channelLocal, outcome)
		if outcome.Reached() {
			return
		}

		outcome = r.cloud.Send(ctx, dev, params, seq, cloudSendTimeout)
		r.recordSend(dev.ID, channelCloud, outcome)
		switch {
		case !outcome.Reached():
			r.spawnOfflineProbe(dev)
		case queryCloud:
			r.queryStatus(ctx, dev, seq)
		}

	case canLocal:
		outcome := r.local.Send(ctx, dev, lanParams, seq, localSoloTimeout)
		r.recordSend(dev.ID, channelLocal, outcome)
		if !outcome.Reached() {
			r.spawnOfflineProbe(dev)
		}

	case canCloud:
		outcome := r.cloud.Send(ctx, dev, params, seq, cloudSendTimeout)
		r.recordSend(dev.ID, channelCloud, outcome)
		if outcome.Reached() && queryCloud {
			r.queryStatus(ctx, dev, seq)
		}

	default:
		// Neither channel is available. Not an error: the device
		// simply appears offline until an update arrives.
		r.logger.Debug("send skipped, no transport available",
			"device_id", dev.ID, "seq", seq)
	}
}

// queryStatus issues the zero-payload cloud query that forces the
// device to push a fresh status report.
func (r *Registry) queryStatus(ctx context.Context, dev *device.Device, seq string) {
	r.cloud.Send(ctx, dev, nil, seq, 0)
}

// spawnOfflineProbe schedules the offline-confirmation probe on the
// local transport. Fire-and-forget: the probe is not tracked and may
// be abandoned at shutdown.
func (r *Registry) spawnOfflineProbe(dev *device.Device) {
	r.logger.Debug("scheduling offline probe", "device_id", dev.ID)
	go r.local.CheckOffline(context.Background(), dev)
}

// recordSend forwards a send outcome to the recorder, if one is set.
func (r *Registry) recordSend(deviceID, channel string, outcome transport.Outcome) {
	if r.recorder != nil {
		r.recorder.RecordSend(deviceID, channel, outcome)
	}
}

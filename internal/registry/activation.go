package registry

import (
	"context"
	"time"

	"github.com/quayside/homelink-core/internal/device"
)

const (
	// offlineRetryDelay is how long the loop sleeps while the cloud
	// channel is down. No work is attempted offline.
	offlineRetryDelay = 60 * time.Second

	// sweepPeriod is the pause between activation sweeps. It must stay
	// below the minimum activation interval in the capability
	// catalogue so no device misses its deadline by more than one
	// sweep.
	sweepPeriod = 150 * time.Second
)

// startActivationLoop launches the periodic activation loop if it is
// not already running. The eligible device subset is computed once; if
// no registered device requires activation pulses the loop never
// starts.
func (r *Registry) startActivationLoop() {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()

	if r.loopDone != nil {
		select {
		case <-r.loopDone:
			// previous loop finished, restart below
		default:
			return
		}
	}

	eligible := r.activationDevices()
	if len(eligible) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.loopCancel = cancel
	r.loopDone = done

	r.logger.Info("activation loop started", "devices", len(eligible))
	go r.activationLoop(ctx, eligible, done)
}

// activationDevices returns the devices whose capability requires
// periodic activation pulses.
func (r *Registry) activationDevices() []*device.Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	var eligible []*device.Device
	for _, dev := range r.devices {
		if dev.Placeholder() {
			continue
		}
		if _, ok := r.factory.ActivationFor(dev.CapabilityID); ok {
			eligible = append(eligible, dev)
		}
	}
	return eligible
}

// activationLoop runs until cancelled. While the cloud channel is
// down it backs off without touching any device; otherwise it sweeps
// the eligible subset and sleeps for the sweep period.
func (r *Registry) activationLoop(ctx context.Context, devices []*device.Device, done chan struct{}) {
	defer close(done)

	for {
		if !r.cloud.Online() {
			if !sleepCtx(ctx, offlineRetryDelay) {
				return
			}
			continue
		}

		r.activationSweep(ctx, devices, r.now())

		if !sleepCtx(ctx, sweepPeriod) {
			return
		}
	}
}

// activationSweep sends one activation pulse to every eligible device
// that is online and past its deadline, and schedules the next
// deadline by the device's own refresh interval. Pulses go out with a
// zero timeout: fire-and-forget, the sweep never waits for
// acknowledgments.
func (r *Registry) activationSweep(ctx context.Context, devices []*device.Device, now time.Time) {
	for _, dev := range devices {
		r.mu.Lock()
		act, ok := r.factory.ActivationFor(dev.CapabilityID)
		due := ok && dev.IsOnline() && !dev.PowTS.After(now)
		if due {
			dev.PowTS = now.Add(act.Interval)
		}
		r.mu.Unlock()

		if !due {
			continue
		}

		r.logger.Debug("sending activation pulse",
			"device_id", dev.ID, "interval", act.Interval)
		r.cloud.Send(ctx, dev, act.Params, r.Sequence(), 0)
	}
}

// sleepCtx sleeps for d or until the context is cancelled.
// Reports false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

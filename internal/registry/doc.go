// Package registry implements the device registry and dual-transport
// command router at the heart of Homelink Core.
//
// # Architecture
//
//	                 ┌─────────────────────────────────────────┐
//	                 │                Registry                  │
//	  Send() ───────▶│  routing / failover      device map      │
//	                 │  (send.go)               (registry.go)   │
//	  bus signals ──▶│  update reconciliation   activation loop │
//	  cloud_update   │  (update.go)             (activation.go) │
//	  local_update   └───────────┬──────────────────┬──────────┘
//	  connected                  │                  │
//	                             ▼                  ▼
//	                   per-device signals    cloud activation
//	                   on the bus            pulses
//
// The registry owns the only authoritative copy of device state. A
// caller asks it to Send a command; it picks local, cloud, both with
// fallback, or nothing, based on the availability flags read once at
// entry. Independently, both transports push update envelopes onto
// the bus; the registry's handlers reconcile them into device state
// and re-publish a per-device signal that UI-facing consumers
// subscribe to. State is always mutated before the signal goes out.
//
// Failure handling is deliberately soft: a send that cannot confirm
// the device schedules a fire-and-forget offline probe instead of
// returning an error, unknown cloud devices are logged and dropped,
// and undecryptable local broadcasts are retained as placeholders for
// a later registration to pick up.
//
// The periodic activation loop keeps power-telemetry devices
// reporting: once started (on cloud connect) it sweeps the eligible
// subset every 150 seconds and pulses each device whose own refresh
// interval has elapsed. Stop cancels the loop deterministically;
// in-flight probes are abandoned.
package registry

// Package influxdb provides time-series recording of routing events.
//
// The client wraps the InfluxDB v2 API with non-blocking batched
// writes and records two measurements:
//
//   - router_sends: one point per transport attempt, tagged by device,
//     channel (local or cloud) and outcome. Used to chart fallback
//     rates and command latency patterns.
//   - online_transitions: one point per device reachability flip.
//
// The client implements the registry's Recorder interface so the
// routing engine stays decoupled from the storage backend. Writes are
// fire-and-forget; async failures surface through SetOnError.
package influxdb

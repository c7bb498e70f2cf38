package influxdb

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/quayside/homelink-core/internal/transport"
)

// Measurement names for routing observability.
const (
	measurementSends  = "router_sends"
	measurementOnline = "online_transitions"
)

// RecordSend records one transport attempt and its outcome.
//
// Points are tagged by device, channel ("local" or "cloud") and
// outcome so dashboards can break down fallback rates and per-device
// reachability. The write is batched and non-blocking.
func (c *Client) RecordSend(deviceID, channel string, outcome transport.Outcome) {
	point := influxdb2.NewPoint(
		measurementSends,
		map[string]string{
			"device_id": deviceID,
			"channel":   channel,
			"outcome":   string(outcome),
		},
		map[string]interface{}{
			"reached": outcome.Reached(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordOnlineChange records a device reachability flip.
func (c *Client) RecordOnlineChange(deviceID string, online bool) {
	point := influxdb2.NewPoint(
		measurementOnline,
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"online": online,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// Flush forces any batched points to be written immediately.
func (c *Client) Flush() {
	c.writeAPI.Flush()
}

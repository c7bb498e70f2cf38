package influxdb

import "errors"

var (
	// ErrDisabled is returned when Connect is called with InfluxDB disabled.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned when the initial connection fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotHealthy is returned when the server ping reports unhealthy.
	ErrNotHealthy = errors.New("influxdb: server not healthy")
)

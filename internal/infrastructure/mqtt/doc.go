// Package mqtt wraps paho.mqtt.golang for the Homelink state
// announcer: connection lifecycle, LWT status, publish/subscribe with
// automatic re-subscription, and topic builders for the
// homelink/device/{id}/... hierarchy.
package mqtt

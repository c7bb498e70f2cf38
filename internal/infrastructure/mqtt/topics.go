package mqtt

import "fmt"

// Topic prefixes for the Homelink MQTT surface.
//
// The announcer publishes authoritative per-device state under
// homelink/device/{id}/..., mirroring the per-device signals on the
// internal bus. Inbound commands travel the opposite direction on the
// per-device set topic.
const (
	// TopicPrefix is the base for all Homelink topics.
	TopicPrefix = "homelink"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "homelink/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "homelink/system"
)

// Topics provides builders for Homelink MQTT topics.
// Using these helpers keeps topic naming consistent across the
// announcer and any external consumers.
type Topics struct{}

// DeviceState returns the topic carrying reconciled device state.
//
// Example: homelink/device/1000abc123/state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, deviceID)
}

// DeviceAvailability returns the topic carrying device availability.
//
// Example: homelink/device/1000abc123/availability
func (Topics) DeviceAvailability(deviceID string) string {
	return fmt.Sprintf("%s/%s/availability", TopicPrefixDevice, deviceID)
}

// DeviceEntities returns the topic announcing a device's entity set.
//
// Example: homelink/device/1000abc123/entities
func (Topics) DeviceEntities(deviceID string) string {
	return fmt.Sprintf("%s/%s/entities", TopicPrefixDevice, deviceID)
}

// DeviceCommand returns the topic on which external consumers submit
// commands for a device.
//
// Example: homelink/device/1000abc123/set
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/%s/set", TopicPrefixDevice, deviceID)
}

// DeviceCommandFilter returns the wildcard subscription filter
// matching every device command topic.
func (Topics) DeviceCommandFilter() string {
	return fmt.Sprintf("%s/+/set", TopicPrefixDevice)
}

// SystemStatus returns the announcer's own status topic (also used
// for the LWT).
//
// Example: homelink/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

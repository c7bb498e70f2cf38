// Package announce mirrors device state onto MQTT.
//
// The announcer is a bus consumer: it learns entities from the
// registration signal, tracks each device's reconciled entity views,
// and republishes them as retained JSON on per-device topics. Three
// topics exist per device:
//
//   - state: merged entity state snapshot, keyed by entity kind
//   - availability: "online" or "offline"
//   - entities: the list of entity kinds, for discovery
//
// All messages are retained so consumers joining late see the last
// known snapshot immediately.
//
// The command bridge is the opposite direction: it subscribes to the
// per-device set topics and routes inbound JSON command payloads into
// the registry, which picks the delivery channel.
//
// Both halves are optional; the routing core works without a broker
// configured.
package announce

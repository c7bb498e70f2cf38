// Package device holds the device record model, the capability
// catalogue and the entity handlers the registry hands to UI-facing
// consumers.
//
// # Key Types
//
//   - Device: the mutable per-device record (registry key, tri-state
//     online flag, last-known host, decryption key, attribute bags)
//   - Entity: closed handler variant set (switch, light, sensor,
//     power sensor, fan) with a fixed ApplyUpdate/BuildCommands surface
//   - Override: persisted per-device configuration override, stored
//     either in the config file (StaticOverrides) or SQLite
//     (SQLiteOverrideRepository)
//   - Activation: periodic pulse spec for power-telemetry devices
//
// # Capability Resolution
//
// GetSpec resolves a device's capability id to its ordered entity
// factories once, at registration time. Unknown ids fall back to a
// plain switch. SetupDIY builds a provisional record for devices that
// announce themselves on the LAN without any prior registration.
//
// # Thread Safety
//
// Device records are mutated only under the registry's lock. Entities
// guard their own state and are safe for concurrent use.
package device

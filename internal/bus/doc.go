// Package bus provides the synchronous publish/subscribe dispatcher
// that connects the registry to transports and UI-facing consumers.
//
// Signals are plain strings. The registry publishes on three kinds of
// signal:
//
//   - "add_entities": payload is the entity slice produced when devices
//     are registered
//   - "<device_id>": payload is a transport.Params with reconciled
//     state, or nil for a "went offline" / refresh notification
//   - "connected": no payload, emitted by the cloud transport
//
// Delivery is synchronous and in registration order. One instance is
// constructed at process start and injected into every component that
// needs it; its lifecycle ends with Clear() on shutdown.
package bus

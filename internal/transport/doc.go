// Package transport defines the wire-level types shared between the
// registry and the two transport implementations (local LAN and cloud
// relay).
//
// The transport implementations themselves live outside this module;
// the registry consumes them through interfaces declared in
// internal/registry. This package holds only the common vocabulary:
//
//   - Params: opaque device parameter payloads
//   - Outcome: tri-state send result ("online" is the only confirmation)
//   - Message: inbound update envelope, possibly still encrypted
package transport

package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrInvalidOverride) {
//	    // keep the original record
//	}
var (
	// ErrInvalidOverride is returned when a persisted configuration
	// override carries a malformed value for a recognised attribute.
	ErrInvalidOverride = errors.New("device: invalid override")

	// ErrUnknownCapability is returned when no entity spec exists for
	// a capability id.
	ErrUnknownCapability = errors.New("device: unknown capability")

	// ErrUnknownAction is returned when an entity is asked to build a
	// command it does not support.
	ErrUnknownAction = errors.New("device: unknown action")

	// ErrOverrideNotFound is returned by override repositories when no
	// override row exists for a device id.
	ErrOverrideNotFound = errors.New("device: override not found")
)

package transport

// Params is the free-form parameter payload exchanged with devices.
//
// Keys and value types are vendor-specific; the router treats the
// payload as opaque except for the reserved "online" key, which
// signals connectivity rather than telemetry.
type Params map[string]any

// Online extracts the reserved "online" connectivity key.
//
// Returns:
//   - value: the online flag; nil means "unknown" (the key was present
//     but carried no usable value)
//   - ok: whether the key was present at all
func (p Params) Online() (value *bool, ok bool) {
	raw, ok := p["online"]
	if !ok {
		return nil, false
	}
	b, isBool := raw.(bool)
	if !isBool {
		return nil, true
	}
	return &b, true
}

// Clone returns a shallow copy of the params.
// Callers that mutate a received payload should clone it first.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	cpy := make(Params, len(p))
	for k, v := range p {
		cpy[k] = v
	}
	return cpy
}

// Outcome is the tri-state result of a transport send.
//
// Only OutcomeOnline confirms the device was reached; every other
// value (including vendor-specific ones) is treated by the router as
// "not confirmed" and triggers fallback or an offline probe.
type Outcome string

const (
	// OutcomeOnline means the device acknowledged the command.
	OutcomeOnline Outcome = "online"

	// OutcomeTimeout means no acknowledgment arrived within the bound.
	OutcomeTimeout Outcome = "timeout"

	// OutcomeError means the transport itself failed to deliver.
	OutcomeError Outcome = "error"
)

// Reached reports whether the outcome confirms device reachability.
func (o Outcome) Reached() bool {
	return o == OutcomeOnline
}

package transport

// Message is an inbound update envelope pushed by a transport.
//
// Local broadcasts may arrive encrypted: Params is nil and Encrypted
// holds the raw ciphertext until a key becomes available. The envelope
// is retained verbatim for unknown devices so a later registration can
// retry the decode.
type Message struct {
	// DeviceID identifies the device the update refers to.
	DeviceID string

	// Params is the decoded payload. Nil means the payload arrived
	// encrypted and has not been decoded yet.
	Params Params

	// Host is the source network address (local transport only).
	Host string

	// Seq is the transport sequence identifier, used for log
	// correlation only.
	Seq string

	// Encrypted is the raw ciphertext of an undecoded local broadcast.
	Encrypted []byte

	// IV is the initialisation vector accompanying Encrypted.
	IV []byte
}

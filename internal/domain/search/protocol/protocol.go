package protocol

// Protocol is the record query protocol a session uses.
type Protocol string

// Protocol constants.
const (
	// Fast is the structured record search endpoint.
	Fast Protocol = "fast"
	// Legacy is the OData-style content API filter endpoint.
	Legacy Protocol = "legacy"
)

// IsValid checks if the protocol is one of the supported values.
func (p Protocol) IsValid() bool {
	return p == Fast || p == Legacy
}

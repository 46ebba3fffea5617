package health

import "context"

// PlatformPinger checks that the platform answers authenticated requests.
type PlatformPinger interface {
	Ping(ctx context.Context) error
}

// SessionHolder exposes the current platform session token.
type SessionHolder interface {
	Token() string
}

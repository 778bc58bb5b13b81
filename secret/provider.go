package secret

import "context"

// Provider fetches a secret value for a reference string. The ref
// format is provider-specific, e.g. a vault path or a file name.
//
// Implementations must be safe for concurrent use and must never log
// resolved values.
type Provider interface {
	// Name is the identifier matched against the provider segment of a
	// secretref.
	Name() string

	// Resolve returns the secret value for ref.
	Resolve(ctx context.Context, ref string) (string, error)

	// Close releases any backing connections.
	Close() error
}

// Package docstore abstracts the whole-document JSON store the dashboard
// persists to. The canonical backend is JSONBin; postgres and sqlite
// backends implement the same interface for self-hosted deployments.
package docstore

import (
	"context"
	"errors"

	"github.com/studydeck/studydeck/internal/domain/record"
)

// Store reads and writes the whole document. There is no partial update:
// every save replaces the full blob, matching the remote bin semantics.
type Store interface {
	// Fetch returns the current document. A store with no document yet
	// returns an empty one, not an error.
	Fetch(ctx context.Context) (record.Document, error)

	// Replace overwrites the stored document.
	Replace(ctx context.Context, doc record.Document) error
}

// Store errors.
var (
	// ErrUnavailable wraps transport failures after retries are exhausted.
	ErrUnavailable = errors.New("docstore: store unavailable")

	// ErrUnauthorized reports rejected credentials (bad master key or DSN).
	ErrUnauthorized = errors.New("docstore: unauthorized")
)

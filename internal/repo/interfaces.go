// Package repo declares the persistence records and errors shared by the
// registry's storage backends.
package repo

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// ComponentVersionRecord is one published, immutable component version.
// Versions are addressed by the digest of their canonical definition.
type ComponentVersionRecord struct {
	ID          string
	Name        string
	Digest      string
	Description string
	SpecYAML    []byte
	CreatedBy   string
	CreatedAt   time.Time
}

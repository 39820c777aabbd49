// Package filestore stores ingested document bytes. Two backends exist: a
// local data directory for single-machine installs and Google Cloud Storage
// for hosted ones. Save returns a URI that Fetch understands later.
package filestore

import "context"

// Blobs persists raw document bytes.
type Blobs interface {
	// Save writes data under name and returns the URI to fetch it back.
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Fetch reads back the bytes stored under a URI returned by Save.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

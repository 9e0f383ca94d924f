package storage

import "context"

// Archiver parks JSON snapshots in object storage. Used to keep a roster
// record around after a scrim and its teams are deleted.
type Archiver interface {
	PutJSON(ctx context.Context, key string, payload interface{}) error
}

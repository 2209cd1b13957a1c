// Package docstore offers a minimal single-document view of a key-value
// document database: subscribe to one path, write one path. The cart mirror
// is the only consumer; it never lists, queries or deletes.
package docstore

import "context"

// Document is a decoded JSON object stored at a path.
type Document map[string]any

// SnapshotFunc receives the current document value, or nil when the document
// does not exist. It is invoked once immediately on subscription and again on
// every subsequent change.
type SnapshotFunc func(doc Document)

// Store is the abstract document-store surface the synchronizer consumes.
type Store interface {
	// Subscribe attaches fn to the document at path. The returned cancel
	// function detaches it; after cancel returns no further invocations occur.
	Subscribe(ctx context.Context, path string, fn SnapshotFunc) (cancel func(), err error)

	// Write upserts the document at path. With merge set, fields absent from
	// data are preserved on the existing document; otherwise the document is
	// replaced wholesale.
	Write(ctx context.Context, path string, data Document, merge bool) error
}

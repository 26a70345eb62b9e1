// Package state persists gallery records and the resolved-image cache in a
// single durable key-value store.
package state

import (
	"errors"
	"io"

	"github.com/exmirror/gallerysync/model"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("record not found")

// Store is the durable key-value store shared by the whole process. It holds
// two namespaces: gallery identity -> serialized record (with a title index,
// since a rediscovered gallery may reappear under a new URL revision), and
// image page reference -> hosted media URL.
//
// The store supports one writer and many readers; callers rely on its
// internal atomicity and never lock around it.
type Store interface {
	// Gallery records.
	GetGallery(url string) (*model.GalleryRecord, error)
	GetGalleryByTitle(title string) (*model.GalleryRecord, error)
	PutGallery(rec *model.GalleryRecord) error
	HasGallery(url string) (bool, error)

	// Resolved-image cache. Entries are write-once: a page reference never
	// changes meaning at the source, so cached URLs are never invalidated.
	GetImageURL(pageRef string) (string, bool, error)
	PutImageURL(pageRef, hostedURL string) error

	// Dump writes the entire store as pretty-printed JSON; Load bulk-imports
	// the same format.
	Dump(w io.Writer) error
	Load(r io.Reader) error

	// Flush forces buffered writes to durable storage.
	Flush() error
	Close() error
}

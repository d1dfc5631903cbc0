// Package blob defines the external object storage contract for document
// version content.
package blob

import (
	"context"
	"errors"
)

// ErrObjectNotFound indicates a referenced object is absent from storage.
var ErrObjectNotFound = errors.New("object not found")

// UploadTarget is a short-lived destination for a client upload. The object id
// is reserved before any bytes arrive; a version row referencing it is only
// written after the upload completes.
type UploadTarget struct {
	ObjectID string
	URL      string
}

// ObjectStorage abstracts the external blob store. Content bytes never pass
// through the application; clients upload and download directly against the
// returned URLs.
type ObjectStorage interface {
	// RequestUploadTarget reserves a new object id and returns the URL to
	// upload its content to.
	RequestUploadTarget(ctx context.Context) (UploadTarget, error)

	// ResolveRetrievalURL returns a URL serving the object's content, or
	// ErrObjectNotFound when no content was uploaded for the id.
	ResolveRetrievalURL(ctx context.Context, objectID string) (string, error)

	// DeleteObject removes the object's content. Deleting an absent object
	// is not an error.
	DeleteObject(ctx context.Context, objectID string) error
}

package document

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/docvault/docvault/internal/platform/errors"
	"github.com/docvault/docvault/internal/platform/id"
)

// ErrEmptyStorageObject indicates a version without an uploaded blob reference.
var ErrEmptyStorageObject = apperrors.New(apperrors.CodeVersionFileEmpty, "storage object id is required")

// ErrEmptyFileName indicates a version without a file name.
var ErrEmptyFileName = apperrors.New(apperrors.CodeVersionFileEmpty, "file name is required")

// Version is an immutable snapshot of uploaded content plus metadata. Version
// numbers are unique per document and assigned by the store in strictly
// increasing order starting at 1.
type Version struct {
	ID              string
	DocumentID      string
	StorageObjectID string
	VersionNumber   int64
	UploadedBy      string
	FileName        string
	FileType        string
	FileSize        int64
	Comment         string
	CreatedAt       time.Time
}

// NewVersionInput describes an uploaded blob to attach as a version.
type NewVersionInput struct {
	DocumentID      string
	StorageObjectID string
	UploadedBy      string
	FileName        string
	FileType        string
	FileSize        int64
	Comment         string
}

// NewVersion creates a version record with no number assigned yet.
//
// VersionNumber stays zero here; the store allocates max+1 inside the insert
// transaction so concurrent uploads cannot collide.
func NewVersion(input NewVersionInput, now func() time.Time, idGenerator func() (string, error)) (Version, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.StorageObjectID = strings.TrimSpace(input.StorageObjectID)
	if input.StorageObjectID == "" {
		return Version{}, ErrEmptyStorageObject
	}
	input.FileName = strings.TrimSpace(input.FileName)
	if input.FileName == "" {
		return Version{}, ErrEmptyFileName
	}

	versionID, err := idGenerator()
	if err != nil {
		return Version{}, fmt.Errorf("generate version id: %w", err)
	}

	return Version{
		ID:              versionID,
		DocumentID:      input.DocumentID,
		StorageObjectID: input.StorageObjectID,
		UploadedBy:      input.UploadedBy,
		FileName:        input.FileName,
		FileType:        strings.TrimSpace(input.FileType),
		FileSize:        input.FileSize,
		Comment:         strings.TrimSpace(input.Comment),
		CreatedAt:       now().UTC(),
	}, nil
}

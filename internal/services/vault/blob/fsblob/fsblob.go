// Package fsblob implements blob.ObjectStorage over a local directory, served
// through plain HTTP PUT and GET.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/docvault/docvault/internal/platform/id"
	"github.com/docvault/docvault/internal/services/vault/blob"
)

// Storage keeps object content as files under a root directory, one file per
// object id. Object ids are opaque and generated here, never by callers.
type Storage struct {
	root    string
	baseURL string
	newID   func() (string, error)
	logger  *zap.Logger
}

// New creates a filesystem blob store rooted at dir. baseURL is the externally
// reachable prefix for the HTTP handler, without a trailing slash.
func New(dir, baseURL string, logger *zap.Logger) (*Storage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{
		root:    dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		newID:   id.NewID,
		logger:  logger,
	}, nil
}

var _ blob.ObjectStorage = (*Storage)(nil)

// objectPath maps an object id to its file, rejecting ids that would escape
// the root.
func (s *Storage) objectPath(objectID string) (string, error) {
	objectID = strings.TrimSpace(objectID)
	if objectID == "" || strings.ContainsAny(objectID, "/\\") || objectID == "." || objectID == ".." {
		return "", fmt.Errorf("invalid object id %q", objectID)
	}
	return filepath.Join(s.root, objectID), nil
}

// RequestUploadTarget reserves an object id and returns its upload URL.
func (s *Storage) RequestUploadTarget(ctx context.Context) (blob.UploadTarget, error) {
	objectID, err := s.newID()
	if err != nil {
		return blob.UploadTarget{}, fmt.Errorf("generate object id: %w", err)
	}
	return blob.UploadTarget{
		ObjectID: objectID,
		URL:      s.baseURL + "/blobs/" + objectID,
	}, nil
}

// ResolveRetrievalURL returns the object's download URL when content exists.
func (s *Storage) ResolveRetrievalURL(ctx context.Context, objectID string) (string, error) {
	path, err := s.objectPath(objectID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", blob.ErrObjectNotFound
		}
		return "", fmt.Errorf("stat object: %w", err)
	}
	return s.baseURL + "/blobs/" + objectID, nil
}

// DeleteObject removes the object's file. A missing file is not an error.
func (s *Storage) DeleteObject(ctx context.Context, objectID string) error {
	path, err := s.objectPath(objectID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Handler serves object content: PUT stores bytes, GET streams them back.
func (s *Storage) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/blobs/{objectID}", s.handlePut).Methods(http.MethodPut)
	router.HandleFunc("/blobs/{objectID}", s.handleGet).Methods(http.MethodGet)
	return router
}

func (s *Storage) handlePut(w http.ResponseWriter, r *http.Request) {
	path, err := s.objectPath(mux.Vars(r)["objectID"])
	if err != nil {
		http.Error(w, "invalid object id", http.StatusBadRequest)
		return
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		s.logger.Error("create upload temp file", zap.Error(err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, r.Body); err != nil {
		_ = tmp.Close()
		s.logger.Error("write upload", zap.Error(err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		s.logger.Error("close upload", zap.Error(err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		s.logger.Error("finalize upload", zap.Error(err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Storage) handleGet(w http.ResponseWriter, r *http.Request) {
	path, err := s.objectPath(mux.Vars(r)["objectID"])
	if err != nil {
		http.Error(w, "invalid object id", http.StatusBadRequest)
		return
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("open object", zap.Error(err))
		http.Error(w, "download failed", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, file); err != nil {
		s.logger.Warn("stream object", zap.Error(err))
	}
}

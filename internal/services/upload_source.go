// internal/services/upload_source.go
package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/trendora/admin-backend/internal/draft"
)

// uploadSource stages a multipart upload in a temp file so the draft engine
// can read it during the (possibly later) upload and serve it as the local
// preview until then. Release deletes the temp file; the engine guarantees
// it is called exactly once.
type uploadSource struct {
	name string
	path string
}

// NewUploadSource spools the multipart file into tempDir and hands the draft
// engine an owned handle to it.
func NewUploadSource(header *multipart.FileHeader, tempDir string) (draft.SourceFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open multipart file: %w", err)
	}
	defer src.Close()

	path := filepath.Join(tempDir, "draft_"+uuid.NewString()+filepath.Ext(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	return &uploadSource{
		name: header.Filename,
		path: path,
	}, nil
}

func (u *uploadSource) Name() string { return u.name }

func (u *uploadSource) Open() (io.ReadCloser, error) {
	return os.Open(u.path)
}

// PreviewURI is the staged file's path, returned to the client as an opaque
// preview token until the remote location replaces it.
func (u *uploadSource) PreviewURI() string { return u.path }

func (u *uploadSource) Release() error {
	return os.Remove(u.path)
}

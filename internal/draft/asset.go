// internal/draft/asset.go
package draft

import (
	"io"

	"github.com/google/uuid"
)

type AssetStatus string

const (
	AssetPending   AssetStatus = "pending"
	AssetUploading AssetStatus = "uploading"
	AssetUploaded  AssetStatus = "uploaded"
	AssetError     AssetStatus = "error"
)

// SourceFile is one user-selected file together with its local-preview
// resource. Release frees the preview and must be called exactly once over
// the asset's lifetime: on successful upload, on explicit removal, or on
// session teardown.
type SourceFile interface {
	Name() string
	Open() (io.ReadCloser, error)
	PreviewURI() string
	Release() error
}

// Asset tracks one file from selection through server acknowledgment or
// failure: pending -> uploading -> uploaded | error. Uploaded and error are
// terminal; the only way out is removal from the owning collection.
//
// The ID is minted at creation and is the routing key for asynchronous
// upload results. Preview URIs are display data only and are never used to
// address an asset.
type Asset struct {
	ID         uuid.UUID   `json:"id"`
	Status     AssetStatus `json:"status"`
	PreviewURI string      `json:"preview_uri"`
	RemoteKey  string      `json:"remote_key"`
	Err        error       `json:"-"`

	source   SourceFile
	released bool
}

func newAsset(src SourceFile) *Asset {
	return &Asset{
		ID:         uuid.New(),
		Status:     AssetPending,
		PreviewURI: src.PreviewURI(),
		source:     src,
	}
}

// restoredAsset represents an image that is already persisted on the server,
// e.g. when a draft is seeded from an existing product. It holds no local
// resource.
func restoredAsset(remoteKey string) *Asset {
	return &Asset{
		ID:         uuid.New(),
		Status:     AssetUploaded,
		PreviewURI: remoteKey,
		RemoteKey:  remoteKey,
		released:   true,
	}
}

func (a *Asset) markUploading() {
	a.Status = AssetUploading
}

// complete moves the asset to its terminal success state: the remote key is
// recorded, the preview switches to the durable remote URI and the local
// resource is released.
func (a *Asset) complete(remoteKey string) error {
	a.Status = AssetUploaded
	a.RemoteKey = remoteKey
	a.PreviewURI = remoteKey
	a.Err = nil
	return a.releasePreview()
}

// fail moves the asset to its terminal error state. The local preview is
// kept so the thumbnail stays visible under the error overlay; the user may
// remove the asset and re-select the file.
func (a *Asset) fail(err error) {
	a.Status = AssetError
	a.Err = err
}

// releasePreview frees the local-preview resource if this asset still holds
// one. Safe to call from any state; the underlying resource is released at
// most once.
func (a *Asset) releasePreview() error {
	if a.released || a.source == nil {
		return nil
	}
	a.released = true
	return a.source.Release()
}

// Terminal reports whether no further automatic transition will occur.
func (a *Asset) Terminal() bool {
	return a.Status == AssetUploaded || a.Status == AssetError
}

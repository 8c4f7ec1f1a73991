// internal/draft/gallery.go
package draft

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxImages caps the main gallery.
const MaxImages = 5

// Uploader pushes one file to remote storage and returns its storage key.
// Timeout and retry policy belong to the implementation, not the gallery.
type Uploader interface {
	Upload(ctx context.Context, file SourceFile) (string, error)
}

// Gallery owns the ordered image collection of a draft and sequences
// uploads. Batches from one Select call run strictly one at a time, in
// selection order: upload N+1 does not start until upload N has resolved.
// That keeps visible progress in selection order and bounds concurrent
// connections to one per batch. Separate Select calls interleave freely;
// the mutex is never held across a network call.
type Gallery struct {
	mu       sync.Mutex
	uploader Uploader
	assets   []*Asset
	log      logrus.FieldLogger
}

func NewGallery(uploader Uploader) *Gallery {
	return &Gallery{
		uploader: uploader,
		log:      logrus.WithField("component", "draft_gallery"),
	}
}

// restore seeds the gallery with already-persisted image keys.
func (g *Gallery) restore(remoteKeys []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, key := range remoteKeys {
		if key == "" {
			continue
		}
		g.assets = append(g.assets, restoredAsset(key))
	}
}

// Select admits a batch of files. If the batch would exceed MaxImages the
// call is rejected outright and the collection is left untouched. Otherwise
// every file is appended as a pending asset first, so callers see the whole
// selection before any network I/O, and then uploaded sequentially. A failed
// upload marks its own asset as error and does not abort the rest of the
// batch.
func (g *Gallery) Select(ctx context.Context, files ...SourceFile) ([]*Asset, error) {
	if len(files) == 0 {
		return nil, nil
	}

	g.mu.Lock()
	if len(g.assets)+len(files) > MaxImages {
		g.mu.Unlock()
		return nil, ErrSelectionRejected
	}

	batch := make([]*Asset, 0, len(files))
	for _, f := range files {
		a := newAsset(f)
		g.assets = append(g.assets, a)
		batch = append(batch, a)
	}
	g.mu.Unlock()

	for _, a := range batch {
		g.upload(ctx, a)
	}
	return batch, nil
}

// upload drives one asset through uploading -> uploaded | error. The asset
// is re-resolved by ID after the network call: if it was removed in the
// meantime the result has no slot to land in and is discarded.
func (g *Gallery) upload(ctx context.Context, a *Asset) {
	g.mu.Lock()
	if g.find(a.ID) == nil {
		// Removed before the upload started.
		g.mu.Unlock()
		return
	}
	a.markUploading()
	src := a.source
	g.mu.Unlock()

	key, err := g.uploader.Upload(ctx, src)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.find(a.ID) == nil {
		g.log.WithField("asset_id", a.ID).Debug("discarding upload result for removed asset")
		return
	}
	if err != nil {
		a.fail(err)
		g.log.WithError(err).WithField("asset_id", a.ID).Warn("image upload failed")
		return
	}
	if rerr := a.complete(key); rerr != nil {
		g.log.WithError(rerr).WithField("asset_id", a.ID).Warn("failed to release local preview")
	}
}

// Remove releases the asset's local preview if it still holds one and drops
// it from the collection, whatever its status. Removing a mid-upload asset
// leaves the in-flight call unobserved; its eventual result is discarded.
func (g *Gallery) Remove(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, a := range g.assets {
		if a.ID == id {
			if err := a.releasePreview(); err != nil {
				g.log.WithError(err).WithField("asset_id", id).Warn("failed to release local preview")
			}
			g.assets = append(g.assets[:i], g.assets[i+1:]...)
			return true
		}
	}
	return false
}

// UploadClean reports whether no member is pending or uploading.
func (g *Gallery) UploadClean() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range g.assets {
		if !a.Terminal() {
			return false
		}
	}
	return true
}

// Assets returns a snapshot of the collection in insertion order.
func (g *Gallery) Assets() []*Asset {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Asset, len(g.assets))
	copy(out, g.assets)
	return out
}

func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.assets)
}

// RemoteKeys returns the storage keys of uploaded members only, preserving
// original selection order.
func (g *Gallery) RemoteKeys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.assets))
	for _, a := range g.assets {
		if a.Status == AssetUploaded {
			keys = append(keys, a.RemoteKey)
		}
	}
	return keys
}

// releaseAll frees every outstanding local preview. Called on session
// teardown.
func (g *Gallery) releaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range g.assets {
		if err := a.releasePreview(); err != nil {
			g.log.WithError(err).WithField("asset_id", a.ID).Warn("failed to release local preview")
		}
	}
}

// find looks an asset up by its routing token. Caller holds g.mu.
func (g *Gallery) find(id uuid.UUID) *Asset {
	for _, a := range g.assets {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// internal/draft/gallery_test.go
package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGallerySelectUploadsSequentiallyInOrder(t *testing.T) {
	uploader := newStubUploader()
	g := NewGallery(uploader)

	files := []SourceFile{newStubFile("a.jpg"), newStubFile("b.jpg"), newStubFile("c.jpg")}
	batch, err := g.Select(context.Background(), files...)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, uploader.uploadOrder())
	assert.Equal(t, []string{"uploads/a.jpg", "uploads/b.jpg", "uploads/c.jpg"}, g.RemoteKeys())
	assert.True(t, g.UploadClean())
}

func TestGallerySelectRejectsOverCap(t *testing.T) {
	uploader := newStubUploader()
	g := NewGallery(uploader)

	first := []SourceFile{newStubFile("1.jpg"), newStubFile("2.jpg"), newStubFile("3.jpg")}
	_, err := g.Select(context.Background(), first...)
	require.NoError(t, err)
	before := g.Assets()

	over := []SourceFile{newStubFile("4.jpg"), newStubFile("5.jpg"), newStubFile("6.jpg")}
	_, err = g.Select(context.Background(), over...)
	assert.ErrorIs(t, err, ErrSelectionRejected)

	// Rejection must leave the collection untouched: same members, same
	// order, no uploads attempted for the rejected batch.
	after := g.Assets()
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Status, after[i].Status)
	}
	assert.Equal(t, []string{"1.jpg", "2.jpg", "3.jpg"}, uploader.uploadOrder())

	// Exactly at the cap is still allowed.
	_, err = g.Select(context.Background(), newStubFile("4.jpg"), newStubFile("5.jpg"))
	require.NoError(t, err)
	assert.Equal(t, MaxImages, g.Len())
}

func TestGalleryFailedUploadDoesNotBlockBatch(t *testing.T) {
	uploader := newStubUploader("b.jpg")
	g := NewGallery(uploader)

	fa, fb, fc := newStubFile("a.jpg"), newStubFile("b.jpg"), newStubFile("c.jpg")
	batch, err := g.Select(context.Background(), fa, fb, fc)
	require.NoError(t, err)

	assert.Equal(t, AssetUploaded, batch[0].Status)
	assert.Equal(t, AssetError, batch[1].Status)
	assert.Error(t, batch[1].Err)
	assert.Equal(t, AssetUploaded, batch[2].Status)

	// Error members are excluded from the payload keys, order preserved.
	assert.Equal(t, []string{"uploads/a.jpg", "uploads/c.jpg"}, g.RemoteKeys())
	// Terminal error still counts as upload-clean.
	assert.True(t, g.UploadClean())
}

func TestGalleryRemoteKeyMatchesUploadedStatus(t *testing.T) {
	uploader := newStubUploader("bad.jpg")
	g := NewGallery(uploader)

	_, err := g.Select(context.Background(), newStubFile("ok.jpg"), newStubFile("bad.jpg"))
	require.NoError(t, err)

	for _, a := range g.Assets() {
		if a.Status == AssetUploaded {
			assert.NotEmpty(t, a.RemoteKey)
		} else {
			assert.Empty(t, a.RemoteKey)
		}
		assert.NotEmpty(t, a.PreviewURI)
	}
}

func TestGalleryPreviewReleasedExactlyOnce(t *testing.T) {
	t.Run("on successful upload", func(t *testing.T) {
		uploader := newStubUploader()
		g := NewGallery(uploader)
		f := newStubFile("a.jpg")

		_, err := g.Select(context.Background(), f)
		require.NoError(t, err)
		assert.Equal(t, 1, f.releaseCount())

		// Neither removal nor teardown releases it again.
		g.Remove(g.Assets()[0].ID)
		g.releaseAll()
		assert.Equal(t, 1, f.releaseCount())
	})

	t.Run("on removal of a failed upload", func(t *testing.T) {
		uploader := newStubUploader("a.jpg")
		g := NewGallery(uploader)
		f := newStubFile("a.jpg")

		batch, err := g.Select(context.Background(), f)
		require.NoError(t, err)
		assert.Equal(t, 0, f.releaseCount(), "error assets keep their preview visible")

		require.True(t, g.Remove(batch[0].ID))
		assert.Equal(t, 1, f.releaseCount())
	})

	t.Run("on teardown", func(t *testing.T) {
		uploader := newStubUploader("a.jpg")
		g := NewGallery(uploader)
		f := newStubFile("a.jpg")

		_, err := g.Select(context.Background(), f)
		require.NoError(t, err)
		g.releaseAll()
		g.releaseAll()
		assert.Equal(t, 1, f.releaseCount())
	})
}

func TestGalleryRemoveMidUploadDiscardsResult(t *testing.T) {
	uploader := newStubUploader()
	uploader.gate = make(chan struct{})
	g := NewGallery(uploader)
	f := newStubFile("slow.jpg")

	done := make(chan []*Asset, 1)
	go func() {
		batch, err := g.Select(context.Background(), f)
		if err == nil {
			done <- batch
		}
	}()

	// Wait until the asset is visible and in flight, then remove it.
	require.Eventually(t, func() bool {
		assets := g.Assets()
		return len(assets) == 1 && assets[0].Status == AssetUploading
	}, time.Second, time.Millisecond)

	id := g.Assets()[0].ID
	require.True(t, g.Remove(id))
	assert.Equal(t, 1, f.releaseCount())
	assert.Equal(t, 0, g.Len())

	close(uploader.gate)
	batch := <-done

	// The late result found no slot to land in: the collection stays empty
	// and the preview is not released a second time.
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 1, f.releaseCount())
	assert.Len(t, batch, 1)
}

func TestGalleryRestore(t *testing.T) {
	g := NewGallery(newStubUploader())
	g.restore([]string{"uploads/x.jpg", "", "uploads/y.jpg"})

	assets := g.Assets()
	require.Len(t, assets, 2)
	for _, a := range assets {
		assert.Equal(t, AssetUploaded, a.Status)
		assert.Equal(t, a.RemoteKey, a.PreviewURI)
	}
	assert.True(t, g.UploadClean())
}

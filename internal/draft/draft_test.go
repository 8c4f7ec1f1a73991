// internal/draft/draft_test.go
package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountPercent(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		discount float64
		want     int
	}{
		{"regular discount", 100, 80, 20},
		{"no discount", 100, 100, 0},
		{"discount above original collapses to zero", 100, 120, 0},
		{"zero original", 0, 50, 0},
		{"rounding up", 3, 2, 33},
		{"rounding half", 200, 150, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiscountPercent(tt.original, tt.discount))
		})
	}
}

func TestDraftSetCategoryClearsSubcategory(t *testing.T) {
	d := New(newStubUploader())
	d.SetCategory("cat-clothing")
	d.SetSubcategory("sub-shirts")
	require.Equal(t, "sub-shirts", d.SubcategoryRef())

	d.SetCategory("cat-misc")
	assert.Equal(t, "cat-misc", d.CategoryRef())
	assert.Equal(t, "", d.SubcategoryRef(), "changing category must clear the subcategory")

	// Setting the same category again still clears it.
	d.SetSubcategory("sub-anything")
	d.SetCategory("cat-misc")
	assert.Equal(t, "", d.SubcategoryRef())
}

func TestDraftValidateAggregatesAllViolations(t *testing.T) {
	d := New(newStubUploader())
	d.Description = "A short sleeve tee"
	d.Brand = "Trendora"
	d.OriginalPrice = 100
	d.DiscountPrice = 80
	d.SetCategory("cat-clothing")
	// name and stock left empty, no images uploaded.

	violations := d.Validate()
	require.Len(t, violations, 3)

	byField := map[string]ViolationCode{}
	for _, v := range violations {
		byField[v.Field] = v.Code
	}
	assert.Equal(t, RequiredFieldMissing, byField["name"])
	assert.Equal(t, RequiredFieldMissing, byField["stock"])
	assert.Equal(t, NoUploadedImage, byField["images"])
}

func TestDraftValidatePriceInconsistent(t *testing.T) {
	d := validDraft(t)
	d.DiscountPrice = d.OriginalPrice + 1

	violations := d.Validate()
	require.Len(t, violations, 1)
	assert.Equal(t, PriceInconsistent, violations[0].Code)
}

func TestDraftValidateImageStatusRules(t *testing.T) {
	// Error-status images do not satisfy the image rule.
	uploader := newStubUploader("a.jpg")
	d := New(uploader)
	fillScalars(d)
	_, err := d.Images.Select(context.Background(), newStubFile("a.jpg"))
	require.NoError(t, err)

	violations := d.Validate()
	require.Len(t, violations, 1)
	assert.Equal(t, NoUploadedImage, violations[0].Code)
}

func TestDraftFeatureImageLifecycle(t *testing.T) {
	uploader := newStubUploader()
	d := New(uploader)

	i := d.AddFeature()
	require.NoError(t, d.UpdateFeature(i, func(f *Feature) {
		f.Title = "Breathable fabric"
		f.Description = "Keeps you cool"
	}))

	f := newStubFile("feature.jpg")
	asset, err := d.SetFeatureImage(context.Background(), i, f)
	require.NoError(t, err)
	assert.Equal(t, AssetUploaded, asset.Status)
	assert.Equal(t, "uploads/feature.jpg", asset.RemoteKey)
	assert.Equal(t, 1, f.releaseCount())

	require.NoError(t, d.ClearFeatureImage(i))
	assert.Nil(t, d.Features()[i].Image)
	assert.Equal(t, 1, f.releaseCount())
}

func TestDraftFeatureImageFailureKeepsPreview(t *testing.T) {
	uploader := newStubUploader("feature.jpg")
	d := New(uploader)
	i := d.AddFeature()

	f := newStubFile("feature.jpg")
	asset, err := d.SetFeatureImage(context.Background(), i, f)
	require.NoError(t, err)
	assert.Equal(t, AssetError, asset.Status)
	assert.Equal(t, 0, f.releaseCount(), "error keeps the preview for the thumbnail")

	// Removing the feature finally releases it.
	require.NoError(t, d.RemoveFeature(i))
	assert.Equal(t, 1, f.releaseCount())
}

func TestDraftFeatureRemovedMidUploadDiscardsResult(t *testing.T) {
	uploader := newStubUploader()
	uploader.gate = make(chan struct{})
	d := New(uploader)
	i := d.AddFeature()
	f := newStubFile("slow.jpg")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.SetFeatureImage(context.Background(), i, f)
	}()

	require.Eventually(t, func() bool {
		features := d.Features()
		return len(features) == 1 && features[0].Image != nil && features[0].Image.Status == AssetUploading
	}, time.Second, time.Millisecond)

	require.NoError(t, d.RemoveFeature(i))
	assert.Equal(t, 1, f.releaseCount())

	close(uploader.gate)
	<-done

	assert.Empty(t, d.Features())
	assert.Equal(t, 1, f.releaseCount())
}

func TestDraftUploadCleanCoversFeatures(t *testing.T) {
	uploader := newStubUploader()
	uploader.gate = make(chan struct{})
	d := New(uploader)
	i := d.AddFeature()
	f := newStubFile("slow.jpg")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.SetFeatureImage(context.Background(), i, f)
	}()

	require.Eventually(t, func() bool { return !d.UploadClean() }, time.Second, time.Millisecond)

	close(uploader.gate)
	<-done
	assert.True(t, d.UploadClean())
}

func TestDraftRestore(t *testing.T) {
	d := New(newStubUploader())
	d.RestoreImages([]string{"uploads/a.jpg", "uploads/b.jpg"})
	d.RestoreFeature("Stitching", "Double stitched seams", "uploads/f.jpg")
	d.RestoreFeature("Care", "Machine washable", "")

	assert.Equal(t, []string{"uploads/a.jpg", "uploads/b.jpg"}, d.Images.RemoteKeys())
	features := d.Features()
	require.Len(t, features, 2)
	require.NotNil(t, features[0].Image)
	assert.Equal(t, AssetUploaded, features[0].Image.Status)
	assert.Nil(t, features[1].Image)
	assert.True(t, d.UploadClean())
}

// validDraft builds a draft that passes validation: scalars set and one
// uploaded image.
func validDraft(t *testing.T) *Draft {
	t.Helper()
	d := New(newStubUploader())
	fillScalars(d)
	_, err := d.Images.Select(context.Background(), newStubFile("main.jpg"))
	require.NoError(t, err)
	return d
}

func fillScalars(d *Draft) {
	d.Name = "Crew Neck Tee"
	d.Description = "A short sleeve tee"
	d.Brand = "Trendora"
	d.OriginalPrice = 100
	d.DiscountPrice = 80
	d.Stock = 25
	d.SetCategory("cat-clothing")
	d.SetSubcategory("sub-shirts")
}

// internal/draft/draft.go
package draft

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Specification struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SizeRow struct {
	Label string `json:"label"`
	Stock int    `json:"stock"`
}

// Feature is one feature block. Each block owns at most one image asset
// whose lifecycle matches the gallery assets, but scoped to a single slot
// with no count cap.
type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       *Asset `json:"image,omitempty"`
}

// DefaultRatingAttributes seed every new draft and stay editable.
var DefaultRatingAttributes = []string{"Quality", "Color", "Design", "Size"}

// Draft is the product under edit: all scalar fields plus the dynamic
// sub-collections and the image gallery. A draft is owned by exactly one
// editing session; scalar and collection edits are serialized by that
// session, while the upload paths (gallery, feature images) synchronize
// themselves because they interleave with network I/O.
type Draft struct {
	Name          string
	Description   string
	Brand         string
	OriginalPrice float64
	DiscountPrice float64
	Stock         int

	Colors           *List[string]
	Specifications   *List[Specification]
	SizeChart        *List[SizeRow]
	RatingAttributes *List[string]

	Images *Gallery

	categoryRef    string
	subcategoryRef string

	featureMu sync.Mutex
	features  []*Feature

	uploader Uploader
	log      logrus.FieldLogger
}

func New(uploader Uploader) *Draft {
	return &Draft{
		Colors:           NewList[string](),
		Specifications:   NewList[Specification](),
		SizeChart:        NewList[SizeRow](),
		RatingAttributes: NewList(DefaultRatingAttributes...),
		Images:           NewGallery(uploader),
		uploader:         uploader,
		log:              logrus.WithField("component", "draft"),
	}
}

// SetCategory records the category reference and always clears the
// subcategory reference: the child list depends on the parent selection.
func (d *Draft) SetCategory(categoryID string) {
	d.categoryRef = categoryID
	d.subcategoryRef = ""
}

func (d *Draft) SetSubcategory(subcategoryID string) {
	d.subcategoryRef = subcategoryID
}

func (d *Draft) CategoryRef() string    { return d.categoryRef }
func (d *Draft) SubcategoryRef() string { return d.subcategoryRef }

// AddFeature appends an empty feature block and returns its index.
func (d *Draft) AddFeature() int {
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	d.features = append(d.features, &Feature{})
	return len(d.features) - 1
}

// UpdateFeature mutates the title/description of the block at index.
func (d *Draft) UpdateFeature(index int, fn func(*Feature)) error {
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	if index < 0 || index >= len(d.features) {
		return ErrIndexOutOfRange
	}
	fn(d.features[index])
	return nil
}

// RemoveFeature drops the block at index, releasing its image preview if
// one is still held.
func (d *Draft) RemoveFeature(index int) error {
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	if index < 0 || index >= len(d.features) {
		return ErrIndexOutOfRange
	}
	if img := d.features[index].Image; img != nil {
		if err := img.releasePreview(); err != nil {
			d.log.WithError(err).Warn("failed to release feature image preview")
		}
	}
	d.features = append(d.features[:index], d.features[index+1:]...)
	return nil
}

// SetFeatureImage replaces the image of the block at index and uploads it
// immediately. The result is routed back by asset ID: if the block was
// removed or its image replaced while the call was in flight, the result is
// discarded.
func (d *Draft) SetFeatureImage(ctx context.Context, index int, file SourceFile) (*Asset, error) {
	d.featureMu.Lock()
	if index < 0 || index >= len(d.features) {
		d.featureMu.Unlock()
		return nil, ErrIndexOutOfRange
	}
	if old := d.features[index].Image; old != nil {
		if err := old.releasePreview(); err != nil {
			d.log.WithError(err).Warn("failed to release feature image preview")
		}
	}
	a := newAsset(file)
	a.markUploading()
	d.features[index].Image = a
	d.featureMu.Unlock()

	key, err := d.uploader.Upload(ctx, file)

	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	current := d.findFeatureAsset(a.ID)
	if current == nil {
		d.log.WithField("asset_id", a.ID).Debug("discarding upload result for removed feature image")
		return a, nil
	}
	if err != nil {
		current.fail(err)
		d.log.WithError(err).WithField("asset_id", a.ID).Warn("feature image upload failed")
		return current, nil
	}
	if rerr := current.complete(key); rerr != nil {
		d.log.WithError(rerr).WithField("asset_id", a.ID).Warn("failed to release feature image preview")
	}
	return current, nil
}

// ClearFeatureImage detaches the image of the block at index.
func (d *Draft) ClearFeatureImage(index int) error {
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	if index < 0 || index >= len(d.features) {
		return ErrIndexOutOfRange
	}
	if img := d.features[index].Image; img != nil {
		if err := img.releasePreview(); err != nil {
			d.log.WithError(err).Warn("failed to release feature image preview")
		}
		d.features[index].Image = nil
	}
	return nil
}

// Features returns a snapshot of the feature blocks.
func (d *Draft) Features() []Feature {
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	out := make([]Feature, len(d.features))
	for i, f := range d.features {
		out[i] = *f
	}
	return out
}

func (d *Draft) findFeatureAsset(id uuid.UUID) *Asset {
	for _, f := range d.features {
		if f.Image != nil && f.Image.ID == id {
			return f.Image
		}
	}
	return nil
}

// RestoreImages seeds the gallery with image keys already persisted on the
// server, e.g. when editing an existing product.
func (d *Draft) RestoreImages(remoteKeys []string) {
	d.Images.restore(remoteKeys)
}

// RestoreFeature appends a feature block from persisted data. An empty
// remote key restores a block without an image.
func (d *Draft) RestoreFeature(title, description, remoteKey string) {
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	f := &Feature{Title: title, Description: description}
	if remoteKey != "" {
		f.Image = restoredAsset(remoteKey)
	}
	d.features = append(d.features, f)
}

// UploadClean reports whether every asset in the gallery and every feature
// image is in a terminal state. Only an upload-clean draft may be submitted.
func (d *Draft) UploadClean() bool {
	if !d.Images.UploadClean() {
		return false
	}
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	for _, f := range d.features {
		if f.Image != nil && !f.Image.Terminal() {
			return false
		}
	}
	return true
}

// Validate runs the full rule set in one pass and returns every violation so
// the caller can display all problems at once. An empty result means the
// draft is valid.
func (d *Draft) Validate() []Violation {
	var violations []Violation

	required := []struct {
		field string
		empty bool
	}{
		{"name", strings.TrimSpace(d.Name) == ""},
		{"description", strings.TrimSpace(d.Description) == ""},
		{"originalPrice", d.OriginalPrice <= 0},
		{"discountPrice", d.DiscountPrice <= 0},
		{"category", d.categoryRef == ""},
		{"brand", strings.TrimSpace(d.Brand) == ""},
		{"stock", d.Stock <= 0},
	}
	for _, r := range required {
		if r.empty {
			violations = append(violations, Violation{
				Field:   r.field,
				Code:    RequiredFieldMissing,
				Message: r.field + " is required",
			})
		}
	}

	if d.OriginalPrice > 0 && d.DiscountPrice > d.OriginalPrice {
		violations = append(violations, Violation{
			Field:   "discountPrice",
			Code:    PriceInconsistent,
			Message: "discounted price must not exceed original price",
		})
	}

	hasUploaded := false
	for _, a := range d.Images.Assets() {
		if a.Status == AssetUploaded {
			hasUploaded = true
			break
		}
	}
	if !hasUploaded {
		violations = append(violations, Violation{
			Field:   "images",
			Code:    NoUploadedImage,
			Message: "at least one uploaded image is required",
		})
	}

	return violations
}

// DiscountPercent is the derived discount, recomputed at submission time and
// never persisted as user-editable state. A zero original price or a
// discount at or above the original collapses to 0, never negative.
func DiscountPercent(original, discounted float64) int {
	if original <= 0 || original <= discounted {
		return 0
	}
	return int(math.Round((original - discounted) / original * 100))
}

// releaseAll frees every outstanding local preview held by the draft.
func (d *Draft) releaseAll() {
	d.Images.releaseAll()
	d.featureMu.Lock()
	defer d.featureMu.Unlock()
	for _, f := range d.features {
		if f.Image != nil {
			if err := f.Image.releasePreview(); err != nil {
				d.log.WithError(err).Warn("failed to release feature image preview")
			}
		}
	}
}

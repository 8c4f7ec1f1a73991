// internal/draft/session_test.go
package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, d *Draft, saver *stubSaver) *Session {
	t.Helper()
	r := NewResolver(&stubCategorySource{tree: testTree()})
	require.NoError(t, r.Load(context.Background()))
	return NewSession(d, r, saver)
}

func TestSubmitBlockedByOutstandingUpload(t *testing.T) {
	uploader := newStubUploader()
	uploader.gate = make(chan struct{})
	d := New(uploader)
	fillScalars(d)
	d.RestoreImages([]string{"uploads/existing.jpg"})
	saver := &stubSaver{}
	s := newTestSession(t, d, saver)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.Images.Select(context.Background(), newStubFile("slow.jpg"))
	}()
	require.Eventually(t, func() bool { return !d.UploadClean() }, time.Second, time.Millisecond)

	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrUploadsInProgress)
	assert.Equal(t, 0, saver.saveCount(), "no save call may be issued while uploads are outstanding")
	assert.Equal(t, SessionEditing, s.State())

	close(uploader.gate)
	<-done

	_, err = s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saver.saveCount())
}

func TestSubmitBlockedByValidation(t *testing.T) {
	d := New(newStubUploader())
	saver := &stubSaver{}
	s := newTestSession(t, d, saver)

	_, err := s.Submit(context.Background())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Violations)
	assert.Equal(t, 0, saver.saveCount())
	assert.Equal(t, SessionEditing, s.State())
}

func TestSubmitPayloadShape(t *testing.T) {
	uploader := newStubUploader("broken.jpg")
	d := New(uploader)
	fillScalars(d)
	d.OriginalPrice = 100
	d.DiscountPrice = 80

	_, err := d.Images.Select(context.Background(),
		newStubFile("front.jpg"), newStubFile("broken.jpg"), newStubFile("back.jpg"))
	require.NoError(t, err)

	d.Colors.Append("Red")
	d.Colors.Append("Blue")
	d.Specifications.Append(Specification{Key: "Material", Value: "Cotton"})
	d.SizeChart.Append(SizeRow{Label: "M", Stock: 10})

	i := d.AddFeature()
	require.NoError(t, d.UpdateFeature(i, func(f *Feature) { f.Title = "Soft" }))
	_, err = d.SetFeatureImage(context.Background(), i, newStubFile("soft.jpg"))
	require.NoError(t, err)
	j := d.AddFeature()
	require.NoError(t, d.UpdateFeature(j, func(f *Feature) { f.Title = "Durable" }))

	saver := &stubSaver{}
	s := newTestSession(t, d, saver)

	payload, err := s.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, saver.saveCount())

	// Only the two uploaded gallery members survive, in selection order.
	assert.Equal(t, []string{"uploads/front.jpg", "uploads/back.jpg"}, payload.Images)
	assert.Equal(t, 20, payload.DiscountPercent)
	assert.Equal(t, "Clothing", payload.Category)
	assert.Equal(t, "Shirts", payload.Subcategory)
	assert.Equal(t, []string{"Red", "Blue"}, payload.Colors)
	assert.Equal(t, []string{"Quality", "Color", "Design", "Size"}, payload.RatingAttrs)

	require.Len(t, payload.Features, 2)
	assert.Equal(t, "uploads/soft.jpg", payload.Features[0].Image)
	assert.Equal(t, "", payload.Features[1].Image, "feature without image flattens to empty string")

	assert.Equal(t, SessionSaved, s.State())
}

func TestSubmitStaleCategoryDegradesSilently(t *testing.T) {
	d := validDraft(t)
	d.SetCategory("cat-deleted-upstream")
	saver := &stubSaver{}
	s := newTestSession(t, d, saver)

	// The category ref no longer resolves but the required-field rule only
	// checks presence; the payload carries an empty display name.
	payload, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", payload.Category)
	assert.Equal(t, "", payload.Subcategory)
}

func TestSubmitSaveFailureIsResubmittable(t *testing.T) {
	d := validDraft(t)
	saver := &stubSaver{err: errors.New("gateway timeout")}
	s := newTestSession(t, d, saver)

	_, err := s.Submit(context.Background())
	var serr *SaveError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, SessionEditing, s.State(), "save failure returns the session to editing")

	// Draft state is untouched and the session is resubmittable.
	saver.err = nil
	payload, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Crew Neck Tee", payload.Name)
	assert.Equal(t, 1, saver.saveCount())
}

func TestSubmitAfterSavedIsRejected(t *testing.T) {
	d := validDraft(t)
	saver := &stubSaver{}
	s := newTestSession(t, d, saver)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSessionSaved)
	assert.Equal(t, 1, saver.saveCount())

	err = s.Update(func(*Draft) error { return nil })
	assert.ErrorIs(t, err, ErrSessionSaved)
}

func TestSessionCloseReleasesResources(t *testing.T) {
	uploader := newStubUploader("bad.jpg")
	d := New(uploader)
	galleryFile := newStubFile("bad.jpg")
	_, err := d.Images.Select(context.Background(), galleryFile)
	require.NoError(t, err)

	i := d.AddFeature()
	featureFile := newStubFile("bad.jpg")
	_, err = d.SetFeatureImage(context.Background(), i, featureFile)
	require.NoError(t, err)

	s := newTestSession(t, d, &stubSaver{})
	s.Close()
	s.Close()

	assert.Equal(t, 1, galleryFile.releaseCount())
	assert.Equal(t, 1, featureFile.releaseCount())
}

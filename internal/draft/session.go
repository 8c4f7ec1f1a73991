// internal/draft/session.go
package draft

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Payload is the finished draft emitted by a successful submission. Field
// names match the persisted wire shape; images keep selection order.
type Payload struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Brand           string           `json:"brand"`
	Stock           int              `json:"stock"`
	OriginalPrice   float64          `json:"originalPrice"`
	DiscountPrice   float64          `json:"discountPrice"`
	DiscountPercent int              `json:"discountPercent"`
	Category        string           `json:"category"`
	Subcategory     string           `json:"subcategory"`
	Colors          []string         `json:"colors"`
	Specifications  []Specification  `json:"specifications"`
	SizeChart       []SizeRow        `json:"sizeChart"`
	RatingAttrs     []string         `json:"ratingAttributes"`
	Images          []string         `json:"images"`
	Features        []FeaturePayload `json:"featureDescriptions"`
}

// FeaturePayload flattens a feature block's image to its remote key, or an
// empty string when the block has no uploaded image.
type FeaturePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Saver persists the finished payload: the create-or-update destination is
// injected so the same engine serves both the generic and the
// supplier-submitted product editors.
type Saver interface {
	Save(ctx context.Context, payload *Payload) error
}

type SessionState string

const (
	SessionEditing    SessionState = "editing"
	SessionSubmitting SessionState = "submitting"
	SessionSaved      SessionState = "saved"
)

// Session owns one draft for one editor and gates its submission. The gate
// refuses to submit while any upload is outstanding, aggregates all
// validation failures before any network call, and invokes the save
// endpoint exactly once per successful submission. A save failure returns
// the session to editing with the draft untouched and resubmittable.
type Session struct {
	ID uuid.UUID

	mu       sync.Mutex
	draft    *Draft
	resolver *Resolver
	saver    Saver
	state    SessionState
	lastUsed time.Time
	log      logrus.FieldLogger
}

func NewSession(d *Draft, resolver *Resolver, saver Saver) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		draft:    d,
		resolver: resolver,
		saver:    saver,
		state:    SessionEditing,
		lastUsed: time.Now(),
		log:      logrus.WithField("session_id", id),
	}
}

func (s *Session) Draft() *Draft {
	return s.draft
}

func (s *Session) Resolver() *Resolver {
	return s.resolver
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Touch marks the session as recently used, for idle sweeping.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
}

func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Update runs a draft mutation under the session lock. Scalar and
// collection edits go through here; upload operations synchronize
// themselves and must not.
func (s *Session) Update(fn func(*Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionSaved {
		return ErrSessionSaved
	}
	s.lastUsed = time.Now()
	return fn(s.draft)
}

// Submit drives the gate: upload-clean precondition, aggregate validation,
// payload assembly, then exactly one save call. Success is terminal for the
// session; failure leaves the draft in editing state.
func (s *Session) Submit(ctx context.Context) (*Payload, error) {
	s.mu.Lock()
	switch s.state {
	case SessionSaved:
		s.mu.Unlock()
		return nil, ErrSessionSaved
	case SessionSubmitting:
		s.mu.Unlock()
		return nil, ErrUploadsInProgress
	}

	if !s.draft.UploadClean() {
		s.mu.Unlock()
		return nil, ErrUploadsInProgress
	}

	if violations := s.draft.Validate(); len(violations) > 0 {
		s.mu.Unlock()
		return nil, &ValidationError{Violations: violations}
	}

	payload := s.buildPayload()
	s.state = SessionSubmitting
	s.mu.Unlock()

	err := s.saver.Save(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = SessionEditing
		s.log.WithError(err).Warn("draft save failed")
		return nil, &SaveError{Err: err}
	}
	s.state = SessionSaved
	s.log.WithField("name", payload.Name).Info("draft saved")
	return payload, nil
}

// Close tears the session down, releasing every local-preview resource the
// draft still holds. Safe to call in any state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.releaseAll()
}

// buildPayload assembles the persisted shape: reference IDs resolved to
// display names, only uploaded gallery members (in order), discount percent
// recomputed, feature images flattened to their remote keys. Caller holds
// s.mu.
func (s *Session) buildPayload() *Payload {
	d := s.draft
	categoryName, subcategoryName := s.resolver.ResolveNames(d.CategoryRef(), d.SubcategoryRef())

	features := d.Features()
	featurePayloads := make([]FeaturePayload, 0, len(features))
	for _, f := range features {
		fp := FeaturePayload{Title: f.Title, Description: f.Description}
		if f.Image != nil {
			fp.Image = f.Image.RemoteKey
		}
		featurePayloads = append(featurePayloads, fp)
	}

	return &Payload{
		Name:            d.Name,
		Description:     d.Description,
		Brand:           d.Brand,
		Stock:           d.Stock,
		OriginalPrice:   d.OriginalPrice,
		DiscountPrice:   d.DiscountPrice,
		DiscountPercent: DiscountPercent(d.OriginalPrice, d.DiscountPrice),
		Category:        categoryName,
		Subcategory:     subcategoryName,
		Colors:          d.Colors.Items(),
		Specifications:  d.Specifications.Items(),
		SizeChart:       d.SizeChart.Items(),
		RatingAttrs:     d.RatingAttributes.Items(),
		Images:          d.Images.RemoteKeys(),
		Features:        featurePayloads,
	}
}

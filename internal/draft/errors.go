// internal/draft/errors.go
package draft

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSelectionRejected is returned by Gallery.Select when the batch would
	// push the gallery past MaxImages. Nothing is mutated.
	ErrSelectionRejected = errors.New("selection rejected: image limit exceeded")

	// ErrUploadsInProgress is returned by Session.Submit while any gallery or
	// feature image is still pending or uploading. No save call is issued.
	ErrUploadsInProgress = errors.New("uploads still in progress")

	// ErrSessionSaved is returned for operations on a session whose draft has
	// already been persisted.
	ErrSessionSaved = errors.New("session already saved")

	// ErrIndexOutOfRange is returned by collection editors for an index that
	// does not address an existing record.
	ErrIndexOutOfRange = errors.New("index out of range")
)

type ViolationCode string

const (
	RequiredFieldMissing ViolationCode = "required_field_missing"
	PriceInconsistent    ViolationCode = "price_inconsistent"
	NoUploadedImage      ViolationCode = "no_uploaded_image"
)

// Violation is one failed validation rule. Validate collects every violation
// in a single pass so the caller can surface all of them at once.
type Violation struct {
	Field   string        `json:"field"`
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// SaveError wraps a failed save call. The draft stays in editing state and
// remains resubmittable.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save failed: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

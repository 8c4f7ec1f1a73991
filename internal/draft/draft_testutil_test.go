// internal/draft/draft_testutil_test.go
package draft

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// stubFile is a resource-tracking SourceFile double. Releases counts how
// many times the local preview was freed; the exactly-once invariant checks
// it equals 1 at the end of the asset's life.
type stubFile struct {
	name     string
	mu       sync.Mutex
	releases int
}

func newStubFile(name string) *stubFile {
	return &stubFile{name: name}
}

func (f *stubFile) Name() string { return f.name }

func (f *stubFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("image-bytes")), nil
}

func (f *stubFile) PreviewURI() string { return "blob:" + f.name }

func (f *stubFile) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

func (f *stubFile) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases
}

// stubUploader records upload order and fails the files named in failures.
// When gate is non-nil, every upload blocks until the gate is closed, which
// lets tests observe mid-flight state.
type stubUploader struct {
	mu       sync.Mutex
	order    []string
	failures map[string]bool
	gate     chan struct{}
}

func newStubUploader(failures ...string) *stubUploader {
	m := make(map[string]bool, len(failures))
	for _, f := range failures {
		m[f] = true
	}
	return &stubUploader{failures: m}
}

func (u *stubUploader) Upload(_ context.Context, file SourceFile) (string, error) {
	if u.gate != nil {
		<-u.gate
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.order = append(u.order, file.Name())
	if u.failures[file.Name()] {
		return "", errors.New("storage unavailable")
	}
	return fmt.Sprintf("uploads/%s", file.Name()), nil
}

func (u *stubUploader) uploadOrder() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.order))
	copy(out, u.order)
	return out
}

// stubCategorySource serves a fixed tree and counts fetches.
type stubCategorySource struct {
	tree  []Category
	calls int
	err   error
}

func (s *stubCategorySource) Categories(context.Context) ([]Category, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tree, nil
}

// stubSaver records payloads and optionally fails.
type stubSaver struct {
	mu       sync.Mutex
	payloads []*Payload
	err      error
}

func (s *stubSaver) Save(_ context.Context, p *Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, p)
	return nil
}

func (s *stubSaver) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func testTree() []Category {
	return []Category{
		{
			ID:   "cat-clothing",
			Name: "Clothing",
			Subcategories: []Subcategory{
				{ID: "sub-shirts", Name: "Shirts"},
				{ID: "sub-jeans", Name: "Jeans"},
			},
		},
		{ID: "cat-misc", Name: "Miscellaneous"},
	}
}

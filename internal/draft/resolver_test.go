// internal/draft/resolver_test.go
package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverLoadIsIdempotent(t *testing.T) {
	source := &stubCategorySource{tree: testTree()}
	r := NewResolver(source)

	require.NoError(t, r.Load(context.Background()))
	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, 1, source.calls)
	assert.Len(t, r.Categories(), 2)
}

func TestResolverLoadError(t *testing.T) {
	source := &stubCategorySource{err: errors.New("backend down")}
	r := NewResolver(source)

	err := r.Load(context.Background())
	require.Error(t, err)

	// A failed load is retryable.
	source.err = nil
	source.tree = testTree()
	require.NoError(t, r.Load(context.Background()))
	assert.Len(t, r.Categories(), 2)
}

func TestResolverSubcategoriesFor(t *testing.T) {
	r := NewResolver(&stubCategorySource{tree: testTree()})
	require.NoError(t, r.Load(context.Background()))

	subs := r.SubcategoriesFor("cat-clothing")
	require.Len(t, subs, 2)
	assert.Equal(t, "Shirts", subs[0].Name)

	// A parent with zero subcategories yields an empty list, not an error.
	assert.Empty(t, r.SubcategoriesFor("cat-misc"))
	assert.Empty(t, r.SubcategoriesFor("cat-deleted"))
}

func TestResolverResolveNamesSilentDegrade(t *testing.T) {
	r := NewResolver(&stubCategorySource{tree: testTree()})
	require.NoError(t, r.Load(context.Background()))

	cat, sub := r.ResolveNames("cat-clothing", "sub-jeans")
	assert.Equal(t, "Clothing", cat)
	assert.Equal(t, "Jeans", sub)

	// Stale references degrade to empty strings rather than failing.
	cat, sub = r.ResolveNames("cat-clothing", "sub-gone")
	assert.Equal(t, "Clothing", cat)
	assert.Equal(t, "", sub)

	cat, sub = r.ResolveNames("cat-gone", "sub-jeans")
	assert.Equal(t, "", cat)
	assert.Equal(t, "", sub)
}

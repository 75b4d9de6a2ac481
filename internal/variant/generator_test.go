package variant

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCartesianProduct(t *testing.T) {
	attrs := []Attribute{
		{Name: "color", Values: []string{"Red", "Blue"}},
		{Name: "size", Values: []string{"S", "M"}},
	}

	candidates, collisions := Generate(nil, attrs, "TSHIRT", 499)
	require.Len(t, candidates, 4)
	assert.Equal(t, 0, collisions)

	names := make([]string, len(candidates))
	skus := make(map[string]bool)
	for i, c := range candidates {
		names[i] = c.Name
		skus[c.SKU] = true

		assert.Equal(t, 499.0, c.Price)
		assert.Equal(t, 0.0, c.DiscountPrice)
		assert.Equal(t, 10, c.Stock)
		assert.Len(t, c.Attributes, 2)
	}

	assert.Equal(t, []string{"Red / S", "Red / M", "Blue / S", "Blue / M"}, names)
	assert.Len(t, skus, 4, "every candidate must carry a distinct SKU")
}

func TestGenerateSKUScheme(t *testing.T) {
	attrs := []Attribute{
		{Name: "color", Values: []string{"Red"}},
		{Name: "size", Values: []string{"M"}},
	}

	candidates, _ := Generate(nil, attrs, "TSHIRT", 499)
	require.Len(t, candidates, 1)

	// First two characters of each attribute name and value,
	// upper-cased, with the 1-based position appended.
	assert.Equal(t, "TSHIRT-CORESIM-1", candidates[0].SKU)
}

func TestGenerateSKUHandlesMultibyteRunes(t *testing.T) {
	attrs := []Attribute{
		{Name: "größe", Values: []string{"Übergroß"}},
	}

	candidates, collisions := Generate(nil, attrs, "BASE", 100)
	require.Len(t, candidates, 1)
	assert.Equal(t, 0, collisions)
	assert.Equal(t, "BASE-GRÜB-1", candidates[0].SKU)
	assert.True(t, utf8.ValidString(candidates[0].SKU))
}

func TestGenerateIsIdempotentDelta(t *testing.T) {
	attrs := []Attribute{
		{Name: "color", Values: []string{"Red", "Blue"}},
		{Name: "size", Values: []string{"S", "M"}},
	}

	first, _ := Generate(nil, attrs, "TSHIRT", 499)
	require.Len(t, first, 4)

	// Re-running over the same attribute set yields nothing new.
	again, _ := Generate(first, attrs, "TSHIRT", 499)
	assert.Empty(t, again)

	// Adding a value yields only the new combinations, with SKU
	// positions continuing past the existing variants.
	attrs[1].Values = append(attrs[1].Values, "L")
	delta, _ := Generate(first, attrs, "TSHIRT", 499)
	require.Len(t, delta, 2)

	assert.Equal(t, "Red / L", delta[0].Name)
	assert.Equal(t, "Blue / L", delta[1].Name)
	assert.True(t, strings.HasSuffix(delta[0].SKU, "-5"))
	assert.True(t, strings.HasSuffix(delta[1].SKU, "-6"))
}

func TestGenerateResolvesSKUCollision(t *testing.T) {
	// An existing variant already holds the SKU the generator would
	// assign, but with a different attribute identity so it is not
	// skipped as a duplicate combination.
	existing := []Candidate{
		{SKU: "BASE-CORE-2", Attributes: map[string]string{"color": "Blue"}},
	}
	attrs := []Attribute{
		{Name: "color", Values: []string{"Red"}},
	}

	candidates, collisions := Generate(existing, attrs, "BASE", 100)
	require.Len(t, candidates, 1)

	assert.Equal(t, 1, collisions)
	assert.NotEqual(t, "BASE-CORE-2", candidates[0].SKU)
	assert.True(t, strings.HasPrefix(candidates[0].SKU, "BASE-CORE-2-"))
}

func TestGenerateSkipsEmptyDimensions(t *testing.T) {
	attrs := []Attribute{
		{Name: "color", Values: []string{"Red"}},
		{Name: "material", Values: nil},
	}

	candidates, _ := Generate(nil, attrs, "BASE", 100)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Red", candidates[0].Name)
	assert.Len(t, candidates[0].Attributes, 1)
}

func TestIdentityOrderIndependent(t *testing.T) {
	a := Identity(map[string]string{"color": "Red", "size": "M"})
	b := Identity(map[string]string{"size": "M", "color": "Red"})
	assert.Equal(t, a, b)

	c := Identity(map[string]string{"color": "Blue", "size": "M"})
	assert.NotEqual(t, a, c)
}

func TestCheckPreconditions(t *testing.T) {
	attrs := []Attribute{{Name: "color", Values: []string{"Red"}}}

	assert.NoError(t, CheckPreconditions(attrs, "SKU-1"))
	assert.ErrorIs(t, CheckPreconditions(nil, "SKU-1"), ErrNoAttributes)
	assert.ErrorIs(t, CheckPreconditions(attrs, ""), ErrNoBaseSKU)
	assert.ErrorIs(t, CheckPreconditions(attrs, "   "), ErrNoBaseSKU)
	assert.ErrorIs(t, CheckPreconditions(nil, ""), ErrNoAttributesOrSKU)

	// An attribute type with no values does not satisfy the
	// attributes precondition.
	empty := []Attribute{{Name: "color"}}
	assert.ErrorIs(t, CheckPreconditions(empty, "SKU-1"), ErrNoAttributes)
}

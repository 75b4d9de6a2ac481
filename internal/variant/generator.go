package variant

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Generation precondition errors, distinguished so the API layer can
// tell the caller exactly what is missing.
var (
	ErrNoAttributes      = errors.New("at least one attribute with a value is required")
	ErrNoBaseSKU         = errors.New("a base SKU is required before generating variants")
	ErrNoAttributesOrSKU = errors.New("attributes and a base SKU are required before generating variants")
)

// Attribute is one dimension of a product (e.g. color) with its
// ordered candidate values.
type Attribute struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Candidate is a generated product variant, editable by the vendor
// after generation.
type Candidate struct {
	Name          string            `json:"name"`
	SKU           string            `json:"sku"`
	Price         float64           `json:"price"`
	DiscountPrice float64           `json:"discount_price"`
	Stock         int               `json:"stock"`
	Attributes    map[string]string `json:"attributes"`
	Image         string            `json:"image,omitempty"`
}

// Seed defaults for freshly generated variants
const (
	defaultStock         = 10
	defaultDiscountPrice = 0
)

// CheckPreconditions reports why generation cannot run, or nil when it
// can. Both conditions missing is reported as its own error so the UI
// can explain precisely.
func CheckPreconditions(attrs []Attribute, baseSKU string) error {
	hasValues := false
	for _, attr := range attrs {
		if len(attr.Values) > 0 {
			hasValues = true
			break
		}
	}
	hasSKU := strings.TrimSpace(baseSKU) != ""

	switch {
	case !hasValues && !hasSKU:
		return ErrNoAttributesOrSKU
	case !hasValues:
		return ErrNoAttributes
	case !hasSKU:
		return ErrNoBaseSKU
	}
	return nil
}

// Identity computes the structural identity of an attribute
// combination: the sorted name=value pairs. Two combinations with the
// same identity describe the same variant regardless of attribute
// order.
func Identity(attrs map[string]string) string {
	pairs := make([]string, 0, len(attrs))
	for name, value := range attrs {
		pairs = append(pairs, name+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "|")
}

// Generate produces variant candidates for every attribute combination
// not already present in existing. It is additive and idempotent:
// re-running after new attribute values were added yields only the
// delta. The second return value counts SKU collisions that had to be
// resolved with a timestamp suffix. Callers must have validated
// preconditions; over a well-formed non-empty attribute set the
// function is total.
func Generate(existing []Candidate, attrs []Attribute, baseSKU string, basePrice float64) ([]Candidate, int) {
	dimensions := make([]Attribute, 0, len(attrs))
	for _, attr := range attrs {
		if len(attr.Values) > 0 {
			dimensions = append(dimensions, attr)
		}
	}
	if len(dimensions) == 0 {
		return nil, 0
	}

	seen := make(map[string]bool, len(existing))
	assignedSKUs := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[Identity(v.Attributes)] = true
		assignedSKUs[v.SKU] = true
	}

	combos := combine(dimensions, 0, nil)

	collisions := 0
	candidates := make([]Candidate, 0, len(combos))
	for _, combo := range combos {
		attributes := make(map[string]string, len(dimensions))
		values := make([]string, len(dimensions))
		for i, dim := range dimensions {
			attributes[dim.Name] = combo[i]
			values[i] = combo[i]
		}

		if seen[Identity(attributes)] {
			continue
		}

		index := len(existing) + len(candidates)
		sku := buildSKU(baseSKU, dimensions, combo, index)
		if assignedSKUs[sku] {
			// Last-resort disambiguator; the positional index already
			// keeps SKUs unique across repeated generation runs.
			sku = fmt.Sprintf("%s-%d", sku, time.Now().UnixNano())
			collisions++
		}
		assignedSKUs[sku] = true

		candidates = append(candidates, Candidate{
			Name:          strings.Join(values, " / "),
			SKU:           sku,
			Price:         basePrice,
			DiscountPrice: defaultDiscountPrice,
			Stock:         defaultStock,
			Attributes:    attributes,
		})
	}

	return candidates, collisions
}

// combine builds the Cartesian product of attribute values depth-first,
// one recursion level per attribute dimension.
func combine(dimensions []Attribute, depth int, current []string) [][]string {
	if depth == len(dimensions) {
		combo := make([]string, len(current))
		copy(combo, current)
		return [][]string{combo}
	}

	var combos [][]string
	for _, value := range dimensions[depth].Values {
		combos = append(combos, combine(dimensions, depth+1, append(current, value))...)
	}
	return combos
}

// buildSKU derives a variant SKU from the base SKU, a code token made
// of the first two characters of each attribute name and value, and
// the variant's position across all generation runs.
func buildSKU(baseSKU string, dimensions []Attribute, combo []string, index int) string {
	var codes strings.Builder
	for i, dim := range dimensions {
		codes.WriteString(prefix(dim.Name, 2))
		codes.WriteString(prefix(combo[i], 2))
	}
	return fmt.Sprintf("%s-%s-%d", baseSKU, strings.ToUpper(codes.String()), index+1)
}

// prefix takes the first n runes, so multi-byte attribute names and
// values never yield invalid UTF-8 in SKU tokens.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) < n {
		return s
	}
	return string(runes[:n])
}

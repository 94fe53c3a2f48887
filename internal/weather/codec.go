package weather

import (
	"errors"
	"sort"
)

// ErrEmptyCodec is returned when fitting a codec on no categories.
var ErrEmptyCodec = errors.New("label codec needs at least one category")

// LabelCodec is a fixed bijection between categories and codes in [0, K).
// Codes are assigned in sorted category order. A fitted codec is never
// mutated and is safe for concurrent use.
type LabelCodec struct {
	categories []Category
	codes      map[Category]int
}

// FitLabelCodec builds a codec from the distinct categories in the input.
func FitLabelCodec(categories []Category) (*LabelCodec, error) {
	seen := make(map[Category]struct{}, len(categories))
	distinct := make([]Category, 0, len(Categories))
	for _, c := range categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		distinct = append(distinct, c)
	}
	if len(distinct) == 0 {
		return nil, ErrEmptyCodec
	}

	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	codes := make(map[Category]int, len(distinct))
	for i, c := range distinct {
		codes[c] = i
	}
	return &LabelCodec{categories: distinct, codes: codes}, nil
}

// Encode returns the code assigned to category at fit time.
func (c *LabelCodec) Encode(category Category) (int, error) {
	code, ok := c.codes[category]
	if !ok {
		return 0, &UnknownCategoryError{Category: string(category)}
	}
	return code, nil
}

// Decode returns the category assigned to code.
func (c *LabelCodec) Decode(code int) (Category, error) {
	if code < 0 || code >= len(c.categories) {
		return "", &UnknownCodeError{Code: code}
	}
	return c.categories[code], nil
}

// Len returns the number of categories, K.
func (c *LabelCodec) Len() int {
	return len(c.categories)
}

// Categories returns the fitted categories in code order.
func (c *LabelCodec) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

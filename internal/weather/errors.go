package weather

import (
	"fmt"
)

// UnknownCategoryError is returned when a label is outside the known set.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown weather category %q", e.Category)
}

// UnknownCodeError is returned when decoding a code the codec never issued.
type UnknownCodeError struct {
	Code int
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown label code %d", e.Code)
}

// DateParseError is returned when a request date is not a valid YYYY-MM-DD.
type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	if e.Value == "" {
		return "date is required"
	}
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Value)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

// FeatureParseError is returned when a numeric request field cannot be
// coerced to a float.
type FeatureParseError struct {
	Field string
	Value string
	Err   error
}

func (e *FeatureParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("could not convert %s to float: %q", e.Field, e.Value)
}

func (e *FeatureParseError) Unwrap() error {
	return e.Err
}

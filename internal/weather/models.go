package weather

import (
	"time"
)

// Category represents one of the closed set of daily weather conditions.
type Category string

const (
	CategoryDrizzle Category = "drizzle"
	CategoryFog     Category = "fog"
	CategoryRain    Category = "rain"
	CategorySnow    Category = "snow"
	CategorySun     Category = "sun"
)

// Categories lists every known category in sorted order.
var Categories = []Category{
	CategoryDrizzle,
	CategoryFog,
	CategoryRain,
	CategorySnow,
	CategorySun,
}

// ParseCategory maps a raw label onto the closed category set.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &UnknownCategoryError{Category: s}
}

// WeatherRecord is one historical day of observations.
// Month and DayOfYear are derived from Date when the record is loaded.
type WeatherRecord struct {
	Date          time.Time `json:"date"`
	Precipitation float64   `json:"precipitation"`
	TempMax       float64   `json:"temp_max"`
	TempMin       float64   `json:"temp_min"`
	Wind          float64   `json:"wind"`
	Weather       Category  `json:"weather"`

	Month     int `json:"month"`
	DayOfYear int `json:"day_of_year"`
}

// Features returns the record's classifier input.
func (r WeatherRecord) Features() FeatureVector {
	return NewFeatureVector(r.Date, r.Precipitation, r.TempMax, r.TempMin, r.Wind)
}

// NumFeatures is the width of every FeatureVector.
const NumFeatures = 6

// FeatureNames lists the FeatureVector columns in the order the classifier
// is trained on.
var FeatureNames = [NumFeatures]string{
	"precipitation",
	"temp_max",
	"temp_min",
	"wind",
	"month",
	"day_of_year",
}

// FeatureVector is the fixed-order numeric classifier input.
type FeatureVector [NumFeatures]float64

// NewFeatureVector assembles a vector, deriving the calendar features from date.
func NewFeatureVector(date time.Time, precipitation, tempMax, tempMin, wind float64) FeatureVector {
	return FeatureVector{
		precipitation,
		tempMax,
		tempMin,
		wind,
		float64(date.Month()),
		float64(date.YearDay()),
	}
}

// Slice returns the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	return v[:]
}

package weather

// DefaultDetails is served for any category without a dedicated advisory.
const DefaultDetails = "Typical weather conditions expected."

var details = map[Category]string{
	CategoryRain:    "Expect wet conditions. Don't forget your umbrella!",
	CategorySun:     "Perfect day to go outside and enjoy the sunshine!",
	CategoryDrizzle: "Light rain expected. A jacket might be useful.",
	CategorySnow:    "Cold with snow possible. Bundle up and drive safely!",
	CategoryFog:     "Reduced visibility expected. Be cautious if driving.",
}

// Details returns the advisory text for a category.
func Details(c Category) string {
	if d, ok := details[c]; ok {
		return d
	}
	return DefaultDetails
}

package sensor

import (
	"math"
	"strconv"
	"strings"
)

// TemperaturePrefix starts every line that carries a reading.
const TemperaturePrefix = "Temperature:"

// ParseTemperatureLine extracts the value from a "Temperature: <number>" line.
// ok is false for any other line, including ones whose number is malformed
// or not finite.
func ParseTemperatureLine(line string) (value float64, ok bool) {
	line = strings.TrimSpace(line)
	rest, found := strings.CutPrefix(line, TemperaturePrefix)
	if !found {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

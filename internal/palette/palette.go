// Package palette assigns chart colors to categories and shortens labels.
package palette

import (
	"math"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"

	"studytrack/internal/models"
)

// Base is used as-is until there are more categories than entries.
var Base = []string{
	"#8b5cf6",
	"#3b82f6",
	"#10b981",
	"#f97316",
	"#ec4899",
	"#eab308",
	"#06b6d4",
	"#ef4444",
}

// Fallback is returned for ids that are not part of the ordered list.
const Fallback = "#6b7280"

// LightnessStep is how far each extension pass moves lightness.
const LightnessStep = 0.15

// LightnessPasses is how many lighten/darken passes run before the hue
// rotates by HueStep and the passes start over.
const LightnessPasses = 4

// HueStep is the hue rotation in degrees applied per completed round of
// lightness passes.
const HueStep = 23.0

var studyTypeColors = map[models.StudyType]string{
	models.StudyTypeVideo:   "#a855f7",
	models.StudyTypeReading: "#3b82f6",
	models.StudyTypeCoding:  "#10b981",
	models.StudyTypeReview:  "#f97316",
	models.StudyTypeOther:   "#6b7280",
}

// StudyTypeColor returns the fixed color of a study type.
func StudyTypeColor(t models.StudyType) string {
	return studyTypeColors[models.ParseStudyType(string(t))]
}

// ColorAt returns the color for position index. Past the base palette it
// cycles through passes of lightened then darkened variants, each pair of
// passes moving one LightnessStep further. After LightnessPasses passes the
// hue rotates and the lightness passes repeat, so lightness never saturates.
func ColorAt(base []string, index int) string {
	if len(base) == 0 || index < 0 {
		return Fallback
	}
	if index < len(base) {
		return base[index]
	}

	pass := index / len(base)
	round, sub := (pass-1)/LightnessPasses, (pass-1)%LightnessPasses+1
	step := float64((sub+1)/2) * LightnessStep
	if sub%2 == 0 {
		step = -step
	}
	return shift(base[index%len(base)], float64(round)*HueStep, step)
}

// Generate returns exactly count colors.
func Generate(base []string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	colors := make([]string, count)
	for i := range colors {
		colors[i] = ColorAt(base, i)
	}
	return colors
}

// Adjust shifts the HSL lightness of hex by delta, clamped to [0, 1].
// Unparseable input is returned unchanged.
func Adjust(hex string, delta float64) string {
	return shift(hex, 0, delta)
}

func shift(hex string, hue, delta float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	h, s, l := c.Hsl()
	h = math.Mod(h+hue, 360)
	l = math.Max(0, math.Min(1, l+delta))
	return colorful.Hsl(h, s, l).Clamped().Hex()
}

// DeriveColor maps categoryID to a color by its position in ordered.
func DeriveColor(categoryID string, ordered []string) string {
	for i, id := range ordered {
		if id == categoryID {
			return ColorAt(Base, i)
		}
	}
	return Fallback
}

// Assign maps every id in ordered to its color.
func Assign(ordered []string) map[string]string {
	colors := make(map[string]string, len(ordered))
	for i, id := range ordered {
		if _, ok := colors[id]; ok {
			continue
		}
		colors[id] = ColorAt(Base, i)
	}
	return colors
}

// Ellipsis marks a truncated label.
const Ellipsis = "…"

// TruncateLabel shortens name to at most maxLen display cells, ending with an
// ellipsis when anything was cut. maxLen <= 0 disables truncation.
func TruncateLabel(name string, maxLen int) string {
	if maxLen <= 0 || ansi.StringWidth(name) <= maxLen {
		return name
	}
	return ansi.Truncate(name, maxLen, Ellipsis)
}

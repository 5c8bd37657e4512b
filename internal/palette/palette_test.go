package palette

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"studytrack/internal/models"
)

func TestGenerateUsesBaseWhileItFits(t *testing.T) {
	colors := Generate(Base, len(Base))
	for i, c := range colors {
		if c != Base[i] {
			t.Fatalf("color %d: expected base %s, got %s", i, Base[i], c)
		}
	}
	if got := Generate(Base, 0); len(got) != 0 {
		t.Fatalf("expected no colors for zero categories, got %v", got)
	}
}

func TestGenerateExtendsWithDistinctVariants(t *testing.T) {
	for _, count := range []int{len(Base)*3 + 2, 56, 80, 200} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			colors := Generate(Base, count)
			if len(colors) != count {
				t.Fatalf("expected %d colors, got %d", count, len(colors))
			}

			seen := make(map[string]int)
			for i, c := range colors {
				if !strings.HasPrefix(c, "#") || len(c) != 7 {
					t.Fatalf("color %d is not a hex color: %q", i, c)
				}
				if j, dup := seen[c]; dup {
					t.Fatalf("color %d duplicates color %d (%s)", i, j, c)
				}
				seen[c] = i
			}
		})
	}
}

func TestColorAtAlternatesLightenAndDarken(t *testing.T) {
	n := len(Base)
	lighter := ColorAt(Base, n)
	darker := ColorAt(Base, 2*n)

	if lighter != Adjust(Base[0], LightnessStep) {
		t.Fatalf("first extension pass should lighten, got %s", lighter)
	}
	if darker != Adjust(Base[0], -LightnessStep) {
		t.Fatalf("second extension pass should darken, got %s", darker)
	}
	if ColorAt(Base, 3*n) != Adjust(Base[0], 2*LightnessStep) {
		t.Fatalf("third extension pass should lighten twice as far")
	}
}

func TestColorAtRotatesHueAfterLightnessPasses(t *testing.T) {
	n := len(Base)
	next := ColorAt(Base, (LightnessPasses+1)*n)

	if next == ColorAt(Base, n) {
		t.Fatalf("pass after the lightness passes repeated the first pass: %s", next)
	}
	if want := shift(Base[0], HueStep, LightnessStep); next != want {
		t.Fatalf("expected hue-rotated lighten %s, got %s", want, next)
	}
	if got := shift(Base[0], 0, -LightnessStep); got != Adjust(Base[0], -LightnessStep) {
		t.Fatalf("zero rotation should match Adjust, got %s", got)
	}
}

func TestDeriveColorIsStableForOrder(t *testing.T) {
	var ids []string
	for i := 0; i < 12; i++ {
		ids = append(ids, fmt.Sprintf("course-%d", i))
	}

	first := Assign(ids)
	for i := 0; i < 3; i++ {
		for _, id := range ids {
			if got := DeriveColor(id, ids); got != first[id] {
				t.Fatalf("color for %s changed between renders: %s vs %s", id, first[id], got)
			}
		}
	}
	if got := DeriveColor("missing", ids); got != Fallback {
		t.Fatalf("expected fallback for unknown id, got %s", got)
	}
}

func TestAdjustLeavesInvalidInput(t *testing.T) {
	if got := Adjust("not-a-color", 0.2); got != "not-a-color" {
		t.Fatalf("expected input back, got %q", got)
	}
	if got := Adjust("#ffffff", 0.5); got != "#ffffff" {
		t.Fatalf("expected lightness clamp at white, got %q", got)
	}
}

func TestStudyTypeColor(t *testing.T) {
	if got := StudyTypeColor(models.StudyTypeVideo); got != "#a855f7" {
		t.Fatalf("unexpected video color %s", got)
	}
	if got := StudyTypeColor("bogus"); got != StudyTypeColor(models.StudyTypeOther) {
		t.Fatalf("unknown types should share the other color, got %s", got)
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short name untouched", "Go", 10, "Go"},
		{"exact fit untouched", "Kubernetes", 10, "Kubernetes"},
		{"long name cut", "Distributed Systems", 10, "Distribut…"},
		{"disabled", "Distributed Systems", 0, "Distributed Systems"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateLabel(tc.input, tc.max)
			if got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
			if tc.max > 0 && ansi.StringWidth(got) > tc.max {
				t.Errorf("Expected width <= %d, got %d", tc.max, ansi.StringWidth(got))
			}
		})
	}
}

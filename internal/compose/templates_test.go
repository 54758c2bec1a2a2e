package compose

import (
	"strings"
	"testing"

	"wakeaudio/internal/core"
)

func TestRenderTemplate(t *testing.T) {
	t.Run("substitutes known placeholders", func(t *testing.T) {
		got := RenderTemplate("Good morning! It's {time} on {day}.",
			map[string]string{"time": "7 o'clock", "day": "Tuesday"})
		want := "Good morning! It's 7 o'clock on Tuesday."
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("unknown placeholders stay verbatim", func(t *testing.T) {
		got := RenderTemplate("Hello {name}, the {oracle} says hi.",
			map[string]string{"name": "Anna"})
		want := "Hello Anna, the {oracle} says hi."
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("no vars leaves template untouched", func(t *testing.T) {
		tmpl := "Plain text without placeholders."
		if got := RenderTemplate(tmpl, nil); got != tmpl {
			t.Errorf("expected %q, got %q", tmpl, got)
		}
	})
}

func TestMemoryTemplatesLookup(t *testing.T) {
	p := NewMemoryTemplates()

	t.Run("resolves shipped templates", func(t *testing.T) {
		for _, segmentType := range []core.SegmentType{
			core.SegmentGreeting, core.SegmentWeather, core.SegmentHabitsSummary,
		} {
			for _, lang := range []string{"en", "de", "es"} {
				if _, ok := p.Lookup(segmentType, lang, variantDefault); !ok {
					t.Errorf("missing template for %s/%s", segmentType, lang)
				}
			}
		}
	})

	t.Run("no cross-language fallback in the provider", func(t *testing.T) {
		// Spanish ships only the standard motivation variant; the provider
		// itself must not fall back.
		if _, ok := p.Lookup(core.SegmentMotivation, "es", VariantWeekend); ok {
			t.Error("expected miss for es weekend motivation")
		}
		if _, ok := p.Lookup(core.SegmentMotivation, "en", VariantWeekend); !ok {
			t.Error("expected hit for en weekend motivation")
		}
	})

	t.Run("regional subtag resolves the base table", func(t *testing.T) {
		if _, ok := p.Lookup(core.SegmentGreeting, "de-AT", variantDefault); !ok {
			t.Error("expected de-AT to resolve the de table")
		}
	})

	t.Run("unknown language misses", func(t *testing.T) {
		if _, ok := p.Lookup(core.SegmentGreeting, "fr", variantDefault); ok {
			t.Error("expected miss for unshipped language")
		}
	})

	t.Run("greeting templates embed no name", func(t *testing.T) {
		// Greeting renderings are cached under non-personal keys, so the
		// shipped templates must not reference {name}.
		for _, lang := range []string{"en", "de", "es"} {
			tmpl, _ := p.Lookup(core.SegmentGreeting, lang, variantDefault)
			if strings.Contains(tmpl, "{name}") {
				t.Errorf("greeting template for %s references {name}: %q", lang, tmpl)
			}
		}
	})
}

func TestDayName(t *testing.T) {
	tests := []struct {
		language string
		day      int
		want     string
	}{
		{"en", 2, "Tuesday"},
		{"de", 2, "Dienstag"},
		{"es", 2, "martes"},
		{"fr", 2, "Tuesday"},
		{"en", 0, "Sunday"},
	}
	for _, tt := range tests {
		if got := dayName(tt.language, tt.day); got != tt.want {
			t.Errorf("dayName(%q, %d) = %q, want %q", tt.language, tt.day, got, tt.want)
		}
	}
}

package compose

import (
	"fmt"
	"strings"

	"wakeaudio/internal/core"
)

// DefaultLanguage is the fallback when a user's language has no template for
// a segment type.
const DefaultLanguage = "en"

// TemplateProvider resolves the text template for a segment. Lookup does not
// fall back across languages; the composer owns the fallback policy.
type TemplateProvider interface {
	Lookup(segmentType core.SegmentType, language, variant string) (string, bool)
}

// MemoryTemplates is the in-memory TemplateProvider. A richer backing store
// can replace it without touching the composer.
type MemoryTemplates struct {
	tables map[core.SegmentType]map[string]map[string]string
}

// NewMemoryTemplates creates a provider with the shipped template tables.
func NewMemoryTemplates() *MemoryTemplates {
	return &MemoryTemplates{tables: defaultTemplates}
}

// Lookup returns the template for (segmentType, language, variant).
func (p *MemoryTemplates) Lookup(segmentType core.SegmentType, language, variant string) (string, bool) {
	byLang, ok := p.tables[segmentType]
	if !ok {
		return "", false
	}
	byVariant, ok := byLang[normalizeLanguage(language)]
	if !ok {
		return "", false
	}
	tmpl, ok := byVariant[variant]
	return tmpl, ok
}

// RenderTemplate substitutes {placeholder} occurrences with values from vars.
// An unknown placeholder is left verbatim: a gap in the spoken text stays
// visible instead of crashing the composition.
func RenderTemplate(tmpl string, vars map[string]string) string {
	out := tmpl
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// normalizeLanguage reduces a BCP 47 style tag to its primary subtag, so
// "de-AT" resolves the "de" table.
func normalizeLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexByte(lang, '-'); i > 0 {
		lang = lang[:i]
	}
	return lang
}

// variantDefault is the variant key for segment types without variants.
const variantDefault = "default"

// Shipped template tables. Greeting templates are deliberately name-free:
// greeting renderings are cached under non-personal keys and shared across
// users, so a personal name must never end up in the audio. {name} stays a
// supported variable for deployments that render non-cached text.
var defaultTemplates = map[core.SegmentType]map[string]map[string]string{
	core.SegmentGreeting: {
		"en": {variantDefault: "Good morning! It's around {time} on {day}. Time to rise and shine."},
		"de": {variantDefault: "Guten Morgen! Es ist ungefähr {time} am {day}. Zeit aufzustehen."},
		"es": {variantDefault: "¡Buenos días! Son cerca de las {time} del {day}. Hora de levantarse."},
	},
	core.SegmentWeather: {
		"en": {variantDefault: "Looking outside, expect {condition} today with a high of around {tempMax} degrees."},
		"de": {variantDefault: "Heute erwartet dich {condition} mit Höchstwerten um {tempMax} Grad."},
		"es": {variantDefault: "Hoy se espera {condition} con máximas de unos {tempMax} grados."},
	},
	core.SegmentHabitsSummary: {
		"en": {variantDefault: "You have {count} habits on your list today: {habits}. Small steps, every day."},
		"de": {variantDefault: "Du hast heute {count} Gewohnheiten auf deiner Liste: {habits}. Kleine Schritte zählen."},
		"es": {variantDefault: "Hoy tienes {count} hábitos en tu lista: {habits}. Paso a paso."},
	},
	core.SegmentMotivation: {
		"en": {
			VariantStandard: "Make today count. You have everything you need.",
			VariantWeekend:  "It's the weekend, and you still showed up. That's how habits are built.",
			VariantMonday:   "A fresh week starts now. Set the tone today.",
			VariantFriday:   "One last push, the weekend is almost here.",
			VariantEarly:    "Up before the sun. That head start is yours to keep.",
			VariantLate:     "The day is already moving. Jump in and make it yours.",
		},
		"de": {
			VariantStandard: "Mach den heutigen Tag zu deinem Tag.",
			VariantWeekend:  "Es ist Wochenende, und du bist trotzdem dran. So entstehen Gewohnheiten.",
			VariantMonday:   "Eine neue Woche beginnt jetzt. Setz heute den Ton.",
			VariantFriday:   "Noch ein letzter Schub, das Wochenende ist nah.",
			VariantEarly:    "Wach vor der Sonne. Diesen Vorsprung nimmt dir keiner.",
			VariantLate:     "Der Tag läuft schon. Spring rein und mach ihn zu deinem.",
		},
		// Spanish ships only the standard variant; the remaining variants
		// resolve through the English fallback.
		"es": {
			VariantStandard: "Haz que el día de hoy cuente.",
		},
	},
}

// dayNames holds localized day names, Sunday first to match time.Weekday.
var dayNames = map[string][7]string{
	"en": {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	"de": {"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
	"es": {"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
}

// dayName returns the localized day name, falling back to English.
func dayName(language string, day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	if names, ok := dayNames[normalizeLanguage(language)]; ok {
		return names[day]
	}
	return dayNames[DefaultLanguage][day]
}

// timeLabel renders the bucketed hour the way the language speaks it. The
// label uses the hour bucket, not the exact minute, so the spoken text always
// matches the greeting cache key.
func timeLabel(language string, hour int) string {
	switch normalizeLanguage(language) {
	case "de":
		return fmt.Sprintf("%d Uhr", hour)
	case "es":
		return fmt.Sprintf("%d", hour)
	default:
		return fmt.Sprintf("%d o'clock", hour)
	}
}

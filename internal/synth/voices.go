package synth

import "strings"

// VoiceTier is the quality tier of a voice. Tiers have materially different
// per-character rates, so voice choice has direct cost consequences.
type VoiceTier string

const (
	TierStandard VoiceTier = "standard"
	TierNeural   VoiceTier = "neural"
)

// Per-100-character synthesis rates by tier.
const (
	RateStandardPer100 = 0.0008
	RateNeuralPer100   = 0.0032
)

// Voice is one entry in the provider's voice catalog.
type Voice struct {
	ID       string    `json:"id"`
	Language string    `json:"language"`
	Tier     VoiceTier `json:"tier"`
	// RatePer100Chars is the synthesis cost per 100 characters of input text.
	RatePer100Chars float64 `json:"rate_per_100_chars"`
}

// DefaultVoices is the shipped voice catalog. Per-language entries cover the
// languages the template tables ship with; unlisted languages fall back to
// the first catalog entry.
var DefaultVoices = []Voice{
	{ID: "en-neural-amber", Language: "en", Tier: TierNeural, RatePer100Chars: RateNeuralPer100},
	{ID: "en-standard-brian", Language: "en", Tier: TierStandard, RatePer100Chars: RateStandardPer100},
	{ID: "de-neural-vicki", Language: "de", Tier: TierNeural, RatePer100Chars: RateNeuralPer100},
	{ID: "de-standard-hans", Language: "de", Tier: TierStandard, RatePer100Chars: RateStandardPer100},
	{ID: "es-standard-lucia", Language: "es", Tier: TierStandard, RatePer100Chars: RateStandardPer100},
}

// SelectVoice picks a voice for a language: an exact hint match wins, then
// the highest-quality tier available for the language (neural before
// standard), then the first catalog entry as a last resort.
func SelectVoice(catalog []Voice, language, hint string) (Voice, bool) {
	if len(catalog) == 0 {
		return Voice{}, false
	}

	if hint != "" {
		for _, v := range catalog {
			if v.ID == hint {
				return v, true
			}
		}
	}

	lang := normalizeLanguage(language)
	var fallback *Voice
	for i := range catalog {
		v := &catalog[i]
		if normalizeLanguage(v.Language) != lang {
			continue
		}
		if v.Tier == TierNeural {
			return *v, true
		}
		if fallback == nil {
			fallback = v
		}
	}
	if fallback != nil {
		return *fallback, true
	}

	return catalog[0], true
}

// normalizeLanguage reduces a BCP 47 style tag to its primary subtag, so
// "de-DE" selects the same voices as "de".
func normalizeLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexByte(lang, '-'); i > 0 {
		lang = lang[:i]
	}
	return lang
}

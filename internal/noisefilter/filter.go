// Package noisefilter cleans raw speech-to-text output. Transcription
// models describe ambient sound in brackets ("[traffic noise]", "(background
// music)", "*cough*") and transcribe fillers ("um", "hmm"); none of that
// should reach translation. The filter is a heuristic, not a parser:
// obviously-noise and obviously-speech inputs are handled correctly,
// borderline inputs can go either way.
package noisefilter

import (
	"regexp"
	"strings"
)

// noisePatterns strip individual noise spans out of otherwise usable text.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[[^\]]*?(noise|sound|music|traffic|wind|rain|background|ambient|silence|static|breathing|cough|sneeze|laugh|sigh|pause|inaudible|unclear|unintelligible)[^\]]*?\]`),
	regexp.MustCompile(`(?i)\([^)]*?(noise|sound|music|traffic|wind|rain|background|ambient|silence|static|breathing|cough|sneeze|laugh|sigh|pause|inaudible|unclear|unintelligible)[^)]*?\)`),
	regexp.MustCompile(`(?i)\*[^*]*?(noise|sound|cough|sneeze|laugh|sigh|clears throat|breathing)[^*]*?\*`),
	regexp.MustCompile(`(?i)^\s*(um+|uh+|ah+|er+|hmm+|mhm+|oh+)\s*$`),
	regexp.MustCompile(`^[\s.,!?;:'"]+$`),
	regexp.MustCompile(`^.{1,2}$`),
}

// noiseOnlyPatterns classify a whole transcript as one noise description.
var noiseOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\[[^\]]*\]\s*$`),
	regexp.MustCompile(`^\s*\([^)]*\)\s*$`),
	regexp.MustCompile(`^\s*\*[^*]*\*\s*$`),
}

var (
	innerDescription = regexp.MustCompile(`[\[(*](.+?)[\])*]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	purePunctuation  = regexp.MustCompile(`^[\s.,!?;:'"]+$`)
	fillerToken      = regexp.MustCompile(`(?i)^(um+|uh+|ah+|er+|hmm+)$`)
	bracketChars     = regexp.MustCompile(`[\[\]()*]`)
)

// Result is the outcome of filtering one transcription.
type Result struct {
	OriginalText      string
	FilteredText      string
	IsNoise           bool
	NoiseDescriptions []string
}

// Filter strips noise descriptions from a transcription and decides whether
// anything speakable remains. When the whole input is a single bracketed
// span, the inner description is kept for diagnostics.
func Filter(text string) Result {
	result := Result{OriginalText: text}

	trimmed := strings.TrimSpace(text)
	for _, pattern := range noiseOnlyPatterns {
		if pattern.MatchString(trimmed) {
			if m := innerDescription.FindStringSubmatch(text); m != nil {
				result.NoiseDescriptions = append(result.NoiseDescriptions, m[1])
			}
			result.IsNoise = true
			return result
		}
	}

	filtered := text
	for _, pattern := range noisePatterns {
		matches := pattern.FindAllString(filtered, -1)
		if len(matches) > 0 {
			result.NoiseDescriptions = append(result.NoiseDescriptions, matches...)
			filtered = pattern.ReplaceAllString(filtered, "")
		}
	}

	filtered = strings.TrimSpace(whitespaceRun.ReplaceAllString(filtered, " "))

	if len([]rune(filtered)) < 3 || purePunctuation.MatchString(filtered) {
		result.IsNoise = true
		return result
	}

	result.FilteredText = filtered
	return result
}

// IsLikelySpeech is a quick gate used after filtering succeeds: it rejects
// text under 3 characters, wholly bracketed text, and text with fewer than
// two meaningful words. A single real word drowning in filler does not
// survive it.
func IsLikelySpeech(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 3 {
		return false
	}

	for _, pattern := range noiseOnlyPatterns {
		if pattern.MatchString(trimmed) {
			return false
		}
	}

	meaningful := 0
	for _, word := range strings.Fields(text) {
		if len([]rune(word)) <= 2 {
			continue
		}
		if fillerToken.MatchString(word) {
			continue
		}
		if bracketChars.MatchString(word) {
			continue
		}
		meaningful++
	}
	return meaningful >= 2
}

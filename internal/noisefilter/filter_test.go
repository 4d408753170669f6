package noisefilter

import (
	"reflect"
	"testing"
)

func TestFilter_NoiseOnly(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		wantDescription string
	}{
		{name: "bracketed noise", text: "[background noise]", wantDescription: "background noise"},
		{name: "parenthetical noise", text: "(traffic)", wantDescription: "traffic"},
		{name: "asterisk action", text: "*cough*", wantDescription: "cough"},
		{name: "bracketed with whitespace", text: "  [wind sounds]  ", wantDescription: "wind sounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Filter(tt.text)
			if !result.IsNoise {
				t.Errorf("Filter(%q).IsNoise = false, want true", tt.text)
			}
			if result.FilteredText != "" {
				t.Errorf("Filter(%q).FilteredText = %q, want empty", tt.text, result.FilteredText)
			}
			if len(result.NoiseDescriptions) == 0 || result.NoiseDescriptions[0] != tt.wantDescription {
				t.Errorf("Filter(%q).NoiseDescriptions = %v, want [%q]", tt.text, result.NoiseDescriptions, tt.wantDescription)
			}
		})
	}
}

func TestFilter_MixedNoiseAndSpeech(t *testing.T) {
	result := Filter("[wind noise] Welcome to the island")
	if result.IsNoise {
		t.Fatal("expected mixed text to survive filtering")
	}
	if result.FilteredText != "Welcome to the island" {
		t.Errorf("FilteredText = %q, want %q", result.FilteredText, "Welcome to the island")
	}
	if !reflect.DeepEqual(result.NoiseDescriptions, []string{"[wind noise]"}) {
		t.Errorf("NoiseDescriptions = %v, want [\"[wind noise]\"]", result.NoiseDescriptions)
	}
}

func TestFilter_ShortOrPunctuation(t *testing.T) {
	tests := []string{"um", ".", "ok", "!?", "", "   "}
	for _, text := range tests {
		result := Filter(text)
		if !result.IsNoise {
			t.Errorf("Filter(%q).IsNoise = false, want true", text)
		}
		if result.FilteredText != "" {
			t.Errorf("Filter(%q).FilteredText = %q, want empty", text, result.FilteredText)
		}
	}
}

func TestFilter_CleanSpeechPassesThrough(t *testing.T) {
	text := "Can you see the dolphins over there"
	result := Filter(text)
	if result.IsNoise {
		t.Fatal("clean speech classified as noise")
	}
	if result.FilteredText != text {
		t.Errorf("FilteredText = %q, want %q", result.FilteredText, text)
	}
	if len(result.NoiseDescriptions) != 0 {
		t.Errorf("NoiseDescriptions = %v, want none", result.NoiseDescriptions)
	}
}

func TestFilter_CollapsesWhitespace(t *testing.T) {
	result := Filter("Welcome   [background music]   everyone here")
	if result.FilteredText != "Welcome everyone here" {
		t.Errorf("FilteredText = %q, want %q", result.FilteredText, "Welcome everyone here")
	}
}

func TestIsLikelySpeech(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", false},
		{"um", false},
		{"ok", false},
		{"[background noise]", false},
		{"(music)", false},
		{"hello", false},             // one meaningful word is not enough
		{"um uh hello", false},       // single real word in filler
		{"hello everyone", true},
		{"Can you see the dolphins", true},
		{"welcome um everyone", true},
	}

	for _, tt := range tests {
		if got := IsLikelySpeech(tt.text); got != tt.want {
			t.Errorf("IsLikelySpeech(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

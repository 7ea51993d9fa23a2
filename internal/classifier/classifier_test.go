package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_PureGreetings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Greeting
	}{
		{"bare gm", "gm", GreetingGM},
		{"gm with one word", "gm ct", GreetingGM},
		{"gm with two words", "gm fam lfg", GreetingGM},
		{"uppercase GM", "GM", GreetingGM},
		{"bare gn", "gn", GreetingGN},
		{"gn with one word", "gn all", GreetingGN},
		{"punctuation ignored", "gm!!!", GreetingGM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, ModePureGreeting, got.Mode)
			assert.Equal(t, tt.want, got.Greeting)
		})
	}
}

func TestClassify_ContextualGreetings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Greeting
	}{
		{"long gm post", "Good morning everyone, market looking bullish today gm fam", GreetingGM},
		{"gm mid sentence", "feeling great today gm to all the builders out there", GreetingGM},
		{"gn with context", "wrapping up the charts for tonight, gn everyone see you tomorrow", GreetingGN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, ModeContextualGreeting, got.Mode)
			assert.Equal(t, tt.want, got.Greeting)
		})
	}
}

func TestClassify_Generic(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty text", ""},
		{"plain post", "just shipped a new release, feedback welcome"},
		{"gm as substring only", "sigma grindset, no magma here"},
		{"numbers only", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, ModeGeneric, got.Mode)
			assert.Empty(t, got.Greeting)
		})
	}
}

func TestClassify_GMWinsOverGN(t *testing.T) {
	// Both tokens present: GM is checked first in both detectors.
	short := Classify("gm gn")
	assert.Equal(t, ModePureGreeting, short.Mode)
	assert.Equal(t, GreetingGM, short.Greeting)

	long := Classify("gn everyone and also gm to the other side of the world")
	assert.Equal(t, ModeContextualGreeting, long.Mode)
	assert.Equal(t, GreetingGM, long.Greeting)
}

func TestClassify_StrictBoundary(t *testing.T) {
	// Exactly three tokens is still pure; four tips into contextual.
	assert.Equal(t, ModePureGreeting, Classify("gm ct fam").Mode)
	assert.Equal(t, ModeContextualGreeting, Classify("gm ct fam lfg").Mode)
}

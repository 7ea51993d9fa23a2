package classifier

import (
	"regexp"
	"strings"
)

// Mode is the reply category derived from a post's text.
type Mode int

const (
	// ModeGeneric covers posts with no GM/GN greeting.
	ModeGeneric Mode = iota
	// ModePureGreeting covers short greeting-only posts ("gm", "gm ct").
	ModePureGreeting
	// ModeContextualGreeting covers posts that greet and then say more.
	ModeContextualGreeting
)

func (m Mode) String() string {
	switch m {
	case ModePureGreeting:
		return "gmgn_pure"
	case ModeContextualGreeting:
		return "gmgn_context"
	default:
		return "generic"
	}
}

// Greeting is the detected greeting token, valid only for the
// greeting modes.
type Greeting string

const (
	GreetingGM Greeting = "GM"
	GreetingGN Greeting = "GN"
)

// Classification is the result of analyzing a post's text.
type Classification struct {
	Mode     Mode
	Greeting Greeting
}

var (
	gmPattern   = regexp.MustCompile(`\bgm\b`)
	gnPattern   = regexp.MustCompile(`\bgn\b`)
	wordPattern = regexp.MustCompile(`[a-zA-Z]+`)
)

// pureGreetingMax is the token count at or below which a greeting post
// counts as greeting-only.
const pureGreetingMax = 3

// Classify maps post text to a reply mode. It is pure and
// deterministic: the strict short-greeting check runs first, then the
// loose anywhere-in-text check, and GM wins over GN in both. Empty
// text classifies as generic.
func Classify(text string) Classification {
	if g, ok := detectStrict(text); ok {
		return Classification{Mode: ModePureGreeting, Greeting: g}
	}
	if g, ok := detectAny(text); ok {
		return Classification{Mode: ModeContextualGreeting, Greeting: g}
	}
	return Classification{Mode: ModeGeneric}
}

// detectStrict reports a greeting only when the text is short enough
// to be greeting-only: a whole-word gm/gn among at most three
// alphabetic tokens.
func detectStrict(text string) (Greeting, bool) {
	if text == "" {
		return "", false
	}
	tokens := wordPattern.FindAllString(strings.ToLower(strings.TrimSpace(text)), -1)
	if len(tokens) == 0 || len(tokens) > pureGreetingMax {
		return "", false
	}
	hasGM, hasGN := false, false
	for _, t := range tokens {
		switch t {
		case "gm":
			hasGM = true
		case "gn":
			hasGN = true
		}
	}
	if hasGM {
		return GreetingGM, true
	}
	if hasGN {
		return GreetingGN, true
	}
	return "", false
}

// detectAny matches a whole-word gm/gn anywhere in the text,
// regardless of length.
func detectAny(text string) (Greeting, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	if gmPattern.MatchString(lower) {
		return GreetingGM, true
	}
	if gnPattern.MatchString(lower) {
		return GreetingGN, true
	}
	return "", false
}

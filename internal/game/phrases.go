package game

import "math/rand"

// PhraseFunc supplies one race phrase per call. The coordinator shares no
// other state with the phrase source.
type PhraseFunc func() string

var samplePhrases = []string{
	"The quick brown fox jumps over the lazy dog",
	"Pack my box with five dozen liquor jugs",
	"How vexingly quick daft zebras jump",
	"Waltz, bad nymph, for quick jigs vex",
	"Sphinx of black quartz, judge my vow",
	"Two driven jocks help fax my big quiz",
	"Five quacking zephyrs jolt my wax bed",
	"The five boxing wizards jump quickly",
	"Bright vixens jump; dozy fowl quack",
	"Quick zephyrs blow, vexing daft Jim",
}

// RandomPhrase picks from the built-in pangram corpus. Used when no
// external sentence store is configured.
func RandomPhrase() string {
	return samplePhrases[rand.Intn(len(samplePhrases))]
}

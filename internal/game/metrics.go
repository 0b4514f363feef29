package game

import (
	"math"
	"strings"
	"time"
)

// CalculateWPM estimates words per minute from the text typed so far and
// the race start time. Returns 0 before any measurable time has elapsed.
func CalculateWPM(typedText string, startTime time.Time, now time.Time) float64 {
	minutes := now.Sub(startTime).Minutes()
	if minutes <= 0 {
		return 0
	}

	words := len(strings.Fields(typedText))
	return math.Round(float64(words) / minutes)
}

// CalculateAccuracy compares the typed text against the matching prefix of
// the target phrase character by character. The result is the share of
// exactly matching positions over the typed length. An empty typed string
// is 100 by convention.
func CalculateAccuracy(typedText, targetText string) float64 {
	if len(typedText) == 0 {
		return 100
	}

	correct := 0
	limit := len(typedText)
	if len(targetText) < limit {
		limit = len(targetText)
	}

	for i := 0; i < limit; i++ {
		if typedText[i] == targetText[i] {
			correct++
		}
	}

	return math.Round(float64(correct) / float64(len(typedText)) * 100)
}

// ProgressPercent is the fraction of the phrase length covered by the
// typed text, scaled to [0,100].
func ProgressPercent(typedText, phrase string) float64 {
	if len(phrase) == 0 {
		return 0
	}
	return float64(len(typedText)) / float64(len(phrase)) * 100
}

package voice

import (
	"regexp"
	"strings"
	"unicode"
)

// Sentence-terminal punctuation that splits speakable segments.
const segmentDelimiters = "。！？!?，,"

// Digit runs shaped like local phone numbers: area-code landlines and
// 09xx mobiles, with optional spacing/dashes.
var phonePattern = regexp.MustCompile(`\(?0\d\)?[\s-]*\d{4}[\s-]*\d{4}|09[\s-]*\d{2}[\s-]*\d{6}`)

var spokenDigits = [10]string{"零", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// SplitSegments turns reply text into the ordered list of speakable
// segments: phone numbers expanded to spoken digits, sentences split on
// terminal punctuation, each segment cleaned, empties dropped.
func SplitSegments(text string) []string {
	expanded := ExpandPhoneNumbers(text)
	parts := strings.FieldsFunc(expanded, func(r rune) bool {
		return strings.ContainsRune(segmentDelimiters, r)
	})

	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := CleanForSpeech(part); cleaned != "" {
			segments = append(segments, cleaned)
		}
	}
	return segments
}

// ExpandPhoneNumbers rewrites recognizable phone-number digit runs to
// spoken-digit form so synthesis reads them digit by digit.
func ExpandPhoneNumbers(text string) string {
	return phonePattern.ReplaceAllStringFunc(text, func(match string) string {
		var words []string
		for _, r := range match {
			if r >= '0' && r <= '9' {
				words = append(words, spokenDigits[r-'0'])
			}
		}
		return strings.Join(words, " ")
	})
}

// CleanForSpeech strips pictographic symbols outright, reduces the
// remaining non-letter/non-number runes to spaces, and collapses
// whitespace. A segment that cleans to nothing is skipped by the caller
// without producing a playback gap.
func CleanForSpeech(text string) string {
	text = strings.ReplaceAll(text, "%", " percent ")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.So, unicode.Sk):
			// Pictographs and modifier symbols vanish without a space.
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

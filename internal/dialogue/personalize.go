package dialogue

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

// personalize prefixes response with name with probability rate, unless the name already appears
func personalize(response, name string, rate float64, rng *rand.Rand) string {
	if name == "" || response == "" || strings.Contains(response, name) {
		return response
	}
	if rng.Float64() >= rate {
		return response
	}
	return name + ", " + lowerFirst(response)
}

// lowerFirst lower-cases the first letter, leaving the pronoun "I" alone
func lowerFirst(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == 'I' {
		next, _ := utf8.DecodeRuneInString(s[size:])
		if len(s) == size || !unicode.IsLetter(next) {
			return s
		}
	}
	return string(unicode.ToLower(first)) + s[size:]
}

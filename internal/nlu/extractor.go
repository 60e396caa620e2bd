package nlu

import (
	"regexp"
	"slices"
	"strings"

	"eino_dialogue/pkg"
)

var (
	locationPattern = regexp.MustCompile(`(?i)\bin\s+([a-z][a-z\s]*)`)
	datePattern     = regexp.MustCompile(`(?i)\b(today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	timePattern     = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?)\s?(am|pm)\b`)
	orderPattern    = regexp.MustCompile(`#?(\d{5,})`)
	numberPattern   = regexp.MustCompile(`\b\d+\b`)
	personPattern   = regexp.MustCompile(`(?:(?i:my name is|call me)\s+([A-Za-z][a-z]+)|(?i:\bi'm|\bi am)\s+([A-Z][a-z]+))`)
)

// locationStopWords end a location phrase
var locationStopWords = map[string]bool{
	"today": true, "tomorrow": true, "tonight": true, "now": true, "at": true, "on": true,
	"for": true, "please": true, "this": true, "next": true, "right": true, "and": true,
	"the": true, "weekend": true, "morning": true, "afternoon": true, "evening": true,
}

// locationLeadWords never start a place name, so "sign in to my account" has no location
var locationLeadWords = map[string]bool{
	"to": true, "my": true, "your": true, "our": true, "the": true, "a": true, "an": true,
	"it": true, "that": true, "this": true, "there": true, "here": true, "case": true, "order": true,
	"stock": true, "time": true, "touch": true, "general": true, "fact": true, "person": true,
}

// notNames are words that follow "I'm" without being a name
var notNames = map[string]bool{
	"interested": true, "looking": true, "going": true, "trying": true, "wondering": true,
	"calling": true, "planning": true, "thinking": true, "here": true, "fine": true, "good": true,
	"great": true, "okay": true, "ok": true, "not": true, "sure": true, "just": true, "also": true,
	"really": true, "so": true, "very": true, "happy": true, "glad": true, "sorry": true,
	"ready": true, "back": true, "done": true, "still": true, "free": true, "busy": true,
	"available": true, "new": true, "in": true, "on": true, "at": true, "from": true,
}

// RegexExtractor extracts entities with fixed patterns and a catalogue of known product names
type RegexExtractor struct {
	products []string
}

// NewRegexExtractor creates an extractor that recognises the given product names
func NewRegexExtractor(products []string) *RegexExtractor {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, strings.ToLower(p))
	}
	// longest first so "non-fiction" wins over "fiction"
	slices.SortFunc(names, func(a, b string) int { return len(b) - len(a) })
	return &RegexExtractor{products: names}
}

// Extract returns an EntityMap with every key present. It is a pure function of text.
func (e *RegexExtractor) Extract(text string) pkg.EntityMap {
	entities := pkg.NewEntityMap()
	lower := strings.ToLower(text)

	entities[pkg.EntityLocation] = extractLocation(text)

	if m := datePattern.FindStringSubmatch(lower); m != nil {
		entities[pkg.EntityDate] = m[1]
	}

	timeSpan := timePattern.FindStringSubmatchIndex(lower)
	if timeSpan != nil {
		entities[pkg.EntityTime] = lower[timeSpan[2]:timeSpan[3]] + lower[timeSpan[4]:timeSpan[5]]
	}

	orderSpan := orderPattern.FindStringSubmatchIndex(text)
	if orderSpan != nil {
		entities[pkg.EntityOrderNumber] = text[orderSpan[2]:orderSpan[3]]
	}

	for _, product := range e.products {
		if strings.Contains(lower, product) {
			entities[pkg.EntityProduct] = product
			// "interested in laptops" names a product, not a place
			if strings.Contains(strings.ToLower(entities[pkg.EntityLocation]), product) {
				entities[pkg.EntityLocation] = ""
			}
			break
		}
	}

	if m := personPattern.FindStringSubmatch(text); m != nil {
		name := m[1]
		if name == "" && !notNames[strings.ToLower(m[2])] {
			name = m[2]
		}
		if name != "" {
			entities[pkg.EntityPerson] = strings.ToUpper(name[:1]) + name[1:]
		}
	}

	for _, span := range numberPattern.FindAllStringIndex(text, -1) {
		if overlaps(span, timeSpan) || overlaps(span, orderSpan) {
			continue
		}
		entities[pkg.EntityNumber] = text[span[0]:span[1]]
		break
	}

	return entities
}

func extractLocation(text string) string {
	m := locationPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	fields := strings.Fields(m[1])
	if len(fields) == 0 || locationLeadWords[strings.ToLower(fields[0])] {
		return ""
	}

	var words []string
	for _, word := range fields {
		if locationStopWords[strings.ToLower(word)] {
			break
		}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}

func overlaps(span, other []int) bool {
	if other == nil {
		return false
	}
	return span[0] < other[1] && other[0] < span[1]
}

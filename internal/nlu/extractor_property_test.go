package nlu

import (
	"context"
	"strings"
	"testing"

	"eino_dialogue/pkg"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var utteranceWords = []string{
	"book", "in", "Paris", "New", "York", "tomorrow", "today", "friday", "at", "3pm", "10:30", "am",
	"#12345", "order", "laptop", "non-fiction", "my", "name", "is", "bob", "I'm", "Alice", "7", "weather", "?",
}

// TestProperty_ExtractionIsIdempotent verifies extracting twice from the same input yields identical maps
func TestProperty_ExtractionIsIdempotent(t *testing.T) {
	extractor := NewRegexExtractor(catalogueNames)

	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.SampledFrom(utteranceWords), 0, 12).Draw(t, "words")
		text := strings.Join(words, " ")

		first := extractor.Extract(text)
		second := extractor.Extract(text)

		assert.Equal(t, first, second)
		assert.Len(t, first, len(pkg.EntityKeys))
	})
}

// TestProperty_KeywordClassifierIsTotal verifies any input maps into the closed intent set
func TestProperty_KeywordClassifierIsTotal(t *testing.T) {
	classifier := NewKeywordClassifier()

	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")

		intent, err := classifier.Classify(context.Background(), text)
		assert.NoError(t, err)
		assert.True(t, intent.Valid())
	})
}

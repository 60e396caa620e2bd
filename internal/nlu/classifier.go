package nlu

import (
	"context"
	"regexp"
	"strings"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"
	"eino_dialogue/pkg"
)

type keywordRule struct {
	intent  pkg.Intent
	pattern *regexp.Regexp
}

// keywordRules are tried in order; the first match wins. Yes/no only match a leading answer
// so "no, what's the weather" is still a weather question.
var keywordRules = []keywordRule{
	{pkg.IntentYes, regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|sure|ok(ay)?|confirm|correct|please do)\b(,? please)?[\s.!]*$`)},
	{pkg.IntentNo, regexp.MustCompile(`(?i)^\s*(no|nope|nah|cancel|never ?mind|don't)\b(,? thanks)?[\s.!]*$`)},
	{pkg.IntentGetUserInfo, regexp.MustCompile(`(?i)\b(what('s| is) my name|who am i|what do you know about me)\b`)},
	{pkg.IntentScheduling, regexp.MustCompile(`(?i)\b(book|schedule|appointment|reserve|meeting)\b`)},
	{pkg.IntentOrderStatus, regexp.MustCompile(`(?i)\b(order|track(ing)?|delivery|shipped|package)\b`)},
	{pkg.IntentPricing, regexp.MustCompile(`(?i)\b(price|cost|how much|expensive|cheap)\b`)},
	{pkg.IntentWeather, regexp.MustCompile(`(?i)\b(weather|forecast|temperature|rain(ing)?|sunny|snow(ing)?)\b`)},
	{pkg.IntentNews, regexp.MustCompile(`(?i)\b(news|headlines?)\b`)},
	{pkg.IntentHelp, regexp.MustCompile(`(?i)\b(help|assist|what can you do|support)\b`)},
	{pkg.IntentProductInfo, regexp.MustCompile(`(?i)\b(products?|catalog(ue)?|sell|laptops?|tablets?|books?|fiction)\b`)},
	{pkg.IntentThanks, regexp.MustCompile(`(?i)\b(thanks|thank you|thx|appreciate)\b`)},
	{pkg.IntentFarewell, regexp.MustCompile(`(?i)\b(bye|goodbye|see you|farewell|good night)\b`)},
	{pkg.IntentGreeting, regexp.MustCompile(`(?i)\b(hello|hi|hey|good (morning|afternoon|evening)|my name is|call me)\b`)},
}

// KeywordClassifier classifies utterances with ordered keyword rules. It never fails.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a rule-based classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify returns the first matching rule's intent, or unknown
func (c *KeywordClassifier) Classify(_ context.Context, text string) (pkg.Intent, error) {
	text = strings.TrimSpace(text)
	for _, rule := range keywordRules {
		if rule.pattern.MatchString(text) {
			return rule.intent, nil
		}
	}
	return pkg.IntentUnknown, nil
}

// FallbackClassifier asks Primary first and degrades to Secondary when Primary fails or
// returns unknown. Failures never escape; the worst case is unknown.
type FallbackClassifier struct {
	Primary   core.Classifier
	Secondary core.Classifier
}

// Classify implements the primary-then-secondary resolution
func (c *FallbackClassifier) Classify(ctx context.Context, text string) (pkg.Intent, error) {
	intent, err := c.Primary.Classify(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("Primary classifier failed, using fallback")
	}
	if err == nil && intent != pkg.IntentUnknown {
		return intent, nil
	}

	fallback, err := c.Secondary.Classify(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("Fallback classifier failed")
		return pkg.IntentUnknown, nil
	}
	return fallback, nil
}

// NewClassifier builds the classifier selected by config. The LLM classifier always falls back
// to the keyword rules.
func NewClassifier(ctx context.Context, config core.NLUConfig) (core.Classifier, error) {
	keywords := NewKeywordClassifier()
	if config.Classifier != "llm" {
		return keywords, nil
	}

	chatModel, err := NewChatModel(ctx, config)
	if err != nil {
		return nil, err
	}
	chat, err := NewChatClassifier(ctx, chatModel, config.Timeout)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("provider", config.Provider).Str("model", config.Model).Msg("LLM classifier enabled")
	return &FallbackClassifier{Primary: chat, Secondary: keywords}, nil
}

package nlu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"
	"eino_dialogue/pkg"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const classifierSystemTemplate = `You are an intent classifier for a customer assistant.
Classify the user's message into exactly one of these intents:
{intents}

STRICT RULES:
1. Answer with the intent label only, in snake_case, with no punctuation or explanation
2. DO NOT invent labels outside the list
3. A bare affirmation such as "sure" is yes; a bare refusal such as "nope" is no
4. If nothing fits, answer unknown`

// createClassifierTemplate builds the system+user chat template for intent classification
func createClassifierTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(classifierSystemTemplate),
		schema.UserMessage("{input_text}"),
	)
}

// ChatClassifier classifies utterances with an eino chain: template -> chat model
type ChatClassifier struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewChatClassifier compiles the classification chain around chatModel
func NewChatClassifier(ctx context.Context, chatModel model.BaseChatModel, timeout time.Duration) (*ChatClassifier, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(createClassifierTemplate()).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating Eino chain: %w", err)
	}

	return &ChatClassifier{chain: chain, timeout: timeout}, nil
}

// Classify returns the model's label. An out-of-set label is an error, not unknown, so a
// FallbackClassifier can try the rules.
func (c *ChatClassifier) Classify(ctx context.Context, text string) (pkg.Intent, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	labels := make([]string, 0, len(pkg.Intents))
	for _, intent := range pkg.Intents {
		labels = append(labels, string(intent))
	}

	start := time.Now()
	out, err := c.chain.Invoke(ctx, map[string]any{
		"intents":    strings.Join(labels, ", "),
		"input_text": text,
	})
	if err != nil {
		return pkg.IntentUnknown, &core.ServiceError{Service: "classifier", Op: "invoke", Err: err}
	}

	intent, err := parseLabel(out.Content)
	if err != nil {
		return pkg.IntentUnknown, &core.ServiceError{Service: "classifier", Op: "parse", Err: err}
	}

	logger.Debug().
		Str("intent", string(intent)).
		Dur("elapsed", time.Since(start)).
		Msg("LLM classification completed")

	return intent, nil
}

// parseLabel accepts the first word of the reply, tolerating quotes and trailing punctuation
func parseLabel(content string) (pkg.Intent, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return pkg.IntentUnknown, fmt.Errorf("empty classifier reply")
	}

	label := strings.ToLower(strings.Trim(fields[0], "\"'`.,:;!"))
	intent := pkg.ParseIntent(label)
	if intent == pkg.IntentUnknown && label != string(pkg.IntentUnknown) {
		return pkg.IntentUnknown, fmt.Errorf("label %q is outside the intent set", label)
	}
	return intent, nil
}

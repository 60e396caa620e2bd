package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// TemplateRenderer fills {field} templates with eino's FString formatter.
// Parsed templates are cached; the renderer is safe for concurrent use.
type TemplateRenderer struct {
	templates sync.Map // string -> prompt.ChatTemplate
}

// NewTemplateRenderer creates a renderer
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render formats template with fields. A placeholder without a field is an error.
func (r *TemplateRenderer) Render(ctx context.Context, template string, fields map[string]any) (string, error) {
	cached, ok := r.templates.Load(template)
	if !ok {
		cached, _ = r.templates.LoadOrStore(template, prompt.FromMessages(schema.FString, schema.AssistantMessage(template, nil)))
	}

	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := fields[m[1]]; !ok {
			return "", fmt.Errorf("template %q: missing field %q", template, m[1])
		}
	}
	if fields == nil {
		fields = map[string]any{}
	}
	messages, err := cached.(prompt.ChatTemplate).Format(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", template, err)
	}
	if len(messages) != 1 {
		return "", fmt.Errorf("template %q rendered %d messages", template, len(messages))
	}
	return messages[0].Content, nil
}

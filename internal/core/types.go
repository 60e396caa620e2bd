package core

import (
	"context"
	"time"

	"eino_dialogue/pkg"
)

// Classifier maps an utterance to an intent from the closed set.
// Implementations return an error on internal failure; callers degrade it to unknown.
type Classifier interface {
	Classify(ctx context.Context, text string) (pkg.Intent, error)
}

// Extractor maps an utterance to an entity bag. It is pure and best-effort:
// absent entities are empty values, never errors.
type Extractor interface {
	Extract(text string) pkg.EntityMap
}

// WeatherService fetches the current weather for a location
type WeatherService interface {
	Fetch(ctx context.Context, location string) (pkg.WeatherReading, error)
}

// CalendarService books events. It needs prior out-of-band authorization.
type CalendarService interface {
	CreateEvent(ctx context.Context, date, clock, summary string) (reference string, err error)
}

// Catalog answers product and price lookups
type Catalog interface {
	Find(name string) (pkg.Product, bool)
	Categories() []string
	Names() []string
}

// OrderBook answers order status lookups
type OrderBook interface {
	Lookup(number string) (pkg.Order, bool)
}

// NewsService returns the current top headlines
type NewsService interface {
	Headlines(ctx context.Context) []string
}

// Renderer fills a response template. A missing field is a programming error.
type Renderer interface {
	Render(ctx context.Context, template string, fields map[string]any) (string, error)
}

// Config holds all configuration for the assistant
type Config struct {
	Log      LogConfig      `yaml:"log"`
	NLU      NLUConfig      `yaml:"nlu"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Services ServicesConfig `yaml:"services"`
	Storage  StorageConfig  `yaml:"storage"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level      string `yaml:"level" envconfig:"LOG_LEVEL" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format     string `yaml:"format" envconfig:"LOG_FORMAT" validate:"oneof=json console"`
	Output     string `yaml:"output" envconfig:"LOG_OUTPUT" validate:"oneof=stdout stderr file"`
	FilePath   string `yaml:"file_path" envconfig:"LOG_FILE_PATH" validate:"required_if=Output file"`
	TimeFormat string `yaml:"time_format" envconfig:"LOG_TIME_FORMAT" validate:"oneof=rfc3339 unix iso8601"`
}

// NLUConfig holds configuration for intent classification
type NLUConfig struct {
	Classifier  string        `yaml:"classifier" envconfig:"NLU_CLASSIFIER" validate:"oneof=keyword llm"`
	Provider    string        `yaml:"provider" envconfig:"NLU_PROVIDER" validate:"oneof=openai ollama ark deepseek"`
	Model       string        `yaml:"model" envconfig:"NLU_MODEL" validate:"required_if=Classifier llm"`
	BaseURL     string        `yaml:"base_url" envconfig:"NLU_BASE_URL"`
	APIKey      string        `yaml:"api_key" envconfig:"OPENROUTER_API_KEY"`
	MaxTokens   int           `yaml:"max_tokens" envconfig:"NLU_MAX_TOKENS" validate:"gte=1"`
	Temperature float64       `yaml:"temperature" envconfig:"NLU_TEMPERATURE" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"NLU_TIMEOUT" validate:"gt=0"`
}

// DialogueConfig holds dialogue manager tuning
type DialogueConfig struct {
	// PersonalizationRate is the probability of prefixing a reply with the user's name
	PersonalizationRate float64 `yaml:"personalization_rate" envconfig:"PERSONALIZATION_RATE" validate:"gte=0,lte=1"`
	// ExternalTimeout bounds every weather and calendar call
	ExternalTimeout time.Duration `yaml:"external_timeout" envconfig:"EXTERNAL_TIMEOUT" validate:"gt=0"`
}

// ServicesConfig holds external service configuration
type ServicesConfig struct {
	Weather  WeatherConfig  `yaml:"weather"`
	Calendar CalendarConfig `yaml:"calendar"`
}

// WeatherConfig holds OpenWeatherMap settings
type WeatherConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"WEATHER_BASE_URL" validate:"url"`
	APIKey  string        `yaml:"api_key" envconfig:"WEATHER_API_KEY"`
	Units   string        `yaml:"units" envconfig:"WEATHER_UNITS" validate:"oneof=metric imperial standard"`
	Timeout time.Duration `yaml:"timeout" envconfig:"WEATHER_TIMEOUT" validate:"gt=0"`
	Retries uint64        `yaml:"retries" envconfig:"WEATHER_RETRIES" validate:"lte=5"`
}

// CalendarConfig holds local calendar settings
type CalendarConfig struct {
	Token      string `yaml:"token" envconfig:"CALENDAR_TOKEN"`
	EventsFile string `yaml:"events_file" envconfig:"CALENDAR_EVENTS_FILE" validate:"required"`
}

// StorageConfig holds session and long-term storage configuration
type StorageConfig struct {
	RedisURL    string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	SessionTTL  time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL" validate:"gt=0"`
	LongtermDir string        `yaml:"longterm_dir" envconfig:"LONGTERM_DIR" validate:"required"`
}

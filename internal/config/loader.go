package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"eino_dialogue/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Default returns a configuration usable without any file or environment
func Default() core.Config {
	return core.Config{
		Log: core.LogConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			TimeFormat: "rfc3339",
		},
		NLU: core.NLUConfig{
			Classifier:  "keyword",
			Provider:    "openai",
			Model:       "openai/gpt-4o-mini",
			BaseURL:     "https://openrouter.ai/api/v1",
			MaxTokens:   16,
			Temperature: 0,
			Timeout:     10 * time.Second,
		},
		Dialogue: core.DialogueConfig{
			PersonalizationRate: 0.3,
			ExternalTimeout:     5 * time.Second,
		},
		Services: core.ServicesConfig{
			Weather: core.WeatherConfig{
				BaseURL: "https://api.openweathermap.org/data/2.5/weather",
				Units:   "metric",
				Timeout: 3 * time.Second,
				Retries: 2,
			},
			Calendar: core.CalendarConfig{
				EventsFile: "data/calendar/events.jsonl",
			},
		},
		Storage: core.StorageConfig{
			SessionTTL:  40 * time.Minute,
			LongtermDir: "data/longterm",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file, an optional .env
// file and the environment, in that order of precedence, then validates it.
func LoadConfig(path string) (*core.Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("error parsing YAML: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct tags
func Validate(cfg *core.Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	return nil
}

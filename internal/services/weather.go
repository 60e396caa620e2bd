package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"
	"eino_dialogue/pkg"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
)

// WeatherClient fetches current conditions from an OpenWeatherMap-compatible endpoint
type WeatherClient struct {
	config core.WeatherConfig
	client *http.Client
}

type weatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// NewWeatherClient creates a weather client
func NewWeatherClient(config core.WeatherConfig) *WeatherClient {
	return &WeatherClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Fetch returns the current reading for location. Server errors and transport failures are
// retried up to config.Retries times; 4xx responses are not.
func (w *WeatherClient) Fetch(ctx context.Context, location string) (pkg.WeatherReading, error) {
	if w.config.APIKey == "" {
		return pkg.WeatherReading{}, &core.ServiceError{Service: "weather", Op: "fetch", Err: core.ErrUnauthorized}
	}

	var reading pkg.WeatherReading
	operation := func() error {
		r, err := w.fetchOnce(ctx, location)
		if err != nil {
			return err
		}
		reading = r
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 200 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, w.config.Retries), ctx)
	notify := func(err error, wait time.Duration) {
		logger.Debug().Err(err).Str("location", location).Dur("retry_in", wait).Msg("Weather request failed, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return pkg.WeatherReading{}, &core.ServiceError{Service: "weather", Op: "fetch", Err: err}
	}
	return reading, nil
}

func (w *WeatherClient) fetchOnce(ctx context.Context, location string) (pkg.WeatherReading, error) {
	query := url.Values{}
	query.Set("q", location)
	query.Set("appid", w.config.APIKey)
	query.Set("units", w.config.Units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.config.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return pkg.WeatherReading{}, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return pkg.WeatherReading{}, backoff.Permanent(err)
		}
		return pkg.WeatherReading{}, fmt.Errorf("failed to call weather API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkg.WeatherReading{}, fmt.Errorf("failed to read weather response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("weather API returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return pkg.WeatherReading{}, backoff.Permanent(statusErr)
		}
		return pkg.WeatherReading{}, statusErr
	}

	var data weatherResponse
	if err := sonic.Unmarshal(body, &data); err != nil {
		return pkg.WeatherReading{}, backoff.Permanent(fmt.Errorf("failed to decode weather response: %w", err))
	}
	if len(data.Weather) == 0 {
		return pkg.WeatherReading{}, backoff.Permanent(errors.New("weather response has no conditions"))
	}

	name := data.Name
	if name == "" {
		name = location
	}
	return pkg.WeatherReading{
		Location:    name,
		Temperature: math.Round(data.Main.Temp),
		Conditions:  strings.ToLower(data.Weather[0].Description),
	}, nil
}

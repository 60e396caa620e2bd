package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/nlu"
	"eino_dialogue/internal/services"
	"eino_dialogue/pkg"

	"github.com/stretchr/testify/require"
)

type fakeWeather struct {
	mu    sync.Mutex
	calls []string
	err   error
	block bool
}

func (f *fakeWeather) Fetch(ctx context.Context, location string) (pkg.WeatherReading, error) {
	f.mu.Lock()
	f.calls = append(f.calls, location)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return pkg.WeatherReading{}, ctx.Err()
	}
	if f.err != nil {
		return pkg.WeatherReading{}, f.err
	}
	return pkg.WeatherReading{Location: location, Temperature: 21, Conditions: "clear sky"}, nil
}

func (f *fakeWeather) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeCalendar struct {
	mu     sync.Mutex
	events []pkg.Appointment
	err    error
	block  bool
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, date, clock, _ string) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, pkg.Appointment{Date: date, Time: clock})
	return fmt.Sprintf("evt_%d", len(f.events)), nil
}

func (f *fakeCalendar) Events() []pkg.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pkg.Appointment(nil), f.events...)
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (pkg.Intent, error) {
	return pkg.IntentUnknown, errors.New("model offline")
}

type brokenRenderer struct{}

func (brokenRenderer) Render(context.Context, string, map[string]any) (string, error) {
	return "", errors.New("template bug")
}

// switchableRenderer renders normally until broken is set
type switchableRenderer struct {
	TemplateRenderer
	broken bool
}

func (r *switchableRenderer) Render(ctx context.Context, template string, fields map[string]any) (string, error) {
	if r.broken {
		return "", errors.New("template bug")
	}
	return r.TemplateRenderer.Render(ctx, template, fields)
}

type fixture struct {
	weather  *fakeWeather
	calendar *fakeCalendar
	deps     Dependencies
	config   core.DialogueConfig
}

func newFixture() *fixture {
	products := services.NewProductService()
	f := &fixture{
		weather:  &fakeWeather{},
		calendar: &fakeCalendar{},
		config:   core.DialogueConfig{PersonalizationRate: 0, ExternalTimeout: time.Second},
	}
	f.deps = Dependencies{
		Classifier: nlu.NewKeywordClassifier(),
		Extractor:  nlu.NewRegexExtractor(products.Names()),
		Weather:    f.weather,
		Calendar:   f.calendar,
		Catalog:    products,
		Orders:     services.NewOrderService(),
		News:       services.NewNewsService(),
	}
	return f
}

func (f *fixture) session(t testing.TB) *Session {
	t.Helper()
	manager, err := NewManager(context.Background(), f.deps, f.config,
		WithRandSeed(7),
		WithClock(func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return manager.NewSession("test", nil)
}

// say runs one turn and fails the test on an error
func say(t testing.TB, s *Session, input string) string {
	t.Helper()
	reply, err := s.ProcessTurn(context.Background(), input)
	require.NoError(t, err, "input %q", input)
	return reply
}

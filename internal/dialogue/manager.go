package dialogue

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"
	"eino_dialogue/internal/memory"

	"github.com/cloudwego/eino/compose"
)

// Dependencies are the collaborators a Manager orchestrates
type Dependencies struct {
	Classifier core.Classifier
	Extractor  core.Extractor
	Weather    core.WeatherService
	Calendar   core.CalendarService
	Catalog    core.Catalog
	Orders     core.OrderBook
	News       core.NewsService
	// Renderer defaults to a TemplateRenderer
	Renderer core.Renderer
}

func (d *Dependencies) validate() error {
	var missing []error
	if d.Classifier == nil {
		missing = append(missing, errors.New("classifier is required"))
	}
	if d.Extractor == nil {
		missing = append(missing, errors.New("extractor is required"))
	}
	if d.Weather == nil {
		missing = append(missing, errors.New("weather service is required"))
	}
	if d.Calendar == nil {
		missing = append(missing, errors.New("calendar service is required"))
	}
	if d.Catalog == nil {
		missing = append(missing, errors.New("catalog is required"))
	}
	if d.Orders == nil {
		missing = append(missing, errors.New("order book is required"))
	}
	if d.News == nil {
		missing = append(missing, errors.New("news service is required"))
	}
	return errors.Join(missing...)
}

// Option customises a Manager
type Option func(*Manager)

// WithClock sets the clock used to timestamp turns
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRandSeed makes template choice and personalization reproducible. Every session
// created afterwards draws from its own source seeded with seed.
func WithRandSeed(seed uint64) Option {
	return func(m *Manager) {
		m.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }
	}
}

// Manager is the dialogue state manager. It holds the collaborators and the compiled turn
// graph; all per-conversation state lives in Sessions, so one Manager serves many sessions.
type Manager struct {
	deps    Dependencies
	config  core.DialogueConfig
	graph   compose.Runnable[*turnState, string]
	now     func() time.Time
	newRand func() *rand.Rand
}

// NewManager validates the collaborators and compiles the turn graph
func NewManager(ctx context.Context, deps Dependencies, config core.DialogueConfig, opts ...Option) (*Manager, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("invalid dialogue dependencies: %w", err)
	}
	if config.ExternalTimeout <= 0 {
		return nil, fmt.Errorf("invalid dialogue config: external timeout must be positive, got %s", config.ExternalTimeout)
	}
	if config.PersonalizationRate < 0 || config.PersonalizationRate > 1 {
		return nil, fmt.Errorf("invalid dialogue config: personalization rate %v outside [0, 1]", config.PersonalizationRate)
	}
	if deps.Renderer == nil {
		deps.Renderer = NewTemplateRenderer()
	}

	m := &Manager{
		deps:    deps,
		config:  config,
		now:     time.Now,
		newRand: func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
	}
	for _, opt := range opts {
		opt(m)
	}

	graph, err := m.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	m.graph = graph

	return m, nil
}

// Session is one conversation. Turns on a session are serialized; separate sessions share
// nothing mutable and may run in parallel.
type Session struct {
	id      string
	manager *Manager

	mu  sync.Mutex
	mem *memory.ConversationMemory
	rng *rand.Rand
}

// NewSession starts a session over mem; a nil mem starts from an empty memory
func (m *Manager) NewSession(id string, mem *memory.ConversationMemory) *Session {
	if mem == nil {
		mem = memory.New()
	}
	return &Session{id: id, manager: m, mem: mem, rng: m.newRand()}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// ProcessTurn resolves one user utterance and returns the reply. User-facing failures are
// always a reply; the error is reserved for invariant violations and template bugs.
func (s *Session) ProcessTurn(ctx context.Context, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a failed turn leaves memory as it was before the turn
	before := s.mem.Snapshot()

	state := &turnState{session: s, input: input}
	reply, err := s.manager.graph.Invoke(ctx, state)
	if state.err != nil || err != nil {
		s.rollback(before)
		if state.err != nil {
			return "", state.err
		}
		return "", fmt.Errorf("failed to process turn: %w", err)
	}

	logger.Debug().
		Str("session", s.id).
		Str("path", state.path).
		Str("intent", string(state.intent)).
		Msg("Turn processed")

	return reply, nil
}

func (s *Session) rollback(snap memory.Snapshot) {
	restored, err := memory.Restore(snap)
	if err != nil {
		logger.Error().Err(err).Str("session", s.id).Msg("Failed to roll back session memory")
		return
	}
	s.mem = restored
}

// WithMemory runs fn while holding the session lock, for persistence and inspection
func (s *Session) WithMemory(fn func(mem *memory.ConversationMemory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.mem)
}

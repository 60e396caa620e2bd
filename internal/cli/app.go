package cli

import (
	"context"
	"errors"
	"fmt"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/dialogue"
	"eino_dialogue/internal/memory"
	"eino_dialogue/internal/nlu"
	"eino_dialogue/internal/services"
	"eino_dialogue/internal/storage"
)

// app wires configuration into a dialogue manager and its stores
type app struct {
	manager  *dialogue.Manager
	sessions storage.SessionStore
	longterm *storage.LongtermStore
}

func newApp(ctx context.Context, cfg *core.Config, opts ...dialogue.Option) (*app, error) {
	classifier, err := nlu.NewClassifier(ctx, cfg.NLU)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	products := services.NewProductService()
	manager, err := dialogue.NewManager(ctx, dialogue.Dependencies{
		Classifier: classifier,
		Extractor:  nlu.NewRegexExtractor(products.Names()),
		Weather:    services.NewWeatherClient(cfg.Services.Weather),
		Calendar:   services.NewLocalCalendar(cfg.Services.Calendar),
		Catalog:    products,
		Orders:     services.NewOrderService(),
		News:       services.NewNewsService(),
	}, cfg.Dialogue, opts...)
	if err != nil {
		return nil, err
	}

	sessions, err := storage.NewSessionStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	return &app{
		manager:  manager,
		sessions: sessions,
		longterm: storage.NewLongtermStore(cfg.Storage.LongtermDir),
	}, nil
}

// openSession resumes sessionID from the session store, or starts it fresh. Long-term facts
// for userID are merged in without overwriting what the session already knows.
func (a *app) openSession(ctx context.Context, sessionID, userID string) (*dialogue.Session, error) {
	mem, err := a.sessions.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, core.ErrSessionNotFound) {
		return nil, err
	}
	session := a.manager.NewSession(sessionID, mem)

	if userID == "" {
		return session, nil
	}
	facts, err := a.longterm.Load(userID)
	if err != nil {
		return nil, err
	}
	err = session.WithMemory(func(mem *memory.ConversationMemory) error {
		for key, value := range facts {
			if _, known := mem.Fact(key); !known {
				mem.Remember(key, value)
			}
		}
		return nil
	})
	return session, err
}

// persist saves the session and, when userID is set, its long-term facts
func (a *app) persist(ctx context.Context, session *dialogue.Session, userID string) error {
	return session.WithMemory(func(mem *memory.ConversationMemory) error {
		if err := a.sessions.Save(ctx, session.ID(), mem); err != nil {
			return err
		}
		if userID == "" {
			return nil
		}
		return a.longterm.Save(userID, mem.Facts())
	})
}

func (a *app) Close() error {
	return a.sessions.Close()
}

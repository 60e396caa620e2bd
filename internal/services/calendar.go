package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"eino_dialogue/internal/core"

	"github.com/bytedance/sonic"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CalendarEvent is one line of the local calendar file
type CalendarEvent struct {
	Reference string    `json:"reference"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// LocalCalendar books events into a JSON-lines file. It only accepts bookings once an
// authorization token has been configured.
type LocalCalendar struct {
	mu    sync.Mutex
	token string
	path  string
}

// NewLocalCalendar creates a calendar writing to config.EventsFile
func NewLocalCalendar(config core.CalendarConfig) *LocalCalendar {
	return &LocalCalendar{token: config.Token, path: config.EventsFile}
}

// CreateEvent appends an event and returns its reference
func (c *LocalCalendar) CreateEvent(ctx context.Context, date, clock, summary string) (string, error) {
	if c.token == "" {
		return "", &core.ServiceError{Service: "calendar", Op: "create_event", Err: core.ErrUnauthorized}
	}
	if err := ctx.Err(); err != nil {
		return "", &core.ServiceError{Service: "calendar", Op: "create_event", Err: err}
	}

	id, err := gonanoid.New(12)
	if err != nil {
		return "", &core.ServiceError{Service: "calendar", Op: "create_event", Err: err}
	}

	event := CalendarEvent{
		Reference: "evt_" + id,
		Date:      date,
		Time:      clock,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.append(event); err != nil {
		return "", &core.ServiceError{Service: "calendar", Op: "create_event", Err: err}
	}

	return event.Reference, nil
}

func (c *LocalCalendar) append(event CalendarEvent) error {
	line, err := sonic.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create calendar directory: %w", err)
	}
	file, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

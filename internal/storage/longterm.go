package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"eino_dialogue/internal/logger"

	"github.com/bytedance/sonic"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// LongtermRecord is the on-disk form of one user's long-term facts
type LongtermRecord struct {
	UserID    string            `json:"user_id"`
	Facts     map[string]string `json:"facts"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// LongtermStore keeps long-term user facts in one JSON file per user
type LongtermStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewLongtermStore creates a JSON-file long-term store rooted at baseDir
func NewLongtermStore(baseDir string) *LongtermStore {
	return &LongtermStore{baseDir: baseDir}
}

func (l *LongtermStore) path(userID string) (string, error) {
	if !userIDPattern.MatchString(userID) {
		return "", fmt.Errorf("invalid user ID %q", userID)
	}
	return filepath.Join(l.baseDir, fmt.Sprintf("%s.json", userID)), nil
}

// Load returns the stored facts for userID, or an empty map when none were saved
func (l *LongtermStore) Load(userID string) (map[string]string, error) {
	path, err := l.path(userID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read longterm memory file: %w", err)
	}

	var record LongtermRecord
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse longterm memory file: %w", err)
	}
	if record.Facts == nil {
		record.Facts = map[string]string{}
	}
	return record.Facts, nil
}

// Save replaces the stored facts for userID
func (l *LongtermStore) Save(userID string, facts map[string]string) error {
	path, err := l.path(userID)
	if err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(LongtermRecord{
		UserID:    userID,
		Facts:     facts,
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal longterm memory data: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create longterm directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write longterm memory file: %w", err)
	}

	logger.Debug().Str("user", userID).Int("facts", len(facts)).Msg("Saved longterm memory")
	return nil
}

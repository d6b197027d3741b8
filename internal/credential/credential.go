package credential

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/models"
)

// Store holds the process-wide API credential. The key is read once from the
// environment at startup; the video pathway additionally requires an explicit
// Select step. Invalidation is visible to the next submission attempt.
type Store struct {
	mu       sync.RWMutex
	key      string
	selected bool
}

// NewStore creates a store seeded with the environment credential. The
// selected flag starts false: text, image and speech calls only need the
// key, video needs Select first.
func NewStore(key string) *Store {
	return &Store{key: key}
}

// Key returns the credential, or ErrConfiguration when none is set.
func (s *Store) Key() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == "" {
		return "", fmt.Errorf("no API key set: %w", models.ErrConfiguration)
	}
	return s.key, nil
}

// Select marks the credential as explicitly chosen, optionally replacing the
// key. Required before video submission.
func (s *Store) Select(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		s.key = key
	}
	if s.key == "" {
		return fmt.Errorf("no API key to select: %w", models.ErrConfiguration)
	}
	s.selected = true
	log.Info().Msg("Credential selected")
	return nil
}

// Selected reports whether the explicit selection step has completed.
func (s *Store) Selected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Invalidate revokes the selected flag after the service rejected the
// credential. The key itself is kept so the user can re-select.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = false
	log.Warn().Msg("Credential invalidated, re-selection required")
}

package store

import (
	"sync"
	"time"

	"github.com/urduaiorg/tracker/internal/entity"
)

// BrandStore holds the single creator's media-kit personalization.
type BrandStore struct {
	mu       sync.RWMutex
	settings *entity.BrandSettings
}

func NewBrandStore() *BrandStore {
	return &BrandStore{}
}

// Get returns the current settings, if any have been saved.
func (s *BrandStore) Get() (entity.BrandSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return entity.BrandSettings{}, false
	}
	return *s.settings, true
}

// Put replaces the settings.
func (s *BrandStore) Put(b entity.BrandSettings) entity.BrandSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.UpdatedAt = time.Now().UTC()
	s.settings = &b
	return b
}

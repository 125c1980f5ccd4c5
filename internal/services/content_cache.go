package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emberfree_go_backend/internal/docstore"
	"emberfree_go_backend/internal/models"

	"github.com/rs/zerolog/log"
)

// ContentCacheService stores the last generated content per user, content
// type and language. An entry is served only while it is younger than the
// type-specific TTL AND the user's streak has not moved by the progress
// threshold since generation. The dual rule keeps a steadily progressing
// user on a stable message for up to two weeks but forces a fresh one the
// moment their circumstances change enough to make the old message wrong.
type ContentCacheService struct {
	store             docstore.Store
	ttlFor            func(contentType string) time.Duration
	progressThreshold int
	now               func() time.Time
}

func NewContentCacheService(store docstore.Store, ttlFor func(string) time.Duration, progressThreshold int) *ContentCacheService {
	return &ContentCacheService{
		store:             store,
		ttlFor:            ttlFor,
		progressThreshold: progressThreshold,
		now:               time.Now,
	}
}

func cacheKey(userID string, contentType models.ContentKind, language string) string {
	return fmt.Sprintf("cache_%s_%s_%s", userID, contentType, language)
}

// Get returns nil on miss, age expiry or progress invalidation. A read
// failure is treated as a miss: the caller regenerates, which is always
// acceptable.
func (s *ContentCacheService) Get(ctx context.Context, userID string, contentType models.ContentKind, language string, current models.UserContextSnapshot) *models.CacheEntry {
	key := cacheKey(userID, contentType, language)
	var entry models.CacheEntry
	if err := s.store.Get(ctx, key, &entry); err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		return nil
	}

	if s.now().Sub(entry.CreatedAt) > s.ttlFor(string(contentType)) {
		return nil
	}

	delta := current.Streak - entry.Snapshot.Streak
	if delta < 0 {
		delta = -delta
	}
	if delta >= s.progressThreshold {
		// Significant progress since generation: the cached message
		// no longer fits the user's situation.
		return nil
	}

	return &entry
}

func (s *ContentCacheService) Set(ctx context.Context, userID string, contentType models.ContentKind, language string, content models.GeneratedContent, snapshot models.UserContextSnapshot, tokensUsed int, cost float64) error {
	entry := models.CacheEntry{
		Content:    content,
		CreatedAt:  s.now(),
		Snapshot:   snapshot,
		TokensUsed: tokensUsed,
		Cost:       cost,
	}
	key := cacheKey(userID, contentType, language)
	if err := s.store.Set(ctx, key, &entry); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Clear drops an entry known to be wrong without waiting for expiry.
func (s *ContentCacheService) Clear(ctx context.Context, userID string, contentType models.ContentKind, language string) error {
	return s.store.Delete(ctx, cacheKey(userID, contentType, language))
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"zion-admin/internal/client"
	"zion-admin/internal/config"
	"zion-admin/internal/dto"
	"zion-admin/internal/model"
)

// PromoService serves the cached storefront promotions feed. Reads come
// from a local JSON cache file; the upstream feed is only hit on refresh.
// Cache age is derived from the file's mtime, so a restart does not reset
// the refresh clock.
type PromoService interface {
	Status(ctx context.Context) *dto.PromoStatusResponse
	List(ctx context.Context, query string) []model.Promotion
	Refresh(ctx context.Context) (int, error)
	RunScheduler(ctx context.Context)
}

type promoServiceImpl struct {
	feed       client.PromoFeed
	cacheFile  string
	feedURL    string
	staleAfter time.Duration
	interval   time.Duration

	mu sync.Mutex // serializes refreshes
}

func NewPromoService(cfg *config.Promos, feed client.PromoFeed) PromoService {
	interval := time.Duration(cfg.RefreshMin) * time.Minute
	if interval < 5*time.Minute {
		interval = 5 * time.Minute
	}
	return &promoServiceImpl{
		feed:       feed,
		cacheFile:  cfg.CacheFile,
		feedURL:    cfg.FeedURL,
		staleAfter: time.Duration(cfg.StaleAfterMin) * time.Minute,
		interval:   interval,
	}
}

// readCache loads the cached batch. A missing or corrupt file reads as
// an empty batch; the next refresh overwrites it.
func (s *promoServiceImpl) readCache() []model.Promotion {
	raw, err := os.ReadFile(s.cacheFile)
	if err != nil {
		return nil
	}
	var promos []model.Promotion
	if err := json.Unmarshal(raw, &promos); err != nil {
		log.Warn().Err(err).Str("file", s.cacheFile).Msg("promo cache unreadable")
		return nil
	}
	return promos
}

func (s *promoServiceImpl) writeCache(promos []model.Promotion) error {
	raw, err := json.Marshal(promos)
	if err != nil {
		return fmt.Errorf("marshal promos: %w", err)
	}
	dir := filepath.Dir(s.cacheFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir cache dir: %w", err)
	}
	tmp := s.cacheFile + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache tmp: %w", err)
	}
	if err := os.Rename(tmp, s.cacheFile); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// cacheAgeMin returns whole minutes since the last successful refresh,
// or nil when no cache file exists yet.
func (s *promoServiceImpl) cacheAgeMin() *int {
	info, err := os.Stat(s.cacheFile)
	if err != nil {
		return nil
	}
	age := int(time.Since(info.ModTime()).Minutes())
	if age < 0 {
		age = 0
	}
	return &age
}

func (s *promoServiceImpl) Status(ctx context.Context) *dto.PromoStatusResponse {
	return &dto.PromoStatusResponse{
		OK:          true,
		CacheAgeMin: s.cacheAgeMin(),
		Count:       len(s.readCache()),
		FeedURL:     s.feedURL,
	}
}

// List returns the cached batch, filtered by a case-insensitive title
// substring when query is set. A stale or absent cache kicks off a
// background refresh; the stale batch is still served immediately.
func (s *promoServiceImpl) List(ctx context.Context, query string) []model.Promotion {
	age := s.cacheAgeMin()
	if age == nil || time.Duration(*age)*time.Minute > s.staleAfter {
		go func() {
			if _, err := s.Refresh(context.Background()); err != nil {
				log.Warn().Err(err).Msg("background promo refresh failed")
			}
		}()
	}

	promos := s.readCache()
	if query == "" {
		return promos
	}
	q := strings.ToLower(query)
	filtered := make([]model.Promotion, 0, len(promos))
	for _, p := range promos {
		if strings.Contains(strings.ToLower(p.Title), q) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Refresh fetches the feed and rewrites the cache, returning the new
// count. On failure the previous cache stays in place.
func (s *promoServiceImpl) Refresh(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	promos, err := s.feed.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch promo feed: %w", err)
	}
	if err := s.writeCache(promos); err != nil {
		return 0, err
	}
	log.Info().Int("count", len(promos)).Msg("promo cache refreshed")
	return len(promos), nil
}

// RunScheduler refreshes on the configured interval until ctx is done.
// Meant to run in its own goroutine from main.
func (s *promoServiceImpl) RunScheduler(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if _, err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial promo refresh failed")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("scheduled promo refresh failed")
			}
		}
	}
}

package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zion-admin/internal/config"
	"zion-admin/internal/model"
)

type fakePromoFeed struct {
	promos  []model.Promotion
	err     error
	fetches atomic.Int32
}

func (f *fakePromoFeed) Fetch(ctx context.Context) ([]model.Promotion, error) {
	f.fetches.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.promos, nil
}

func promoPrice(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func newPromoService(t *testing.T, feed *fakePromoFeed) (PromoService, string) {
	t.Helper()
	cacheFile := filepath.Join(t.TempDir(), "promos.json")
	cfg := &config.Promos{
		FeedURL:       "https://feed.example/promos.json",
		CacheFile:     cacheFile,
		RefreshMin:    90,
		StaleAfterMin: 60,
	}
	return NewPromoService(cfg, feed), cacheFile
}

func TestPromoRefreshWritesCache(t *testing.T) {
	ctx := context.Background()
	feed := &fakePromoFeed{promos: []model.Promotion{
		{Title: "God of War Ragnarok", Platform: "PS5", PromoPrice: promoPrice("99.90")},
		{Title: "Gran Turismo 7", Platform: "PS4", PromoPrice: promoPrice("79.90")},
	}}
	s, cacheFile := newPromoService(t, feed)

	count, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = os.Stat(cacheFile)
	require.NoError(t, err)

	status := s.Status(ctx)
	assert.True(t, status.OK)
	assert.Equal(t, 2, status.Count)
	require.NotNil(t, status.CacheAgeMin)
	assert.Equal(t, 0, *status.CacheAgeMin)
	assert.Equal(t, "https://feed.example/promos.json", status.FeedURL)
}

func TestPromoStatusBeforeFirstRefresh(t *testing.T) {
	s, _ := newPromoService(t, &fakePromoFeed{})

	status := s.Status(context.Background())
	assert.True(t, status.OK)
	assert.Nil(t, status.CacheAgeMin)
	assert.Equal(t, 0, status.Count)
}

func TestPromoListFiltersByTitle(t *testing.T) {
	ctx := context.Background()
	feed := &fakePromoFeed{promos: []model.Promotion{
		{Title: "God of War Ragnarok"},
		{Title: "Gran Turismo 7"},
		{Title: "The Last of Us Part II"},
	}}
	s, _ := newPromoService(t, feed)

	_, err := s.Refresh(ctx)
	require.NoError(t, err)

	all := s.List(ctx, "")
	assert.Len(t, all, 3)

	filtered := s.List(ctx, "god of war")
	require.Len(t, filtered, 1)
	assert.Equal(t, "God of War Ragnarok", filtered[0].Title)

	assert.Empty(t, s.List(ctx, "elden ring"))
}

func TestPromoListTriggersRefreshWhenCacheMissing(t *testing.T) {
	feed := &fakePromoFeed{promos: []model.Promotion{{Title: "Stray"}}}
	s, cacheFile := newPromoService(t, feed)

	// no cache yet, so the list is empty but a refresh starts
	assert.Empty(t, s.List(context.Background(), ""))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(cacheFile)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, feed.fetches.Load(), int32(1))
}

func TestPromoListServesFreshCacheWithoutRefetch(t *testing.T) {
	ctx := context.Background()
	feed := &fakePromoFeed{promos: []model.Promotion{{Title: "Stray"}}}
	s, _ := newPromoService(t, feed)

	_, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), feed.fetches.Load())

	assert.Len(t, s.List(ctx, ""), 1)
	assert.Equal(t, int32(1), feed.fetches.Load())
}

func TestPromoRefreshFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	feed := &fakePromoFeed{promos: []model.Promotion{{Title: "Stray"}}}
	s, _ := newPromoService(t, feed)

	_, err := s.Refresh(ctx)
	require.NoError(t, err)

	feed.err = fmt.Errorf("upstream down")
	_, err = s.Refresh(ctx)
	require.Error(t, err)

	assert.Len(t, s.List(ctx, ""), 1)
	assert.Equal(t, 1, s.Status(ctx).Count)
}

func TestPromoCorruptCacheReadsAsEmpty(t *testing.T) {
	s, cacheFile := newPromoService(t, &fakePromoFeed{})
	require.NoError(t, os.WriteFile(cacheFile, []byte("{not json"), 0o644))

	assert.Equal(t, 0, s.Status(context.Background()).Count)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zion-admin/internal/dto"
	"zion-admin/internal/model"
	"zion-admin/pkg/apperrors"
)

func TestNormalizeSKU(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims edges", "  ABC-1  ", "ABC-1"},
		{"strips internal whitespace", "AB C\t-1", "ABC-1"},
		{"preserves case", "abc-1", "abc-1"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSKU(tt.in))
		})
	}
}

func TestPreviewAndConsumeKeepFIFOOrder(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "God of War", map[string]string{"PS4": "GOW-PS4"})
	acc := seedAccount(t, svc, game.ID, "acc@example.com", "PRIMARY", "PS4", []string{"X1", "X2"})

	head, err := svc.PreviewNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "X1", head)

	// preview does not mutate
	again, err := svc.PreviewNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "X1", again)

	code, err := svc.ConsumeNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "X1", code)

	head, err = svc.PreviewNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "X2", head)

	code, err = svc.ConsumeNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "X2", code)

	head, err = svc.PreviewNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, head)
}

func TestConsumeNextEmptyPool(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "Elden Ring", map[string]string{"PS5": "ER-PS5"})
	acc := seedAccount(t, svc, game.ID, "acc@example.com", "PRIMARY", "PS5", nil)

	code, err := svc.ConsumeNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestConsumeNextUnknownAccount(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.ConsumeNext(context.Background(), "no-such-account")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestConsumeDecrementsSlotQtyAndClampsAtZero(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game, err := svc.CreateGame(ctx, &dto.GameCreateRequest{
		Name:   "Spider-Man",
		SKUPS4: "SM-PS4",
		QtyPS4: 1,
	})
	require.NoError(t, err)
	acc := seedAccount(t, svc, game.ID, "acc@example.com", "PRIMARY", "PS4", []string{"C1", "C2"})

	_, err = svc.ConsumeNext(ctx, acc.ID)
	require.NoError(t, err)

	got, err := svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QtyPS4)

	// counter already at zero stays there
	_, err = svc.ConsumeNext(ctx, acc.ID)
	require.NoError(t, err)

	got, err = svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QtyPS4)
}

func TestResolveMatchesEachSlot(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "Horizon", map[string]string{
		"PS4":  "HZ-PS4",
		"PS4s": "HZ-PS4S",
		"PS5":  "HZ-PS5",
		"PS5s": "HZ-PS5S",
	})

	tests := []struct {
		sku      string
		platform string
	}{
		{"HZ-PS4", "PS4"},
		{"HZ-PS4S", "PS4s"},
		{"HZ-PS5", "PS5"},
		{"HZ-PS5S", "PS5s"},
	}
	for _, tt := range tests {
		resolved, err := svc.Resolve(ctx, tt.sku)
		require.NoError(t, err)
		assert.Equal(t, game.ID, resolved.GameID)
		assert.Equal(t, tt.platform, resolved.Platform)
	}
}

func TestResolveIsCaseSensitive(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	seedGame(t, svc, "Horizon", map[string]string{"PS5": "ABC-1"})

	resolved, err := svc.Resolve(ctx, "ABC-1")
	require.NoError(t, err)
	assert.Equal(t, "PS5", resolved.Platform)

	_, err = svc.Resolve(ctx, "abc-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestResolveStripsWhitespace(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	seedGame(t, svc, "Horizon", map[string]string{"PS5": " ABC-1 "})

	resolved, err := svc.Resolve(ctx, "  ABC- 1 ")
	require.NoError(t, err)
	assert.Equal(t, "ABC-1", resolved.SKU)
}

func TestResolveEmptyAndUnknown(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "   ")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))

	_, err = svc.Resolve(ctx, "NOPE-0")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestAllocatePrefersMediaMatchWithCodes(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "GT7", map[string]string{"PS5": "GT7-PS5"})
	seedAccount(t, svc, game.ID, "empty-primary@example.com", "PRIMARY", "PS5", nil)
	full := seedAccount(t, svc, game.ID, "full-primary@example.com", "PRIMARY", "PS5", []string{"K1"})
	seedAccount(t, svc, game.ID, "secondary@example.com", "SECONDARY", "PS5", []string{"K2"})

	resp, err := svc.Allocate(ctx, &dto.AllocateRequest{SKU: "GT7-PS5", Media: "PRIMARY"})
	require.NoError(t, err)
	assert.Equal(t, full.ID, resp.AccountID)
	assert.Equal(t, "K1", resp.Code)
	assert.False(t, resp.Consumed)
	assert.Equal(t, 1, resp.Remaining)
}

func TestAllocateFallsBackToDrainedMediaMatch(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "GT7", map[string]string{"PS5": "GT7-PS5"})
	drained := seedAccount(t, svc, game.ID, "drained@example.com", "SECONDARY", "PS5", nil)

	resp, err := svc.Allocate(ctx, &dto.AllocateRequest{SKU: "GT7-PS5", Media: "SECONDARY"})
	require.NoError(t, err)
	assert.Equal(t, drained.ID, resp.AccountID)
	assert.Empty(t, resp.Code)
	assert.Zero(t, resp.Remaining)
}

func TestAllocateNoAccounts(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "GT7", map[string]string{"PS5": "GT7-PS5"})

	resp, err := svc.Allocate(ctx, &dto.AllocateRequest{SKU: "GT7-PS5", Media: "PRIMARY"})
	require.NoError(t, err)
	assert.Equal(t, game.ID, resp.GameID)
	assert.Empty(t, resp.AccountID)
	assert.Empty(t, resp.Code)
}

func TestAllocateConsume(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "GT7", map[string]string{"PS5": "GT7-PS5"})
	acc := seedAccount(t, svc, game.ID, "acc@example.com", "PRIMARY", "PS5", []string{"K1", "K2"})

	resp, err := svc.Allocate(ctx, &dto.AllocateRequest{SKU: "GT7-PS5", Media: "PRIMARY", Consume: true})
	require.NoError(t, err)
	assert.Equal(t, "K1", resp.Code)
	assert.True(t, resp.Consumed)
	assert.Equal(t, 1, resp.Remaining)

	head, err := svc.PreviewNext(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "K2", head)
}

func TestConsumeBySKUFallsBackToSecondary(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "GT7", map[string]string{"PS5": "GT7-PS5"})
	seedAccount(t, svc, game.ID, "primary@example.com", "PRIMARY", "PS5", nil)
	seedAccount(t, svc, game.ID, "secondary@example.com", "SECONDARY", "PS5", []string{"S1"})

	resp, err := svc.ConsumeBySKU(ctx, "GT7-PS5")
	require.NoError(t, err)
	assert.True(t, resp.Consumed)
	assert.Equal(t, "S1", resp.Code)
	assert.Equal(t, "secondary@example.com", resp.Login)
}

func TestAppendCodesGoToTail(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	game := seedGame(t, svc, "GT7", map[string]string{"PS5": "GT7-PS5"})
	acc := seedAccount(t, svc, game.ID, "acc@example.com", "PRIMARY", "PS5", []string{"A"})

	_, err := svc.AppendCodes(ctx, acc.ID, []string{"B", "C"})
	require.NoError(t, err)

	for _, want := range []string{"A", "B", "C"} {
		code, err := svc.ConsumeNext(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, want, code)
	}
}

func TestListGamesAssignsDisplaySequenceByName(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	seedGame(t, svc, "Zelda", map[string]string{"PS4": "Z-PS4"})
	alpha := seedGame(t, svc, "Alpha", map[string]string{"PS4": "A-PS4"})

	games, err := svc.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Alpha", games[0].Name)
	assert.Equal(t, 1, games[0].Cod)
	assert.Equal(t, "Zelda", games[1].Name)
	assert.Equal(t, 2, games[1].Cod)

	got, err := svc.GetGame(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Cod)
}

func TestCreateGameRejectsDuplicateSKU(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	seedGame(t, svc, "First", map[string]string{"PS4": "DUP-1"})

	_, err := svc.CreateGame(ctx, &dto.GameCreateRequest{Name: "Second", SKUPS5: "DUP-1"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "CONFLICT"))
}

func TestCreateGameRejectsDuplicateSKUWithinGame(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.CreateGame(context.Background(), &dto.GameCreateRequest{
		Name:   "Twins",
		SKUPS4: "SAME-1",
		SKUPS5: "SAME-1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "CONFLICT"))
}

func TestPlatformMedia(t *testing.T) {
	assert.Equal(t, model.MediaPrimary, model.PlatformPS4.Media())
	assert.Equal(t, model.MediaSecondary, model.PlatformPS4s.Media())
	assert.Equal(t, model.MediaPrimary, model.PlatformPS5.Media())
	assert.Equal(t, model.MediaSecondary, model.PlatformPS5s.Media())
}

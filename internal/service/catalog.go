package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zion-admin/internal/dto"
	"zion-admin/internal/model"
	"zion-admin/internal/notify"
	"zion-admin/internal/repository"
	"zion-admin/pkg/apperrors"
)

// CatalogService manages games, accounts and the per-account activation
// code pools, including SKU resolution and code allocation.
type CatalogService interface {
	ListGames(ctx context.Context) ([]*dto.GameResponse, error)
	GetGame(ctx context.Context, id string) (*dto.GameResponse, error)
	CreateGame(ctx context.Context, req *dto.GameCreateRequest) (*dto.GameResponse, error)
	UpdateGame(ctx context.Context, id string, req *dto.GameUpdateRequest) (*dto.GameResponse, error)
	DeleteGame(ctx context.Context, id string) error

	CreateAccount(ctx context.Context, gameID string, req *dto.AccountCreateRequest) (*dto.AccountResponse, error)
	UpdateAccount(ctx context.Context, id string, req *dto.AccountUpdateRequest) (*dto.AccountResponse, error)
	DeleteAccount(ctx context.Context, id string) error
	AppendCodes(ctx context.Context, accountID string, codes []string) (*dto.AccountResponse, error)

	// Resolve maps a SKU to its (game, platform slot). Returns a
	// NOT_FOUND application error when nothing matches; never panics on
	// odd input.
	Resolve(ctx context.Context, sku string) (*dto.ResolveResponse, error)

	// PreviewNext returns the head of an account's pool without
	// mutation; empty string when the pool is empty.
	PreviewNext(ctx context.Context, accountID string) (string, error)
	// ConsumeNext pops the head of an account's pool and decrements the
	// owning game's slot counter; empty string and no mutation when the
	// pool is empty.
	ConsumeNext(ctx context.Context, accountID string) (string, error)

	// Allocate addresses a pool by (SKU, media) and previews or
	// consumes the next code per the account-selection policy.
	Allocate(ctx context.Context, req *dto.AllocateRequest) (*dto.AllocateResponse, error)
	// ConsumeBySKU is the legacy shim: PRIMARY first, then SECONDARY.
	ConsumeBySKU(ctx context.Context, sku string) (*dto.AllocateResponse, error)
}

type catalogServiceImpl struct {
	db          *gorm.DB
	catalogRepo repository.CatalogRepository
	bus         *notify.Bus
}

func NewCatalogService(db *gorm.DB, catalogRepo repository.CatalogRepository, bus *notify.Bus) CatalogService {
	return &catalogServiceImpl{
		db:          db,
		catalogRepo: catalogRepo,
		bus:         bus,
	}
}

// NormalizeSKU trims and strips all internal whitespace. Case is
// preserved: lookups are case-sensitive, applied identically at write
// and read time.
func NormalizeSKU(sku string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, sku)
}

func (s *catalogServiceImpl) ListGames(ctx context.Context) ([]*dto.GameResponse, error) {
	games, err := s.catalogRepo.ListGames(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list games", err)
	}

	out := make([]*dto.GameResponse, len(games))
	for i, g := range games {
		out[i] = gameResponse(g, i+1, true)
	}
	return out, nil
}

func (s *catalogServiceImpl) GetGame(ctx context.Context, id string) (*dto.GameResponse, error) {
	game, err := s.catalogRepo.FindGame(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("game", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load game", err)
	}

	cod, err := s.displaySequence(ctx, game)
	if err != nil {
		return nil, err
	}
	return gameResponse(game, cod, true), nil
}

// displaySequence is the read-time cod projection: position of the game
// in the catalog sorted by name.
func (s *catalogServiceImpl) displaySequence(ctx context.Context, game *model.Game) (int, error) {
	games, err := s.catalogRepo.ListGames(ctx)
	if err != nil {
		return 0, apperrors.Internal("failed to list games", err)
	}
	for i, g := range games {
		if g.ID == game.ID {
			return i + 1, nil
		}
	}
	return len(games) + 1, nil
}

func (s *catalogServiceImpl) CreateGame(ctx context.Context, req *dto.GameCreateRequest) (*dto.GameResponse, error) {
	game := &model.Game{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Price:   req.Price,
		SKUPS4:  NormalizeSKU(req.SKUPS4),
		SKUPS4s: NormalizeSKU(req.SKUPS4s),
		SKUPS5:  NormalizeSKU(req.SKUPS5),
		SKUPS5s: NormalizeSKU(req.SKUPS5s),
		QtyPS4:  req.QtyPS4,
		QtyPS4s: req.QtyPS4s,
		QtyPS5:  req.QtyPS5,
		QtyPS5s: req.QtyPS5s,
	}

	if err := s.checkSKUUnique(ctx, game); err != nil {
		return nil, err
	}

	if err := s.catalogRepo.CreateGame(ctx, game); err != nil {
		return nil, apperrors.Internal("failed to create game", err)
	}
	s.bus.Publish("catalog.changed")

	cod, err := s.displaySequence(ctx, game)
	if err != nil {
		return nil, err
	}
	return gameResponse(game, cod, false), nil
}

func (s *catalogServiceImpl) UpdateGame(ctx context.Context, id string, req *dto.GameUpdateRequest) (*dto.GameResponse, error) {
	game, err := s.catalogRepo.FindGame(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("game", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load game", err)
	}

	if req.Name != nil {
		game.Name = *req.Name
	}
	if req.Price != nil {
		game.Price = *req.Price
	}
	if req.SKUPS4 != nil {
		game.SKUPS4 = NormalizeSKU(*req.SKUPS4)
	}
	if req.SKUPS4s != nil {
		game.SKUPS4s = NormalizeSKU(*req.SKUPS4s)
	}
	if req.SKUPS5 != nil {
		game.SKUPS5 = NormalizeSKU(*req.SKUPS5)
	}
	if req.SKUPS5s != nil {
		game.SKUPS5s = NormalizeSKU(*req.SKUPS5s)
	}
	if req.QtyPS4 != nil {
		game.QtyPS4 = *req.QtyPS4
	}
	if req.QtyPS4s != nil {
		game.QtyPS4s = *req.QtyPS4s
	}
	if req.QtyPS5 != nil {
		game.QtyPS5 = *req.QtyPS5
	}
	if req.QtyPS5s != nil {
		game.QtyPS5s = *req.QtyPS5s
	}

	if err := s.checkSKUUnique(ctx, game); err != nil {
		return nil, err
	}

	game.Accounts = nil // avoid re-saving associations
	if err := s.catalogRepo.SaveGame(ctx, game); err != nil {
		return nil, apperrors.Internal("failed to update game", err)
	}
	s.bus.Publish("catalog.changed")

	return s.GetGame(ctx, id)
}

// checkSKUUnique is a write-time check only; two concurrent writers can
// still race past it, matching the tool's single-operator assumption.
func (s *catalogServiceImpl) checkSKUUnique(ctx context.Context, game *model.Game) error {
	skus := []string{game.SKUPS4, game.SKUPS4s, game.SKUPS5, game.SKUPS5s}
	seen := make(map[string]struct{})
	for _, sku := range skus {
		if sku == "" {
			continue
		}
		if _, dup := seen[sku]; dup {
			return apperrors.Conflict("SKU " + sku + " used twice on the same game")
		}
		seen[sku] = struct{}{}

		inUse, err := s.catalogRepo.SKUInUse(ctx, sku, game.ID)
		if err != nil {
			return apperrors.Internal("failed to check SKU uniqueness", err)
		}
		if inUse {
			return apperrors.Conflict("SKU " + sku + " already in use by another game")
		}
	}
	return nil
}

func (s *catalogServiceImpl) DeleteGame(ctx context.Context, id string) error {
	err := s.catalogRepo.DeleteGame(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("game", err)
	}
	if err != nil {
		return apperrors.Internal("failed to delete game", err)
	}
	s.bus.Publish("catalog.changed")
	return nil
}

func (s *catalogServiceImpl) CreateAccount(ctx context.Context, gameID string, req *dto.AccountCreateRequest) (*dto.AccountResponse, error) {
	if _, err := s.catalogRepo.FindGame(ctx, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("game", err)
		}
		return nil, apperrors.Internal("failed to load game", err)
	}

	account := &model.Account{
		ID:       uuid.NewString(),
		GameID:   gameID,
		Email:    req.Email,
		Nickname: req.Nickname,
		Password: req.Password,
		Media:    model.Media(req.Media),
		Platform: model.Platform(req.Platform),
	}

	if err := s.catalogRepo.CreateAccount(ctx, account); err != nil {
		return nil, apperrors.Internal("failed to create account", err)
	}
	if len(req.Codes) > 0 {
		if err := s.catalogRepo.AppendCodes(ctx, nil, account.ID, req.Codes); err != nil {
			return nil, apperrors.Internal("failed to store codes", err)
		}
	}
	s.bus.Publish("catalog.changed")

	return s.accountResponse(ctx, account.ID)
}

func (s *catalogServiceImpl) UpdateAccount(ctx context.Context, id string, req *dto.AccountUpdateRequest) (*dto.AccountResponse, error) {
	account, err := s.catalogRepo.FindAccount(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("account", err)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load account", err)
	}

	if req.Email != nil {
		account.Email = *req.Email
	}
	if req.Nickname != nil {
		account.Nickname = *req.Nickname
	}
	if req.Password != nil {
		account.Password = *req.Password
	}
	if req.Media != nil {
		account.Media = model.Media(*req.Media)
	}
	if req.Platform != nil {
		account.Platform = model.Platform(*req.Platform)
	}

	account.Codes = nil
	if err := s.catalogRepo.SaveAccount(ctx, account); err != nil {
		return nil, apperrors.Internal("failed to update account", err)
	}
	s.bus.Publish("catalog.changed")

	return s.accountResponse(ctx, id)
}

func (s *catalogServiceImpl) DeleteAccount(ctx context.Context, id string) error {
	err := s.catalogRepo.DeleteAccount(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("account", err)
	}
	if err != nil {
		return apperrors.Internal("failed to delete account", err)
	}
	s.bus.Publish("catalog.changed")
	return nil
}

func (s *catalogServiceImpl) AppendCodes(ctx context.Context, accountID string, codes []string) (*dto.AccountResponse, error) {
	if _, err := s.catalogRepo.FindAccount(ctx, accountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("account", err)
		}
		return nil, apperrors.Internal("failed to load account", err)
	}

	if err := s.catalogRepo.AppendCodes(ctx, nil, accountID, codes); err != nil {
		return nil, apperrors.Internal("failed to store codes", err)
	}
	s.bus.Publish("catalog.changed")

	return s.accountResponse(ctx, accountID)
}

func (s *catalogServiceImpl) Resolve(ctx context.Context, sku string) (*dto.ResolveResponse, error) {
	norm := NormalizeSKU(sku)
	if norm == "" {
		return nil, apperrors.NotFound("sku", nil)
	}

	game, err := s.catalogRepo.FindGameBySKU(ctx, norm)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve sku", err)
	}
	if game == nil {
		return nil, apperrors.NotFound("sku", nil)
	}

	platform := matchSlot(game, norm)
	return &dto.ResolveResponse{
		GameID:   game.ID,
		GameName: game.Name,
		Platform: string(platform),
		SKU:      norm,
	}, nil
}

// matchSlot compares the four slot columns in fixed order; first match
// wins.
func matchSlot(game *model.Game, sku string) model.Platform {
	for _, p := range []model.Platform{model.PlatformPS4, model.PlatformPS4s, model.PlatformPS5, model.PlatformPS5s} {
		if game.SKUFor(p) != "" && game.SKUFor(p) == sku {
			return p
		}
	}
	return model.PlatformPS4
}

func (s *catalogServiceImpl) PreviewNext(ctx context.Context, accountID string) (string, error) {
	if _, err := s.catalogRepo.FindAccount(ctx, accountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound("account", err)
		}
		return "", apperrors.Internal("failed to load account", err)
	}

	head, err := s.catalogRepo.HeadCode(ctx, accountID)
	if err != nil {
		return "", apperrors.Internal("failed to read code pool", err)
	}
	if head == nil {
		return "", nil
	}
	return head.Code, nil
}

func (s *catalogServiceImpl) ConsumeNext(ctx context.Context, accountID string) (string, error) {
	account, err := s.catalogRepo.FindAccount(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.NotFound("account", err)
	}
	if err != nil {
		return "", apperrors.Internal("failed to load account", err)
	}

	var code string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		head, err := s.catalogRepo.PopHead(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if head == nil {
			return nil
		}
		code = head.Code
		return s.catalogRepo.AdjustSlotQty(ctx, tx, account.GameID, account.Platform, -1)
	})
	if err != nil {
		return "", apperrors.Internal("failed to consume code", err)
	}

	if code != "" {
		s.bus.Publish("catalog.changed")
	}
	return code, nil
}

func (s *catalogServiceImpl) Allocate(ctx context.Context, req *dto.AllocateRequest) (*dto.AllocateResponse, error) {
	resolved, err := s.Resolve(ctx, req.SKU)
	if err != nil {
		return nil, err
	}

	game, err := s.catalogRepo.FindGame(ctx, resolved.GameID)
	if err != nil {
		return nil, apperrors.Internal("failed to load game", err)
	}

	resp := &dto.AllocateResponse{
		GameID:   game.ID,
		GameName: game.Name,
		Platform: resolved.Platform,
	}

	account := selectAccount(game.Accounts, model.Media(req.Media))
	if account == nil {
		return resp, nil
	}

	resp.AccountID = account.ID
	resp.Login = account.Email
	resp.Password = account.Password
	resp.Nickname = account.Nickname
	resp.Remaining = len(account.Codes)

	if !req.Consume {
		if len(account.Codes) > 0 {
			resp.Code = account.Codes[0].Code
		}
		return resp, nil
	}

	code, err := s.ConsumeNext(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	resp.Code = code
	if code != "" {
		resp.Consumed = true
		resp.Remaining = len(account.Codes) - 1
	}
	return resp, nil
}

// selectAccount applies the allocation policy: a media match with codes
// left, then any media match, then the first account as a last resort.
func selectAccount(accounts []model.Account, media model.Media) *model.Account {
	for i := range accounts {
		if accounts[i].Media == media && len(accounts[i].Codes) > 0 {
			return &accounts[i]
		}
	}
	for i := range accounts {
		if accounts[i].Media == media {
			return &accounts[i]
		}
	}
	if len(accounts) > 0 {
		return &accounts[0]
	}
	return nil
}

func (s *catalogServiceImpl) ConsumeBySKU(ctx context.Context, sku string) (*dto.AllocateResponse, error) {
	// Legacy callers never supplied a media type; PRIMARY then
	// SECONDARY, first successful consumption wins.
	resp, err := s.Allocate(ctx, &dto.AllocateRequest{SKU: sku, Media: string(model.MediaPrimary), Consume: true})
	if err != nil {
		return nil, err
	}
	if resp.Consumed {
		return resp, nil
	}
	return s.Allocate(ctx, &dto.AllocateRequest{SKU: sku, Media: string(model.MediaSecondary), Consume: true})
}

func (s *catalogServiceImpl) accountResponse(ctx context.Context, id string) (*dto.AccountResponse, error) {
	account, err := s.catalogRepo.FindAccount(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to load account", err)
	}
	return accountResponse(account, true), nil
}

func gameResponse(g *model.Game, cod int, includeAccounts bool) *dto.GameResponse {
	resp := &dto.GameResponse{
		ID:      g.ID,
		Cod:     cod,
		Name:    g.Name,
		Price:   g.Price,
		SKUPS4:  g.SKUPS4,
		SKUPS4s: g.SKUPS4s,
		SKUPS5:  g.SKUPS5,
		SKUPS5s: g.SKUPS5s,
		QtyPS4:  g.QtyPS4,
		QtyPS4s: g.QtyPS4s,
		QtyPS5:  g.QtyPS5,
		QtyPS5s: g.QtyPS5s,
	}
	if includeAccounts {
		accounts := make([]dto.AccountResponse, len(g.Accounts))
		for i := range g.Accounts {
			accounts[i] = *accountResponse(&g.Accounts[i], false)
		}
		sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })
		resp.Accounts = accounts
	}
	return resp
}

func accountResponse(a *model.Account, includeCodes bool) *dto.AccountResponse {
	resp := &dto.AccountResponse{
		ID:        a.ID,
		GameID:    a.GameID,
		Email:     a.Email,
		Nickname:  a.Nickname,
		Media:     string(a.Media),
		Platform:  string(a.Platform),
		CodeCount: len(a.Codes),
	}
	if includeCodes {
		codes := make([]string, len(a.Codes))
		for i, c := range a.Codes {
			codes[i] = c.Code
		}
		resp.Codes = codes
	}
	return resp
}

package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"zion-admin/internal/dto"
	"zion-admin/internal/model"
	"zion-admin/internal/notify"
	"zion-admin/internal/repository"
	"zion-admin/pkg/apperrors"
)

// SnapshotVersion is the current snapshot schema. Version 1 is the
// legacy browser-local layout: a single code string per account and
// boolean platform flags instead of counters.
const SnapshotVersion = 2

// SnapshotService imports and exports the serialized catalog snapshot
// the browser panel used to keep under one local-storage key. Import
// runs a versioned migration once at load; a malformed snapshot fails
// open to an empty catalog instead of propagating an error.
type SnapshotService interface {
	Import(ctx context.Context, raw []byte) (*dto.SnapshotImportResponse, error)
	Export(ctx context.Context) (*Snapshot, error)
}

type Snapshot struct {
	Version int            `json:"version"`
	Games   []SnapshotGame `json:"games"`
}

type SnapshotGame struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`

	SKUPS4  string `json:"sku_ps4,omitempty"`
	SKUPS4s string `json:"sku_ps4s,omitempty"`
	SKUPS5  string `json:"sku_ps5,omitempty"`
	SKUPS5s string `json:"sku_ps5s,omitempty"`

	QtyPS4  int `json:"qty_ps4"`
	QtyPS4s int `json:"qty_ps4s"`
	QtyPS5  int `json:"qty_ps5"`
	QtyPS5s int `json:"qty_ps5s"`

	Accounts []SnapshotAccount `json:"accounts,omitempty"`
}

type SnapshotAccount struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Nickname string   `json:"nick,omitempty"`
	Password string   `json:"password,omitempty"`
	Media    string   `json:"media"`
	Platform string   `json:"platform"`
	Codes    []string `json:"codes"`
}

type snapshotServiceImpl struct {
	db          *gorm.DB
	catalogRepo repository.CatalogRepository
	bus         *notify.Bus
}

func NewSnapshotService(db *gorm.DB, catalogRepo repository.CatalogRepository, bus *notify.Bus) SnapshotService {
	return &snapshotServiceImpl{
		db:          db,
		catalogRepo: catalogRepo,
		bus:         bus,
	}
}

// rawSnapshot tolerates both schema generations; unknown shapes decode
// to zero values and get defaulted.
type rawSnapshot struct {
	Version int               `json:"version"`
	Games   []json.RawMessage `json:"games"`
}

type rawGame struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`

	SKUPS4  string `json:"sku_ps4"`
	SKUPS4s string `json:"sku_ps4s"`
	SKUPS5  string `json:"sku_ps5"`
	SKUPS5s string `json:"sku_ps5s"`

	QtyPS4  json.RawMessage `json:"qty_ps4"`
	QtyPS4s json.RawMessage `json:"qty_ps4s"`
	QtyPS5  json.RawMessage `json:"qty_ps5"`
	QtyPS5s json.RawMessage `json:"qty_ps5s"`

	Accounts []rawAccount `json:"accounts"`
}

type rawAccount struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Nickname string   `json:"nick"`
	Password string   `json:"password"`
	Media    string   `json:"media"`
	Platform string   `json:"platform"`
	Codes    []string `json:"codes"`
	// legacy single-code field
	Code string `json:"code"`
}

func (s *snapshotServiceImpl) Import(ctx context.Context, raw []byte) (*dto.SnapshotImportResponse, error) {
	snapshot, corrupt := migrateSnapshot(raw)
	if corrupt {
		log.Warn().Msg("malformed catalog snapshot; importing empty catalog")
	}

	resp := &dto.SnapshotImportResponse{Version: SnapshotVersion, Corrupt: corrupt}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// full replace: the snapshot is the whole catalog
		if err := tx.Where("1 = 1").Delete(&model.ActivationCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Account{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Game{}).Error; err != nil {
			return err
		}

		for _, sg := range snapshot.Games {
			game := &model.Game{
				ID:      sg.ID,
				Name:    sg.Name,
				Price:   sg.Price,
				SKUPS4:  NormalizeSKU(sg.SKUPS4),
				SKUPS4s: NormalizeSKU(sg.SKUPS4s),
				SKUPS5:  NormalizeSKU(sg.SKUPS5),
				SKUPS5s: NormalizeSKU(sg.SKUPS5s),
				QtyPS4:  sg.QtyPS4,
				QtyPS4s: sg.QtyPS4s,
				QtyPS5:  sg.QtyPS5,
				QtyPS5s: sg.QtyPS5s,
			}
			if err := tx.Create(game).Error; err != nil {
				return err
			}
			resp.Games++

			for _, sa := range sg.Accounts {
				account := &model.Account{
					ID:       sa.ID,
					GameID:   game.ID,
					Email:    sa.Email,
					Nickname: sa.Nickname,
					Password: sa.Password,
					Media:    model.Media(sa.Media),
					Platform: model.Platform(sa.Platform),
				}
				if err := tx.Create(account).Error; err != nil {
					return err
				}
				resp.Accounts++

				if err := s.catalogRepo.AppendCodes(ctx, tx, account.ID, sa.Codes); err != nil {
					return err
				}
				resp.Codes += len(sa.Codes)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal("failed to import snapshot", err)
	}

	s.bus.Publish("catalog.changed")
	return resp, nil
}

// migrateSnapshot upgrades any snapshot generation to the current shape
// in one pass. The second return is true when the payload was
// unreadable and the result is an empty catalog.
func migrateSnapshot(raw []byte) (*Snapshot, bool) {
	var parsed rawSnapshot
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &Snapshot{Version: SnapshotVersion}, true
	}

	out := &Snapshot{Version: SnapshotVersion}
	for _, rawG := range parsed.Games {
		var g rawGame
		if err := json.Unmarshal(rawG, &g); err != nil {
			// skip unreadable entries, keep the rest
			continue
		}

		sg := SnapshotGame{
			ID:      g.ID,
			Name:    g.Name,
			Price:   g.Price,
			SKUPS4:  g.SKUPS4,
			SKUPS4s: g.SKUPS4s,
			SKUPS5:  g.SKUPS5,
			SKUPS5s: g.SKUPS5s,
			QtyPS4:  coerceQty(g.QtyPS4),
			QtyPS4s: coerceQty(g.QtyPS4s),
			QtyPS5:  coerceQty(g.QtyPS5),
			QtyPS5s: coerceQty(g.QtyPS5s),
		}
		if sg.ID == "" {
			sg.ID = uuid.NewString()
		}
		if sg.Name == "" {
			sg.Name = "(unnamed)"
		}

		for _, a := range g.Accounts {
			sa := SnapshotAccount{
				ID:       a.ID,
				Email:    a.Email,
				Nickname: a.Nickname,
				Password: a.Password,
				Media:    a.Media,
				Platform: a.Platform,
				Codes:    a.Codes,
			}
			if sa.ID == "" {
				sa.ID = uuid.NewString()
			}
			if sa.Media == "" {
				sa.Media = string(model.MediaPrimary)
			}
			if !model.Platform(sa.Platform).Valid() {
				sa.Platform = string(model.PlatformPS4)
			}
			// legacy single-code string becomes a one-element pool
			if len(sa.Codes) == 0 && a.Code != "" {
				sa.Codes = []string{a.Code}
			}
			sg.Accounts = append(sg.Accounts, sa)
		}

		out.Games = append(out.Games, sg)
	}
	return out, false
}

// coerceQty accepts current integer counters and the legacy boolean
// platform flags (true -> 1, false -> 0).
func coerceQty(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil && b {
		return 1
	}
	return 0
}

func (s *snapshotServiceImpl) Export(ctx context.Context) (*Snapshot, error) {
	games, err := s.catalogRepo.ListGames(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to export snapshot", err)
	}

	out := &Snapshot{Version: SnapshotVersion, Games: make([]SnapshotGame, len(games))}
	for i, g := range games {
		sg := SnapshotGame{
			ID:      g.ID,
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
		for j := range g.Accounts {
			a := &g.Accounts[j]
			codes := make([]string, len(a.Codes))
			for k, c := range a.Codes {
				codes[k] = c.Code
			}
			sg.Accounts = append(sg.Accounts, SnapshotAccount{
				ID:       a.ID,
				Email:    a.Email,
				Nickname: a.Nickname,
				Password: a.Password,
				Media:    string(a.Media),
				Platform: string(a.Platform),
				Codes:    codes,
			})
		}
		out.Games[i] = sg
	}
	return out, nil
}

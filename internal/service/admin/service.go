package admin

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/bots"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/asset"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/service/market"
	"hearthcoin/internal/service/notify"
	"hearthcoin/internal/service/user"
	"hearthcoin/internal/store"
	"hearthcoin/pkg/crypt"
)

// Service is the operator surface: treasury issue and burn, account
// administration, runtime settings, bot management and the nuclear
// option. Authentication happens at the transport layer.
type Service struct {
	store  *store.Store
	ledger *ledger.Service
	asset  *asset.Service
	market *market.Service
	notify *notify.Service
}

func New(st *store.Store, lg *ledger.Service, as *asset.Service, mk *market.Service, nt *notify.Service) *Service {
	return &Service{store: st, ledger: lg, asset: as, market: mk, notify: nt}
}

// Issue mints currency out of the genesis account into a user account.
func (s *Service) Issue(toKey string, amount float64, note string) error {
	if note == "" {
		note = "Treasury issue"
	}
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		target, err := store.GetUser(tx, toKey)
		if err != nil {
			return err
		}
		if err := s.ledger.SystemTransferTx(tx, model.GenesisAccount, target.PublicKey, amount, note); err != nil {
			return err
		}
		return s.notify.PushTx(tx, target.PublicKey,
			fmt.Sprintf("🎁 You received %.4f from the treasury.", amount))
	})
}

// MultiIssue issues the same amount to several accounts atomically.
// One bad recipient fails the whole batch.
func (s *Service) MultiIssue(toKeys []string, amount float64, note string) (int, error) {
	if note == "" {
		note = "Treasury issue"
	}
	issued := 0
	err := s.store.WithTx(func(tx *sqlx.Tx) error {
		for _, toKey := range toKeys {
			target, err := store.GetUser(tx, toKey)
			if err != nil {
				return fmt.Errorf("%w: %s", err, shortID(toKey))
			}
			if err := s.ledger.SystemTransferTx(tx, model.GenesisAccount, target.PublicKey, amount, note); err != nil {
				return err
			}
			if err := s.notify.PushTx(tx, target.PublicKey,
				fmt.Sprintf("🎁 You received %.4f from the treasury.", amount)); err != nil {
				return err
			}
			issued++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return issued, nil
}

// Burn removes currency from a user account into the burn sink.
func (s *Service) Burn(fromKey string, amount float64, note string) error {
	if note == "" {
		note = "Treasury burn"
	}
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		target, err := store.GetUser(tx, fromKey)
		if err != nil {
			return err
		}
		if err := s.ledger.SystemTransferTx(tx, target.PublicKey, model.BurnAccount, amount, note); err != nil {
			return err
		}
		return s.notify.PushTx(tx, target.PublicKey,
			fmt.Sprintf("🔥 %.4f was removed from your account.", amount))
	})
}

func (s *Service) AdjustQuota(publicKey string, quota int) error {
	if quota < 0 {
		return model.ErrorInvalidAmount
	}
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		return store.SetUserQuota(tx, publicKey, quota)
	})
}

func (s *Service) SetActive(publicKey string, active bool) error {
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		return store.SetUserActive(tx, publicKey, active)
	})
}

// ResetPassword replaces a user's password with a random one and
// returns it in plain text, once, for out-of-band delivery.
func (s *Service) ResetPassword(publicKey string) (string, error) {
	newPassword := model.NewPassword(12)
	hash, err := user.HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		return store.SetUserPassword(tx, publicKey, hash)
	})
	if err != nil {
		return "", err
	}
	return newPassword, nil
}

// MintAsset grants a user a freshly minted asset of any registered type.
func (s *Service) MintAsset(toKey string, assetType string, input map[string]any) (string, error) {
	assetID, err := s.asset.Mint(toKey, assetType, input)
	if err != nil {
		return "", err
	}
	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		return s.notify.PushTx(tx, toKey, "✨ An admin granted you a new item.")
	})
	if err != nil {
		return "", err
	}
	return assetID, nil
}

// Purge erases an account: market state unwound, remaining balance
// burned, assets burned, then the user row and its satellites deleted.
// The transaction log keeps the burn entry as the audit trail.
func (s *Service) Purge(publicKey string) error {
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		target, err := store.GetUser(tx, publicKey)
		if err != nil {
			return err
		}

		if err := s.market.PurgeUserTx(tx, publicKey); err != nil {
			return err
		}

		balance, err := store.GetBalance(tx, publicKey)
		if err != nil {
			return err
		}
		if balance > 0 {
			note := fmt.Sprintf("Account purge: %s", target.Username)
			if err := s.ledger.SystemTransferTx(tx, publicKey, model.BurnAccount, balance, note); err != nil {
				return err
			}
		}

		assets, err := store.AllAssetsByOwner(tx, publicKey)
		if err != nil {
			return err
		}
		for _, a := range assets {
			if a.Status == model.AssetStatusActive {
				if err := store.UpdateAssetStatus(tx, a.ID, model.AssetStatusBurned); err != nil {
					return err
				}
			}
		}

		return store.DeleteUser(tx, publicKey)
	})
}

// Settings returns every runtime setting, falling back to the defaults
// for keys that were never written.
func (s *Service) Settings() (map[string]string, error) {
	out := map[string]string{}
	for key, fallback := range model.DefaultSettings {
		value, err := store.GetSetting(s.store.DB(), key)
		if err != nil {
			return nil, err
		}
		if value == "" {
			value = fallback
		}
		out[key] = value
	}
	return out, nil
}

func (s *Service) UpdateSettings(values map[string]string) error {
	for key := range values {
		if _, ok := model.DefaultSettings[key]; !ok {
			return fmt.Errorf("%w: unknown setting %q", model.ErrorMalformedMessage, key)
		}
	}
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		for key, value := range values {
			if err := store.SetSetting(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) Balances(includeInactive bool, includeBots bool) ([]model.BalanceEntry, error) {
	return store.AllBalances(s.store.DB(), includeInactive, includeBots)
}

func (s *Service) TradeHistory(limit int) ([]model.TradeView, error) {
	return store.TradeHistory(s.store.DB(), limit)
}

// CreateBot spawns an automated account. Bots keep their private key on
// the server so the agent runtime can sign requests on their behalf.
func (s *Service) CreateBot(botType string, initialFunds float64, probability float64) (*model.User, error) {
	spec, err := bots.SpecFor(botType)
	if err != nil {
		return nil, err
	}
	if probability <= 0 || probability > 1 {
		probability = 0.5
	}

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating bot key pair: %w", err)
	}
	hash, err := user.HashPassword(model.NewPassword(16))
	if err != nil {
		return nil, err
	}

	bot := &model.User{
		PublicKey:         pubPEM,
		UID:               fmt.Sprintf("BOT_%04d", rand.Intn(10000)),
		Username:          fmt.Sprintf("BOT_%s_%03d", spec.Prefix, rand.Intn(1000)),
		PasswordHash:      hash,
		CreatedAt:         float64(time.Now().Unix()),
		IsActive:          true,
		InvitedBy:         model.InvitedByBotSystem,
		PrivateKeyPEM:     privPEM,
		IsBot:             true,
		BotType:           botType,
		ActionProbability: probability,
	}

	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		if err := store.CreateUser(tx, bot); err != nil {
			return err
		}
		if initialFunds > 0 {
			if err := s.ledger.SystemTransferTx(tx, model.GenesisAccount, bot.PublicKey, initialFunds, "Bot funding"); err != nil {
				return err
			}
		}
		return store.InsertBotLog(tx, &model.BotLog{
			ID:          model.CreateID(),
			Timestamp:   bot.CreatedAt,
			BotKey:      bot.PublicKey,
			BotUsername: bot.Username,
			ActionType:  "SPAWN",
			Message:     fmt.Sprintf("%s deployed with %.2f funding", spec.Name, initialFunds),
		})
	})
	if err != nil {
		return nil, err
	}
	return bot, nil
}

func (s *Service) Bots(includeInactive bool) ([]model.BotInfo, error) {
	return store.AllBots(s.store.DB(), includeInactive)
}

// SetBotConfig updates a bot's activity flag and action probability.
// Nil fields are left untouched.
func (s *Service) SetBotConfig(publicKey string, active *bool, probability *float64) error {
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		bot, err := store.GetUser(tx, publicKey)
		if err != nil {
			return err
		}
		if !bot.IsBot {
			return fmt.Errorf("%w: not a bot account", model.ErrorUserNotFound)
		}
		if active != nil {
			if err := store.SetUserActive(tx, publicKey, *active); err != nil {
				return err
			}
		}
		if probability != nil {
			if *probability < 0 || *probability > 1 {
				return model.ErrorInvalidAmount
			}
			if err := store.SetBotProbability(tx, publicKey, *probability); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) BotLogs(botKey string, limit int) ([]model.BotLog, error) {
	return store.BotLogs(s.store.DB(), botKey, limit)
}

// Nuke drops and recreates the whole database. Development only.
func (s *Service) Nuke() error {
	return s.store.Nuke()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package asset

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/assetlogic"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/store"
)

// Service owns asset rows and runs per-type actions through the logic
// registry. Priced actions and shop purchases burn their fee in the
// same transaction the action runs in.
type Service struct {
	store  *store.Store
	ledger *ledger.Service
}

func New(st *store.Store, lg *ledger.Service) *Service {
	return &Service{store: st, ledger: lg}
}

func (s *Service) Get(id string) (*model.Asset, error) {
	return store.GetAsset(s.store.DB(), id)
}

func (s *Service) ListByOwner(ownerKey string) ([]model.Asset, error) {
	return store.AssetsByOwner(s.store.DB(), ownerKey)
}

// Mint creates an asset of the given type for a user, via the type's
// own mint validation. Used by the admin surface.
func (s *Service) Mint(toKey string, assetType string, input map[string]any) (string, error) {
	handler, err := assetlogic.Get(assetType)
	if err != nil {
		return "", err
	}

	owner, err := store.GetUser(s.store.DB(), toKey)
	if err != nil {
		return "", err
	}

	data, err := handler.Mint(toKey, owner.Username, input)
	if err != nil {
		return "", err
	}

	asset := &model.Asset{
		ID:        model.CreateID(),
		OwnerKey:  toKey,
		Type:      assetType,
		CreatedAt: float64(time.Now().Unix()),
		Status:    model.AssetStatusActive,
	}
	if err := asset.SetData(data); err != nil {
		return "", fmt.Errorf("encoding asset payload: %w", err)
	}
	if err := store.InsertAsset(s.store.DB(), asset); err != nil {
		return "", err
	}
	return asset.ID, nil
}

// PerformAction runs a signed per-asset action. The generic destroy
// action works on every type; everything else dispatches to the type
// handler inside one transaction.
func (s *Service) PerformAction(ownerKey string, msg *model.AssetActionMessage) (string, error) {
	asset, err := store.GetAsset(s.store.DB(), msg.AssetID)
	if err != nil {
		return "", err
	}
	if asset.OwnerKey != ownerKey {
		return "", model.ErrorNotOwner
	}
	if asset.Status != model.AssetStatusActive {
		return "", model.ErrorAssetNotActive
	}

	if msg.Action == "destroy" {
		err := s.store.WithTx(func(tx *sqlx.Tx) error {
			return store.UpdateAssetStatus(tx, asset.ID, model.AssetStatusDestroyed)
		})
		if err != nil {
			return "", err
		}
		return "The item has been destroyed.", nil
	}

	handler, err := assetlogic.Get(asset.Type)
	if err != nil {
		return "", err
	}
	if err := handler.ValidateAction(asset, msg.Action, msg.ActionData, ownerKey); err != nil {
		return "", err
	}

	var detail string
	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		// reread under the transaction; the precheck ran unlocked
		current, err := store.GetAsset(tx, msg.AssetID)
		if err != nil {
			return err
		}
		if current.OwnerKey != ownerKey || current.Status != model.AssetStatusActive {
			return model.ErrorAssetNotActive
		}

		if cost := handler.ActionCost(current, msg.Action); cost > 0 {
			note := fmt.Sprintf("Action fee: %s on %s", msg.Action, shortID(current.ID))
			if err := s.ledger.SystemTransferTx(tx, ownerKey, model.BurnAccount, cost, note); err != nil {
				return err
			}
		}

		result, err := handler.PerformAction(tx, current, msg.Action, msg.ActionData, ownerKey)
		if err != nil {
			return err
		}

		if err := current.SetData(result.Updated); err != nil {
			return fmt.Errorf("encoding asset payload: %w", err)
		}
		if err := store.UpdateAssetData(tx, current.ID, current.DataJSON, result.NewStatus); err != nil {
			return err
		}

		if result.CurrencyCredit > 0 {
			note := fmt.Sprintf("Yield: %s on %s", msg.Action, shortID(current.ID))
			if err := s.ledger.SystemTransferTx(tx, model.GenesisAccount, ownerKey, result.CurrencyCredit, note); err != nil {
				return err
			}
		}

		detail = result.Detail
		return nil
	})
	if err != nil {
		return "", err
	}
	return detail, nil
}

// ShopCreate pays the configured cost and mints a create-kind shop item.
func (s *Service) ShopCreate(ownerKey string, msg *model.ShopMessage) (string, string, error) {
	handler, config, err := s.shopHandler(msg)
	if err != nil {
		return "", "", err
	}
	if config.ActionKind != assetlogic.ShopActionCreate {
		return "", "", model.ErrorShopConfigMismatch
	}

	owner, err := store.GetUser(s.store.DB(), ownerKey)
	if err != nil {
		return "", "", err
	}

	var assetID string
	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		note := fmt.Sprintf("Shop mint: %s", msg.AssetType)
		if err := s.ledger.SystemTransferTx(tx, ownerKey, model.BurnAccount, msg.Cost, note); err != nil {
			return err
		}

		data, err := handler.Mint(ownerKey, owner.Username, msg.Data)
		if err != nil {
			return err
		}

		asset := &model.Asset{
			ID:        model.CreateID(),
			OwnerKey:  ownerKey,
			Type:      msg.AssetType,
			CreatedAt: float64(time.Now().Unix()),
			Status:    model.AssetStatusActive,
		}
		if err := asset.SetData(data); err != nil {
			return fmt.Errorf("encoding asset payload: %w", err)
		}
		if err := store.InsertAsset(tx, asset); err != nil {
			return err
		}
		assetID = asset.ID
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("You minted a new %s!", config.Name), assetID, nil
}

// ShopAction pays the configured cost and runs a probabilistic shop
// action. The fee is spent whether or not an asset comes out.
func (s *Service) ShopAction(ownerKey string, msg *model.ShopMessage) (string, string, error) {
	handler, config, err := s.shopHandler(msg)
	if err != nil {
		return "", "", err
	}
	if config.ActionKind != assetlogic.ShopActionProbabilistic {
		return "", "", model.ErrorShopConfigMismatch
	}

	owner, err := store.GetUser(s.store.DB(), ownerKey)
	if err != nil {
		return "", "", err
	}

	var detail, assetID string
	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		note := fmt.Sprintf("Shop action: %s", config.Name)
		if err := s.ledger.SystemTransferTx(tx, ownerKey, model.BurnAccount, msg.Cost, note); err != nil {
			return err
		}
		detail, assetID, err = handler.ExecuteShopAction(tx, ownerKey, owner.Username, msg.Data)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return detail, assetID, nil
}

func (s *Service) shopHandler(msg *model.ShopMessage) (assetlogic.Handler, *assetlogic.ShopConfig, error) {
	handler, err := assetlogic.Get(msg.AssetType)
	if err != nil {
		return nil, nil, err
	}
	config := handler.ShopConfig()
	if config == nil || !config.Creatable || config.Cost != msg.Cost {
		return nil, nil, model.ErrorShopConfigMismatch
	}
	return handler, config, nil
}

// DestroyExpired transitions self-expiring assets that are past due.
// Called by the background sweeper.
func (s *Service) DestroyExpired() (int, error) {
	now := float64(time.Now().Unix())
	destroyed := 0

	for _, assetType := range assetlogic.Types() {
		handler, err := assetlogic.Get(assetType)
		if err != nil {
			continue
		}
		expirer, ok := handler.(assetlogic.Expirer)
		if !ok {
			continue
		}

		assets := []model.Asset{}
		err = sqlx.Select(s.store.DB(), &assets,
			"select * from nfts where nft_type = ? and status = 'ACTIVE'", assetType)
		if err != nil {
			return destroyed, fmt.Errorf("listing expirable assets: %w", err)
		}

		for i := range assets {
			a := assets[i]
			if expiry := expirer.ExpiresAt(&a); expiry > 0 && expiry <= now {
				err := s.store.WithTx(func(tx *sqlx.Tx) error {
					return store.UpdateAssetStatus(tx, a.ID, model.AssetStatusDestroyed)
				})
				if err != nil {
					return destroyed, err
				}
				destroyed++
			}
		}
	}
	return destroyed, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

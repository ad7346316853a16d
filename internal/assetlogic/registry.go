package assetlogic

import (
	"sort"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

// ActionResult is what a type handler hands back from PerformAction.
// The caller applies the payload update, the optional status transition
// and the optional currency credit atomically.
type ActionResult struct {
	Updated        map[string]any
	NewStatus      model.AssetStatus
	CurrencyCredit float64
	Detail         string
}

type ShopField struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Kind  string  `json:"kind"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
}

const (
	ShopActionCreate        = "create"
	ShopActionProbabilistic = "probabilistic"
)

type ShopConfig struct {
	Creatable   bool        `json:"creatable"`
	Cost        float64     `json:"cost"`
	Name        string      `json:"name"`
	ActionKind  string      `json:"action_kind"`
	Description string      `json:"description"`
	Fields      []ShopField `json:"fields"`
}

type MintConfig struct {
	HelpText    string `json:"help_text"`
	DefaultJSON string `json:"default_json"`
}

// Handler is the per-type plugin surface. Handlers never open
// transactions; tx-taking methods run inside the caller's.
type Handler interface {
	Type() string
	DisplayName() string

	// Mint validates admin or shop input and returns the stored payload.
	Mint(owner string, ownerName string, input map[string]any) (map[string]any, error)

	ShopConfig() *ShopConfig
	// ExecuteShopAction runs a probabilistic shop purchase inside tx.
	// It may or may not produce an asset; the fee is spent either way.
	ExecuteShopAction(tx *sqlx.Tx, owner string, ownerName string, input map[string]any) (detail string, assetID string, err error)

	ValidateAction(a *model.Asset, action string, input map[string]any, requester string) error
	PerformAction(tx *sqlx.Tx, a *model.Asset, action string, input map[string]any, requester string) (*ActionResult, error)
	// ActionCost is the fee burned before the action runs, 0 for free actions.
	ActionCost(a *model.Asset, action string) float64

	IsTradable(a *model.Asset) error
	TradeDescription(a *model.Asset) string
	AdminMintConfig() MintConfig
}

// Expirer is implemented by types whose assets self-destruct at a
// payload-defined time. The sweeper destroys them once due.
type Expirer interface {
	ExpiresAt(a *model.Asset) float64
}

var handlers = map[string]Handler{}

func Register(h Handler) {
	handlers[h.Type()] = h
}

func Get(assetType string) (Handler, error) {
	h, ok := handlers[assetType]
	if !ok {
		return nil, model.ErrorUnknownAssetType
	}
	return h, nil
}

func Types() []string {
	types := make([]string, 0, len(handlers))
	for t := range handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func DisplayNames() map[string]string {
	names := make(map[string]string, len(handlers))
	for t, h := range handlers {
		names[t] = h.DisplayName()
	}
	return names
}

func ShopConfigs() map[string]*ShopConfig {
	configs := map[string]*ShopConfig{}
	for t, h := range handlers {
		if config := h.ShopConfig(); config != nil && config.Creatable {
			configs[t] = config
		}
	}
	return configs
}

// base supplies the defaults for handlers that have no shop presence,
// no priced actions and no trade restrictions.
type base struct{}

func (base) ShopConfig() *ShopConfig { return nil }

func (base) ExecuteShopAction(tx *sqlx.Tx, owner string, ownerName string, input map[string]any) (string, string, error) {
	return "", "", model.ErrorUnknownAction
}

func (base) ActionCost(a *model.Asset, action string) float64 { return 0 }

func (base) IsTradable(a *model.Asset) error { return nil }

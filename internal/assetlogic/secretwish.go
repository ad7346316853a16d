package assetlogic

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

const TypeSecretWish = "SECRET_WISH"

const (
	wishCost        = 5.0
	wishMinLifetime = 60.0
	wishMaxLifetime = 365 * 86400.0
)

// secretWish is a shop-minted note that destroys itself at a chosen time.
type secretWish struct {
	base
}

func init() {
	Register(&secretWish{})
}

func (h *secretWish) Type() string        { return TypeSecretWish }
func (h *secretWish) DisplayName() string { return "Secret Wish" }

func (h *secretWish) ShopConfig() *ShopConfig {
	return &ShopConfig{
		Creatable:   true,
		Cost:        wishCost,
		Name:        "Secret Wish",
		ActionKind:  ShopActionCreate,
		Description: "Write a wish that burns away on the day you choose.",
		Fields: []ShopField{
			{Name: "description", Label: "Title", Kind: "text"},
			{Name: "content", Label: "Your wish", Kind: "text"},
			{Name: "destroy_in_days", Label: "Days until it burns", Kind: "number", Min: 0.001, Max: 365},
		},
	}
}

func (h *secretWish) Mint(owner string, ownerName string, input map[string]any) (map[string]any, error) {
	content := inputString(input, "content")
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", model.ErrorMalformedMessage)
	}

	days, ok := inputFloat(input, "destroy_in_days")
	if !ok {
		return nil, fmt.Errorf("%w: destroy_in_days is required", model.ErrorMalformedMessage)
	}
	lifetime := days * 86400
	if lifetime < wishMinLifetime {
		lifetime = wishMinLifetime
	}
	if lifetime > wishMaxLifetime {
		lifetime = wishMaxLifetime
	}

	return map[string]any{
		"description": inputString(input, "description"),
		"content":     content,
		"made_by":     ownerName,
		"destroy_at":  float64(time.Now().Unix()) + lifetime,
	}, nil
}

func (h *secretWish) ValidateAction(a *model.Asset, action string, input map[string]any, requester string) error {
	return model.ErrorUnknownAction
}

func (h *secretWish) PerformAction(tx *sqlx.Tx, a *model.Asset, action string, input map[string]any, requester string) (*ActionResult, error) {
	return nil, model.ErrorUnknownAction
}

func (h *secretWish) IsTradable(a *model.Asset) error {
	if float64(time.Now().Unix()) >= dataFloat(a.Data(), "destroy_at") {
		return fmt.Errorf("%w: the wish has expired", model.ErrorAssetNotTradable)
	}
	return nil
}

func (h *secretWish) TradeDescription(a *model.Asset) string {
	description := dataString(a.Data(), "description")
	if description == "" {
		description = "A secret wish"
	}
	return description
}

func (h *secretWish) ExpiresAt(a *model.Asset) float64 {
	return dataFloat(a.Data(), "destroy_at")
}

func (h *secretWish) AdminMintConfig() MintConfig {
	return MintConfig{
		HelpText:    "content holds the wish; destroy_in_days sets its lifetime (clamped between one minute and a year).",
		DefaultJSON: `{"description": "", "content": "", "destroy_in_days": 7}`,
	}
}

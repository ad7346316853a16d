package bots

import (
	"hearthcoin/internal/model"
)

// Spec describes a bot archetype. The type key is stored on the user
// row; the prefix feeds the generated BOT_<PREFIX>_<NNN> username.
type Spec struct {
	Type        string `json:"type"`
	Prefix      string `json:"prefix"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	TypeShopEnthusiast   = "SHOP_ENTHUSIAST"
	TypeBargainHunter    = "BARGAIN_HUNTER"
	TypeSeller           = "SELLER"
	TypePlanetCapitalist = "PLANET_CAPITALIST"
)

var specs = []Spec{
	{
		Type:        TypeShopEnthusiast,
		Prefix:      "SHOPPER",
		Name:        "Shop Enthusiast",
		Description: "Spends its allowance on whatever the shop is selling.",
	},
	{
		Type:        TypeBargainHunter,
		Prefix:      "HUNTER",
		Name:        "Bargain Hunter",
		Description: "Buys cheap sale listings and bids cautiously on auctions.",
	},
	{
		Type:        TypeSeller,
		Prefix:      "TRADER",
		Name:        "Seller",
		Description: "Puts its own items up for sale at a markup.",
	},
	{
		Type:        TypePlanetCapitalist,
		Prefix:      "TYCOON",
		Name:        "Planet Capitalist",
		Description: "Funds deep space surveys and scans whatever it finds.",
	},
}

func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

func SpecFor(botType string) (Spec, error) {
	for _, spec := range specs {
		if spec.Type == botType {
			return spec, nil
		}
	}
	return Spec{}, model.ErrorUnknownBotType
}

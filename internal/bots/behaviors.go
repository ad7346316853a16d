package bots

import (
	"fmt"
	"math/rand"

	"github.com/tidwall/gjson"
)

// Outcome is what a behavior reports back for the bot log. A nil error
// with Skipped set means the bot looked around and chose to do nothing.
type Outcome struct {
	ActionType string
	Message    string
	Skipped    bool
}

type behavior func(c *Client) (*Outcome, error)

var behaviors = map[string]behavior{
	TypeShopEnthusiast:   shopEnthusiast,
	TypeBargainHunter:    bargainHunter,
	TypeSeller:           seller,
	TypePlanetCapitalist: planetCapitalist,
}

func skipped(reason string) *Outcome {
	return &Outcome{ActionType: "IDLE", Message: reason, Skipped: true}
}

// shopEnthusiast buys a random affordable shop entry.
func shopEnthusiast(c *Client) (*Outcome, error) {
	balance, err := c.Balance()
	if err != nil {
		return nil, err
	}
	catalog, err := c.ShopCatalog()
	if err != nil {
		return nil, err
	}

	affordable := []string{}
	for assetType, entry := range catalog {
		if entry.Get("cost").Float() <= balance {
			affordable = append(affordable, assetType)
		}
	}
	if len(affordable) == 0 {
		return skipped("nothing in the shop is affordable"), nil
	}

	assetType := affordable[rand.Intn(len(affordable))]
	entry := catalog[assetType]

	path := "/shop/action"
	if entry.Get("action_kind").String() == "create" {
		path = "/shop/create"
	}
	body := map[string]any{
		"nft_type": assetType,
		"cost":     entry.Get("cost").Float(),
		"data":     defaultShopInput(assetType, entry),
	}
	result, err := c.PostSigned(path, body)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		ActionType: "SHOP",
		Message:    fmt.Sprintf("spent %.2f at the shop: %s", entry.Get("cost").Float(), result.Get("detail").String()),
	}, nil
}

// defaultShopInput fills the form fields a shop entry declares with
// serviceable values.
func defaultShopInput(assetType string, entry gjson.Result) map[string]any {
	input := map[string]any{}
	for _, field := range entry.Get("fields").Array() {
		name := field.Get("name").String()
		switch field.Get("kind").String() {
		case "number":
			low := field.Get("min").Float()
			high := field.Get("max").Float()
			if high <= low {
				high = low + 1
			}
			input[name] = low + rand.Float64()*(high-low)
		default:
			input[name] = fmt.Sprintf("automated %s", name)
		}
	}
	return input
}

// bargainHunter buys the cheapest affordable sale, or places a careful
// auction bid when there is nothing worth buying outright.
func bargainHunter(c *Client) (*Outcome, error) {
	balance, err := c.Balance()
	if err != nil {
		return nil, err
	}

	sales, err := c.Listings("SALE")
	if err != nil {
		return nil, err
	}
	var cheapest *gjson.Result
	for i := range sales {
		price := sales[i].Get("price").Float()
		if price > balance {
			continue
		}
		if cheapest == nil || price < cheapest.Get("price").Float() {
			cheapest = &sales[i]
		}
	}
	if cheapest != nil {
		result, err := c.PostSigned("/market/buy", map[string]any{
			"listing_id": cheapest.Get("listing_id").String(),
		})
		if err != nil {
			return nil, err
		}
		return &Outcome{
			ActionType: "BUY",
			Message: fmt.Sprintf("bought %q for %.2f: %s",
				cheapest.Get("trade_description").String(),
				cheapest.Get("price").Float(),
				result.Get("detail").String()),
		}, nil
	}

	auctions, err := c.Listings("AUCTION")
	if err != nil {
		return nil, err
	}
	for i := range auctions {
		if auctions[i].Get("highest_bidder").String() == c.publicKey {
			continue
		}
		next := auctions[i].Get("highest_bid").Float() + 1
		if start := auctions[i].Get("price").Float(); next < start {
			next = start
		}
		// hunters never commit more than half their funds to one bid
		if next > balance/2 {
			continue
		}
		if _, err := c.PostSigned("/market/bid", map[string]any{
			"listing_id": auctions[i].Get("listing_id").String(),
			"amount":     next,
		}); err != nil {
			return nil, err
		}
		return &Outcome{
			ActionType: "BID",
			Message:    fmt.Sprintf("bid %.2f on %q", next, auctions[i].Get("trade_description").String()),
		}, nil
	}
	return skipped("no bargains on the market"), nil
}

// seller lists one of its items for sale at a modest markup.
func seller(c *Client) (*Outcome, error) {
	assets, err := c.Assets()
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return skipped("nothing to sell"), nil
	}

	item := assets[rand.Intn(len(assets))]
	price := float64(10 + rand.Intn(41))
	result, err := c.PostSigned("/market/create", map[string]any{
		"listing_type": "SALE",
		"nft_id":       item.Get("nft_id").String(),
		"nft_type":     item.Get("nft_type").String(),
		"description":  "Lightly used, one careful owner.",
		"price":        price,
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{
		ActionType: "SELL",
		Message:    fmt.Sprintf("listed a %s for %.2f: %s", item.Get("nft_type").String(), price, result.Get("detail").String()),
	}, nil
}

// planetCapitalist funds surveys and scans any anomalies on the planets
// it already owns.
func planetCapitalist(c *Client) (*Outcome, error) {
	balance, err := c.Balance()
	if err != nil {
		return nil, err
	}
	assets, err := c.Assets()
	if err != nil {
		return nil, err
	}

	// scanning a held anomaly beats gambling on a new survey
	for _, a := range assets {
		if a.Get("nft_type").String() != "PLANET" {
			continue
		}
		if len(a.Get("data.anomalies").Array()) == 0 {
			continue
		}
		if balance < 5 {
			break
		}
		result, err := c.PostSigned("/nft/action", map[string]any{
			"nft_id": a.Get("nft_id").String(),
			"action": "scan",
		})
		if err != nil {
			return nil, err
		}
		return &Outcome{
			ActionType: "SCAN",
			Message:    fmt.Sprintf("scanned %s: %s", a.Get("data.name").String(), result.Get("detail").String()),
		}, nil
	}

	catalog, err := c.ShopCatalog()
	if err != nil {
		return nil, err
	}
	survey, ok := catalog["PLANET"]
	if !ok || survey.Get("cost").Float() > balance {
		return skipped("cannot afford a survey"), nil
	}
	result, err := c.PostSigned("/shop/action", map[string]any{
		"nft_type": "PLANET",
		"cost":     survey.Get("cost").Float(),
		"data":     map[string]any{},
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{
		ActionType: "SURVEY",
		Message:    fmt.Sprintf("funded a survey: %s", result.Get("detail").String()),
	}, nil
}

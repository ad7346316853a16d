package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"hearthcoin/internal/gate"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/market"
	"hearthcoin/pkg/message"
)

type MarketService interface {
	CreateListing(listerKey string, msg *model.CreateListingMessage) (string, error)
	CancelListing(listerKey string, listingID string) (string, error)
	Buy(buyerKey string, listingID string) (string, error)
	PlaceBid(bidderKey string, listingID string, amount float64) (string, error)
	MakeOffer(offererKey string, msg *model.MakeOfferMessage) (string, error)
	RespondOffer(seekerKey string, offerID string, accept bool) (string, error)
	Listings(kind model.ListingKind, excludeOwner string, searchTerm string) ([]model.ListingView, error)
	ListingDetails(id string) (*model.Listing, error)
	Offers(listingID string) ([]model.OfferView, error)
	Bids(listingID string) ([]model.BidView, error)
	MyActivity(userKey string) (*market.Activity, error)
	TradeHistory(limit int) ([]model.TradeView, error)
}

func Listings(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		kind := model.ListingKind(c.QueryParam("type"))
		listings, err := markets.Listings(kind, c.QueryParam("exclude"), c.QueryParam("search"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"listings": listings})
	}
}

func ListingDetails(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		listing, err := markets.ListingDetails(c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(200, listing)
	}
}

func ListingOffers(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		offers, err := markets.Offers(c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"offers": offers})
	}
}

func ListingBids(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		bids, err := markets.Bids(c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"bids": bids})
	}
}

func CreateListing(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.CreateListingMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, err := markets.CreateListing(ownerKey, msg)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func CancelListing(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.ListingActionMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, err := markets.CancelListing(ownerKey, msg.ListingID)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func BuyListing(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.ListingActionMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, err := markets.Buy(ownerKey, msg.ListingID)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func PlaceBid(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.BidMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, err := markets.PlaceBid(ownerKey, msg.ListingID, msg.Amount)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func MakeOffer(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.MakeOfferMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, err := markets.MakeOffer(ownerKey, msg)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func RespondOffer(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.RespondOfferMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, err := markets.RespondOffer(ownerKey, msg.OfferID, msg.Accept)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func MarketActivity(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		activity, err := markets.MyActivity(c.Param("key"))
		if err != nil {
			return err
		}
		return c.JSON(200, activity)
	}
}

func MarketHistory(markets MarketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		history, err := markets.TradeHistory(limit)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"history": history})
	}
}

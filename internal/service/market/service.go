package market

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/assetlogic"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/service/notify"
	"hearthcoin/internal/store"
)

// Service runs the marketplace: fixed price sales, timed auctions and
// wanted listings, all with escrow. Every mutation is one transaction;
// escrowed assets belong to the ESCROW account while a listing is ACTIVE.
type Service struct {
	store  *store.Store
	ledger *ledger.Service
	notify *notify.Service
}

func New(st *store.Store, lg *ledger.Service, nt *notify.Service) *Service {
	return &Service{store: st, ledger: lg, notify: nt}
}

// validateAssetForTrade checks the common preconditions for putting an
// asset on the market: it exists, is ACTIVE, belongs to the expected
// owner and its type agrees to trade it.
func validateAssetForTrade(q sqlx.Ext, assetID string, ownerKey string) (*model.Asset, error) {
	asset, err := store.GetAsset(q, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != model.AssetStatusActive {
		return nil, model.ErrorAssetNotActive
	}
	if asset.OwnerKey != ownerKey {
		return nil, model.ErrorNotOwner
	}
	handler, err := assetlogic.Get(asset.Type)
	if err != nil {
		return nil, err
	}
	if err := handler.IsTradable(asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *Service) CreateListing(listerKey string, msg *model.CreateListingMessage) (string, error) {
	kind := model.ListingKind(msg.ListingType)
	now := float64(time.Now().Unix())

	listing := &model.Listing{
		ID:          model.CreateID(),
		ListerKey:   listerKey,
		Kind:        kind,
		AssetType:   msg.AssetType,
		Description: msg.Description,
		Price:       msg.Price,
		Status:      model.ListingStatusActive,
		CreatedAt:   now,
	}

	switch kind {
	case model.ListingKindSale, model.ListingKindAuction:
		if msg.AssetID == "" {
			return "", fmt.Errorf("%w: nft_id is required", model.ErrorMalformedMessage)
		}
		if msg.Price <= 0 {
			return "", model.ErrorInvalidAmount
		}
		if kind == model.ListingKindAuction {
			if msg.AuctionHours <= 0 {
				return "", fmt.Errorf("%w: auction_hours is required", model.ErrorMalformedMessage)
			}
			listing.EndTime = now + msg.AuctionHours*3600
		}
		listing.AssetID = msg.AssetID

		err := s.store.WithTx(func(tx *sqlx.Tx) error {
			asset, err := validateAssetForTrade(tx, msg.AssetID, listerKey)
			if err != nil {
				return err
			}
			listing.AssetType = asset.Type
			if err := store.UpdateAssetOwner(tx, asset.ID, model.EscrowAccount); err != nil {
				return err
			}
			return store.InsertListing(tx, listing)
		})
		if err != nil {
			return "", err
		}
		return "Listing created. The item is held in escrow until it sells.", nil

	case model.ListingKindSeek:
		if msg.Price <= 0 {
			return "", model.ErrorInvalidAmount
		}
		err := s.store.WithTx(func(tx *sqlx.Tx) error {
			note := fmt.Sprintf("Escrow hold: seeking %s", msg.AssetType)
			if err := s.ledger.SystemTransferTx(tx, listerKey, model.EscrowAccount, msg.Price, note); err != nil {
				return err
			}
			return store.InsertListing(tx, listing)
		})
		if err != nil {
			return "", err
		}
		return "Seek posted. The budget is held in escrow until it is fulfilled.", nil
	}

	return "", fmt.Errorf("%w: unknown listing type %q", model.ErrorMalformedMessage, msg.ListingType)
}

func (s *Service) CancelListing(listerKey string, listingID string) (string, error) {
	err := s.store.WithTx(func(tx *sqlx.Tx) error {
		listing, err := store.GetListing(tx, listingID)
		if err != nil {
			return err
		}
		if listing.ListerKey != listerKey {
			return model.ErrorNotOwner
		}
		if listing.Status != model.ListingStatusActive {
			return model.ErrorListingNotActive
		}
		return s.cancelTx(tx, listing)
	})
	if err != nil {
		return "", err
	}
	return "Listing cancelled.", nil
}

// cancelTx unwinds an ACTIVE listing inside the caller's transaction:
// escrowed assets go back to the lister, escrowed seek funds are
// refunded. Auctions with bids cannot be cancelled.
func (s *Service) cancelTx(tx *sqlx.Tx, listing *model.Listing) error {
	switch listing.Kind {
	case model.ListingKindSale, model.ListingKindAuction:
		if listing.Kind == model.ListingKindAuction && listing.HighestBidder != "" {
			return fmt.Errorf("%w: the auction already has bids", model.ErrorListingNotActive)
		}
		if err := store.UpdateAssetOwner(tx, listing.AssetID, listing.ListerKey); err != nil {
			return err
		}

	case model.ListingKindSeek:
		offers, err := store.OffersForListing(tx, listing.ID)
		if err != nil {
			return err
		}
		for _, offer := range offers {
			if offer.Status == model.OfferStatusAccepted {
				return model.ErrorAcceptedOfferExists
			}
		}
		note := fmt.Sprintf("Escrow refund: seek cancelled (%s)", shortID(listing.ID))
		if err := s.ledger.SystemTransferTx(tx, model.EscrowAccount, listing.ListerKey, listing.Price, note); err != nil {
			return err
		}
	}
	return store.UpdateListingStatus(tx, listing.ID, model.ListingStatusCancelled)
}

// Buy concludes a SALE listing. Concurrent buyers serialize on the
// transaction; the loser sees a non-ACTIVE listing and fails.
func (s *Service) Buy(buyerKey string, listingID string) (string, error) {
	var detail string
	err := s.store.WithTx(func(tx *sqlx.Tx) error {
		listing, err := store.GetListing(tx, listingID)
		if err != nil {
			return err
		}
		if listing.Kind != model.ListingKindSale {
			return fmt.Errorf("%w: not a sale listing", model.ErrorMalformedMessage)
		}
		if listing.Status != model.ListingStatusActive {
			return model.ErrorListingNotActive
		}
		if listing.ListerKey == buyerKey {
			return model.ErrorOwnListing
		}

		note := fmt.Sprintf("Market sale: %s", shortID(listing.AssetID))
		if err := s.ledger.SystemTransferTx(tx, buyerKey, listing.ListerKey, listing.Price, note); err != nil {
			return err
		}
		if err := store.UpdateAssetOwner(tx, listing.AssetID, buyerKey); err != nil {
			return err
		}
		if err := store.UpdateListingStatus(tx, listing.ID, model.ListingStatusSold); err != nil {
			return err
		}
		if err := s.recordTrade(tx, listing, listing.ListerKey, buyerKey, listing.Price); err != nil {
			return err
		}

		buyerName := username(tx, buyerKey)
		if err := s.notify.PushTx(tx, listing.ListerKey,
			fmt.Sprintf("💰 Your listing sold to %s for %.4f.", buyerName, listing.Price)); err != nil {
			return err
		}
		if err := s.notify.PushTx(tx, buyerKey,
			fmt.Sprintf("🛍️ You bought %s for %.4f.", shortID(listing.AssetID), listing.Price)); err != nil {
			return err
		}
		detail = "Purchase complete."
		return nil
	})
	if err != nil {
		return "", err
	}
	return detail, nil
}

func (s *Service) PlaceBid(bidderKey string, listingID string, amount float64) (string, error) {
	err := s.store.WithTx(func(tx *sqlx.Tx) error {
		listing, err := store.GetListing(tx, listingID)
		if err != nil {
			return err
		}
		if listing.Kind != model.ListingKindAuction {
			return fmt.Errorf("%w: not an auction", model.ErrorMalformedMessage)
		}
		if listing.Status != model.ListingStatusActive {
			return model.ErrorListingNotActive
		}
		if listing.ListerKey == bidderKey {
			return model.ErrorOwnListing
		}
		now := float64(time.Now().Unix())
		if now >= listing.EndTime {
			return model.ErrorAuctionEnded
		}

		if amount <= listing.HighestBid {
			return fmt.Errorf("%w: bid must exceed %.4f", model.ErrorBidTooLow, listing.HighestBid)
		}
		if listing.HighestBid == 0 && amount < listing.Price {
			return fmt.Errorf("%w: first bid must be at least the starting price %.4f",
				model.ErrorBidTooLow, listing.Price)
		}

		balance, err := store.GetBalance(tx, bidderKey)
		if err != nil {
			return err
		}
		if balance < amount {
			return model.ErrorInsufficientFunds
		}

		// refund the superseded bidder in the same transaction
		if listing.HighestBidder != "" {
			note := fmt.Sprintf("Outbid refund: %s", shortID(listing.ID))
			if err := s.ledger.SystemTransferTx(tx, model.EscrowAccount, listing.HighestBidder, listing.HighestBid, note); err != nil {
				return err
			}
			if err := s.notify.PushTx(tx, listing.HighestBidder,
				fmt.Sprintf("📢 You were outbid. Your %.4f has been refunded.", listing.HighestBid)); err != nil {
				return err
			}
		}

		note := fmt.Sprintf("Escrow hold: bid on %s", shortID(listing.ID))
		if err := s.ledger.SystemTransferTx(tx, bidderKey, model.EscrowAccount, amount, note); err != nil {
			return err
		}

		if err := store.InsertBid(tx, &model.Bid{
			ID:        model.CreateID(),
			ListingID: listing.ID,
			BidderKey: bidderKey,
			Amount:    amount,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := store.UpdateListingBid(tx, listing.ID, bidderKey, amount); err != nil {
			return err
		}

		return s.notify.PushTx(tx, listing.ListerKey,
			fmt.Sprintf("🔨 New top bid of %.4f on your auction.", amount))
	})
	if err != nil {
		return "", err
	}
	return "Bid placed.", nil
}

// ResolveFinishedAuctions settles every expired ACTIVE auction, each in
// its own transaction. A second run finds nothing to do.
func (s *Service) ResolveFinishedAuctions() (int, error) {
	now := float64(time.Now().Unix())
	expired, err := store.ExpiredAuctions(s.store.DB(), now)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, stale := range expired {
		id := stale.ID
		err := s.store.WithTx(func(tx *sqlx.Tx) error {
			listing, err := store.GetListing(tx, id)
			if err != nil {
				return err
			}
			if listing.Status != model.ListingStatusActive || listing.EndTime >= now {
				return nil
			}

			if listing.HighestBidder == "" {
				if err := store.UpdateAssetOwner(tx, listing.AssetID, listing.ListerKey); err != nil {
					return err
				}
				if err := store.UpdateListingStatus(tx, listing.ID, model.ListingStatusExpired); err != nil {
					return err
				}
				return s.notify.PushTx(tx, listing.ListerKey,
					"⌛ Your auction ended with no bids. The item has been returned.")
			}

			note := fmt.Sprintf("Auction settled: %s", shortID(listing.ID))
			if err := s.ledger.SystemTransferTx(tx, model.EscrowAccount, listing.ListerKey, listing.HighestBid, note); err != nil {
				return err
			}
			if err := store.UpdateAssetOwner(tx, listing.AssetID, listing.HighestBidder); err != nil {
				return err
			}
			if err := store.UpdateListingStatus(tx, listing.ID, model.ListingStatusSold); err != nil {
				return err
			}
			if err := s.recordTrade(tx, listing, listing.ListerKey, listing.HighestBidder, listing.HighestBid); err != nil {
				return err
			}

			if err := s.notify.PushTx(tx, listing.ListerKey,
				fmt.Sprintf("🔨 Your auction sold for %.4f.", listing.HighestBid)); err != nil {
				return err
			}
			return s.notify.PushTx(tx, listing.HighestBidder,
				fmt.Sprintf("🏆 You won the auction for %.4f!", listing.HighestBid))
		})
		if err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

func (s *Service) MakeOffer(offererKey string, msg *model.MakeOfferMessage) (string, error) {
	err := s.store.WithTx(func(tx *sqlx.Tx) error {
		listing, err := store.GetListing(tx, msg.ListingID)
		if err != nil {
			return err
		}
		if listing.Kind != model.ListingKindSeek {
			return fmt.Errorf("%w: not a seek listing", model.ErrorMalformedMessage)
		}
		if listing.Status != model.ListingStatusActive {
			return model.ErrorListingNotActive
		}
		if listing.ListerKey == offererKey {
			return model.ErrorOwnListing
		}

		asset, err := validateAssetForTrade(tx, msg.OfferedAssetID, offererKey)
		if err != nil {
			return err
		}
		if asset.Type != listing.AssetType {
			return model.ErrorOfferTypeMismatch
		}

		existing, err := store.GetOfferByAsset(tx, listing.ID, offererKey, asset.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.ErrorDuplicateOffer
		}

		if err := store.InsertOffer(tx, &model.Offer{
			ID:             model.CreateID(),
			ListingID:      listing.ID,
			OffererKey:     offererKey,
			OfferedAssetID: asset.ID,
			Status:         model.OfferStatusPending,
			CreatedAt:      float64(time.Now().Unix()),
		}); err != nil {
			return err
		}

		return s.notify.PushTx(tx, listing.ListerKey,
			fmt.Sprintf("📬 %s offered an item on your seek.", username(tx, offererKey)))
	})
	if err != nil {
		return "", err
	}
	return "Offer submitted.", nil
}

func (s *Service) RespondOffer(seekerKey string, offerID string, accept bool) (string, error) {
	var detail string
	err := s.store.WithTx(func(tx *sqlx.Tx) error {
		offer, err := store.GetOffer(tx, offerID)
		if err != nil {
			return err
		}
		if offer.Status != model.OfferStatusPending {
			return model.ErrorOfferNotPending
		}

		listing, err := store.GetListing(tx, offer.ListingID)
		if err != nil {
			return err
		}
		if listing.ListerKey != seekerKey {
			return model.ErrorNotOwner
		}
		if listing.Status != model.ListingStatusActive {
			return model.ErrorListingNotActive
		}

		if !accept {
			if err := store.UpdateOfferStatus(tx, offer.ID, model.OfferStatusRejected); err != nil {
				return err
			}
			if err := s.notify.PushTx(tx, offer.OffererKey, "❌ Your offer was declined."); err != nil {
				return err
			}
			detail = "Offer declined."
			return nil
		}

		// the offered asset must still be in the offerer's hands
		asset, err := validateAssetForTrade(tx, offer.OfferedAssetID, offer.OffererKey)
		if err != nil {
			return err
		}

		note := fmt.Sprintf("Seek fulfilled: %s", shortID(listing.ID))
		if err := s.ledger.SystemTransferTx(tx, model.EscrowAccount, offer.OffererKey, listing.Price, note); err != nil {
			return err
		}
		if err := store.UpdateAssetOwner(tx, asset.ID, seekerKey); err != nil {
			return err
		}
		if err := store.UpdateOfferStatus(tx, offer.ID, model.OfferStatusAccepted); err != nil {
			return err
		}
		if err := store.UpdateListingStatus(tx, listing.ID, model.ListingStatusFulfilled); err != nil {
			return err
		}
		if err := store.RejectOtherPendingOffers(tx, listing.ID, offer.ID); err != nil {
			return err
		}

		fulfilled := *listing
		fulfilled.AssetID = asset.ID
		fulfilled.AssetType = asset.Type
		if err := s.recordTrade(tx, &fulfilled, offer.OffererKey, seekerKey, listing.Price); err != nil {
			return err
		}

		if err := s.notify.PushTx(tx, offer.OffererKey,
			fmt.Sprintf("🤝 Your offer was accepted. You received %.4f.", listing.Price)); err != nil {
			return err
		}
		if err := s.notify.PushTx(tx, seekerKey, "🤝 Your seek has been fulfilled."); err != nil {
			return err
		}
		detail = "Offer accepted."
		return nil
	})
	if err != nil {
		return "", err
	}
	return detail, nil
}

// PurgeUserTx unwinds a departing user's market state inside the
// caller's transaction. Their active listings are cancelled, auction
// bidders refunded, pending offers on those listings rejected and
// their own pending offers withdrawn. Assets and funds land back on
// the departing account so the caller can dispose of them.
func (s *Service) PurgeUserTx(tx *sqlx.Tx, userKey string) error {
	listings, err := store.ActiveListingsBy(tx, userKey)
	if err != nil {
		return err
	}
	for i := range listings {
		listing := &listings[i]
		switch listing.Kind {
		case model.ListingKindSale, model.ListingKindAuction:
			if listing.HighestBidder != "" {
				note := fmt.Sprintf("Bid refund: auction withdrawn (%s)", shortID(listing.ID))
				if err := s.ledger.SystemTransferTx(tx, model.EscrowAccount, listing.HighestBidder, listing.HighestBid, note); err != nil {
					return err
				}
				if err := s.notify.PushTx(tx, listing.HighestBidder,
					fmt.Sprintf("📢 An auction you bid on was withdrawn. Your %.4f has been refunded.", listing.HighestBid)); err != nil {
					return err
				}
			}
			if err := store.UpdateAssetOwner(tx, listing.AssetID, userKey); err != nil {
				return err
			}
		case model.ListingKindSeek:
			note := fmt.Sprintf("Escrow refund: seek withdrawn (%s)", shortID(listing.ID))
			if err := s.ledger.SystemTransferTx(tx, model.EscrowAccount, userKey, listing.Price, note); err != nil {
				return err
			}
		}
		if err := store.RejectOtherPendingOffers(tx, listing.ID, ""); err != nil {
			return err
		}
		if err := store.UpdateListingStatus(tx, listing.ID, model.ListingStatusCancelled); err != nil {
			return err
		}
	}
	return store.DeleteOffersBy(tx, userKey)
}

func (s *Service) recordTrade(tx *sqlx.Tx, listing *model.Listing, seller, buyer string, price float64) error {
	return store.InsertTrade(tx, &model.Trade{
		ID:        model.CreateID(),
		ListingID: listing.ID,
		AssetID:   listing.AssetID,
		AssetType: listing.AssetType,
		TradeType: string(listing.Kind),
		SellerKey: seller,
		BuyerKey:  buyer,
		Price:     price,
		Timestamp: float64(time.Now().Unix()),
	})
}

// --- reads ---

func (s *Service) Listings(kind model.ListingKind, excludeOwner string, searchTerm string) ([]model.ListingView, error) {
	listings, err := store.ActiveListings(s.store.DB(), kind, excludeOwner, searchTerm)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		listings[i].TradeDescription = tradeDescription(
			listings[i].AssetType, listings[i].AssetData, listings[i].Description)
	}
	return listings, nil
}

func (s *Service) ListingDetails(id string) (*model.Listing, error) {
	return store.GetListing(s.store.DB(), id)
}

func (s *Service) Offers(listingID string) ([]model.OfferView, error) {
	offers, err := store.OffersForListing(s.store.DB(), listingID)
	if err != nil {
		return nil, err
	}
	for i := range offers {
		offers[i].TradeDescription = tradeDescription(
			offers[i].AssetType, offers[i].AssetData, shortID(offers[i].OfferedAssetID))
	}
	return offers, nil
}

func (s *Service) Bids(listingID string) ([]model.BidView, error) {
	return store.BidsForListing(s.store.DB(), listingID)
}

type Activity struct {
	Listings []model.Listing `json:"listings"`
	Offers   []model.Offer   `json:"offers"`
}

func (s *Service) MyActivity(userKey string) (*Activity, error) {
	listings, err := store.ListingsBy(s.store.DB(), userKey)
	if err != nil {
		return nil, err
	}
	offers, err := store.PendingOffersBy(s.store.DB(), userKey)
	if err != nil {
		return nil, err
	}
	return &Activity{Listings: listings, Offers: offers}, nil
}

func (s *Service) TradeHistory(limit int) ([]model.TradeView, error) {
	return store.TradeHistory(s.store.DB(), limit)
}

func tradeDescription(assetType string, dataJSON string, fallback string) string {
	if dataJSON == "" {
		return fallback
	}
	handler, err := assetlogic.Get(assetType)
	if err != nil {
		return fallback
	}
	return handler.TradeDescription(&model.Asset{Type: assetType, DataJSON: dataJSON})
}

func username(q sqlx.Ext, publicKey string) string {
	user, err := store.GetUser(q, publicKey)
	if err != nil {
		return shortID(publicKey)
	}
	return user.Username
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

func InsertListing(q sqlx.Ext, l *model.Listing) error {
	_, err := q.Exec(`insert into market_listings
		(listing_id, lister_key, listing_type, nft_id, nft_type, description,
		 price, end_time, status, highest_bidder, highest_bid, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ListerKey, l.Kind, l.AssetID, l.AssetType, l.Description,
		l.Price, l.EndTime, l.Status, l.HighestBidder, l.HighestBid, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting listing: %w", err)
	}
	return nil
}

func GetListing(q sqlx.Ext, id string) (*model.Listing, error) {
	listing := &model.Listing{}
	err := sqlx.Get(q, listing, "select * from market_listings where listing_id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorListingNotFound
		}
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	return listing, nil
}

func UpdateListingStatus(q sqlx.Ext, id string, status model.ListingStatus) error {
	_, err := q.Exec("update market_listings set status = ? where listing_id = ?", status, id)
	if err != nil {
		return fmt.Errorf("updating listing status: %w", err)
	}
	return nil
}

func UpdateListingBid(q sqlx.Ext, id string, bidder string, amount float64) error {
	_, err := q.Exec(
		"update market_listings set highest_bidder = ?, highest_bid = ? where listing_id = ?",
		bidder, amount, id)
	if err != nil {
		return fmt.Errorf("updating listing bid: %w", err)
	}
	return nil
}

// ActiveListings lists ACTIVE listings of one kind for display, newest
// first, joined with lister identity and the escrowed asset payload.
func ActiveListings(q sqlx.Ext, kind model.ListingKind, excludeOwner string, searchTerm string) ([]model.ListingView, error) {
	query := `select l.*, u.username as lister_username, u.uid as lister_uid,
			coalesce(n.data, '') as nft_data
		from market_listings l
		join users u on u.public_key = l.lister_key
		left join nfts n on n.nft_id = l.nft_id
		where l.status = 'ACTIVE' and l.listing_type = ?`
	args := []any{kind}
	if excludeOwner != "" {
		query += " and l.lister_key != ?"
		args = append(args, excludeOwner)
	}
	if searchTerm != "" {
		query += " and (l.description like ? or l.nft_type like ?)"
		pattern := "%" + searchTerm + "%"
		args = append(args, pattern, pattern)
	}
	query += " order by l.created_at desc"

	listings := []model.ListingView{}
	if err := sqlx.Select(q, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("listing market listings: %w", err)
	}
	return listings, nil
}

func ListingsBy(q sqlx.Ext, listerKey string) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := sqlx.Select(q, &listings,
		"select * from market_listings where lister_key = ? order by created_at desc", listerKey)
	if err != nil {
		return nil, fmt.Errorf("listing own listings: %w", err)
	}
	return listings, nil
}

func ActiveListingsBy(q sqlx.Ext, listerKey string) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := sqlx.Select(q, &listings,
		`select * from market_listings where lister_key = ? and status = 'ACTIVE'
		 order by created_at desc`, listerKey)
	if err != nil {
		return nil, fmt.Errorf("listing active listings: %w", err)
	}
	return listings, nil
}

// ExpiredAuctions returns ACTIVE auctions whose end time has passed.
func ExpiredAuctions(q sqlx.Ext, now float64) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := sqlx.Select(q, &listings,
		`select * from market_listings
		 where listing_type = 'AUCTION' and status = 'ACTIVE' and end_time < ?`, now)
	if err != nil {
		return nil, fmt.Errorf("listing expired auctions: %w", err)
	}
	return listings, nil
}

// --- offers ---

func InsertOffer(q sqlx.Ext, o *model.Offer) error {
	_, err := q.Exec(`insert into market_offers
		(offer_id, listing_id, offerer_key, offered_nft_id, status, created_at)
		values (?, ?, ?, ?, ?, ?)`,
		o.ID, o.ListingID, o.OffererKey, o.OfferedAssetID, o.Status, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting offer: %w", err)
	}
	return nil
}

func GetOffer(q sqlx.Ext, id string) (*model.Offer, error) {
	offer := &model.Offer{}
	err := sqlx.Get(q, offer, "select * from market_offers where offer_id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorOfferNotFound
		}
		return nil, fmt.Errorf("fetching offer: %w", err)
	}
	return offer, nil
}

func GetOfferByAsset(q sqlx.Ext, listingID string, offererKey string, assetID string) (*model.Offer, error) {
	offer := &model.Offer{}
	err := sqlx.Get(q, offer,
		`select * from market_offers
		 where listing_id = ? and offerer_key = ? and offered_nft_id = ?`,
		listingID, offererKey, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching offer: %w", err)
	}
	return offer, nil
}

func UpdateOfferStatus(q sqlx.Ext, id string, status model.OfferStatus) error {
	_, err := q.Exec("update market_offers set status = ? where offer_id = ?", status, id)
	if err != nil {
		return fmt.Errorf("updating offer status: %w", err)
	}
	return nil
}

// RejectOtherPendingOffers rejects every PENDING offer on a listing
// except the one named.
func RejectOtherPendingOffers(q sqlx.Ext, listingID string, exceptID string) error {
	_, err := q.Exec(`update market_offers set status = 'REJECTED'
		where listing_id = ? and offer_id != ? and status = 'PENDING'`, listingID, exceptID)
	if err != nil {
		return fmt.Errorf("rejecting pending offers: %w", err)
	}
	return nil
}

func OffersForListing(q sqlx.Ext, listingID string) ([]model.OfferView, error) {
	offers := []model.OfferView{}
	err := sqlx.Select(q, &offers,
		`select o.*, u.username as offerer_username, u.uid as offerer_uid,
			coalesce(n.nft_type, '') as nft_type, coalesce(n.data, '') as nft_data
		 from market_offers o
		 join users u on u.public_key = o.offerer_key
		 left join nfts n on n.nft_id = o.offered_nft_id
		 where o.listing_id = ? order by o.created_at desc`, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	return offers, nil
}

func PendingOffersBy(q sqlx.Ext, offererKey string) ([]model.Offer, error) {
	offers := []model.Offer{}
	err := sqlx.Select(q, &offers,
		"select * from market_offers where offerer_key = ? and status = 'PENDING'", offererKey)
	if err != nil {
		return nil, fmt.Errorf("listing pending offers: %w", err)
	}
	return offers, nil
}

func DeleteOffersBy(q sqlx.Ext, offererKey string) error {
	_, err := q.Exec("delete from market_offers where offerer_key = ?", offererKey)
	if err != nil {
		return fmt.Errorf("deleting offers: %w", err)
	}
	return nil
}

// --- bids ---

func InsertBid(q sqlx.Ext, b *model.Bid) error {
	_, err := q.Exec(`insert into auction_bids (bid_id, listing_id, bidder_key, bid_amount, created_at)
		values (?, ?, ?, ?, ?)`,
		b.ID, b.ListingID, b.BidderKey, b.Amount, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting bid: %w", err)
	}
	return nil
}

func BidsForListing(q sqlx.Ext, listingID string) ([]model.BidView, error) {
	bids := []model.BidView{}
	err := sqlx.Select(q, &bids,
		`select b.bid_amount, b.created_at,
			u.username as bidder_username, u.uid as bidder_uid
		 from auction_bids b join users u on u.public_key = b.bidder_key
		 where b.listing_id = ? order by b.bid_amount desc`, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	return bids, nil
}

// --- trade history ---

func InsertTrade(q sqlx.Ext, t *model.Trade) error {
	_, err := q.Exec(`insert into market_trade_history
		(trade_id, listing_id, nft_id, nft_type, trade_type, seller_key, buyer_key, price, timestamp)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ListingID, t.AssetID, t.AssetType, t.TradeType, t.SellerKey, t.BuyerKey, t.Price, t.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

func TradeHistory(q sqlx.Ext, limit int) ([]model.TradeView, error) {
	trades := []model.TradeView{}
	err := sqlx.Select(q, &trades,
		`select t.*, coalesce(s.username, '') as seller_username,
			coalesce(b.username, '') as buyer_username,
			coalesce(l.description, '') as listing_description
		 from market_trade_history t
		 left join users s on s.public_key = t.seller_key
		 left join users b on b.public_key = t.buyer_key
		 left join market_listings l on l.listing_id = t.listing_id
		 order by t.timestamp desc limit ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trade history: %w", err)
	}
	return trades, nil
}

package model

type ListingKind string

const (
	ListingKindSale    ListingKind = "SALE"
	ListingKindAuction ListingKind = "AUCTION"
	ListingKindSeek    ListingKind = "SEEK"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusSold      ListingStatus = "SOLD"
	ListingStatusCancelled ListingStatus = "CANCELLED"
	ListingStatusExpired   ListingStatus = "EXPIRED"
	ListingStatusFulfilled ListingStatus = "FULFILLED"
)

type Listing struct {
	ID            string        `db:"listing_id" json:"listing_id"`
	ListerKey     string        `db:"lister_key" json:"lister_key"`
	Kind          ListingKind   `db:"listing_type" json:"listing_type"`
	AssetID       string        `db:"nft_id" json:"nft_id,omitempty"`
	AssetType     string        `db:"nft_type" json:"nft_type"`
	Description   string        `db:"description" json:"description"`
	Price         float64       `db:"price" json:"price"`
	EndTime       float64       `db:"end_time" json:"end_time,omitempty"`
	Status        ListingStatus `db:"status" json:"status"`
	HighestBidder string        `db:"highest_bidder" json:"highest_bidder,omitempty"`
	HighestBid    float64       `db:"highest_bid" json:"highest_bid"`
	CreatedAt     float64       `db:"created_at" json:"created_at"`
}

type ListingView struct {
	Listing
	ListerUsername   string `db:"lister_username" json:"lister_username"`
	ListerUID        string `db:"lister_uid" json:"lister_uid"`
	AssetData        string `db:"nft_data" json:"-"`
	TradeDescription string `json:"trade_description,omitempty"`
}

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "PENDING"
	OfferStatusAccepted OfferStatus = "ACCEPTED"
	OfferStatusRejected OfferStatus = "REJECTED"
)

type Offer struct {
	ID             string      `db:"offer_id" json:"offer_id"`
	ListingID      string      `db:"listing_id" json:"listing_id"`
	OffererKey     string      `db:"offerer_key" json:"offerer_key"`
	OfferedAssetID string      `db:"offered_nft_id" json:"offered_nft_id"`
	Status         OfferStatus `db:"status" json:"status"`
	CreatedAt      float64     `db:"created_at" json:"created_at"`
}

type OfferView struct {
	Offer
	OffererUsername  string `db:"offerer_username" json:"offerer_username"`
	OffererUID       string `db:"offerer_uid" json:"offerer_uid"`
	AssetType        string `db:"nft_type" json:"nft_type"`
	AssetData        string `db:"nft_data" json:"-"`
	TradeDescription string `json:"trade_description,omitempty"`
}

type Bid struct {
	ID        string  `db:"bid_id" json:"bid_id"`
	ListingID string  `db:"listing_id" json:"listing_id"`
	BidderKey string  `db:"bidder_key" json:"bidder_key"`
	Amount    float64 `db:"bid_amount" json:"bid_amount"`
	CreatedAt float64 `db:"created_at" json:"created_at"`
}

type BidView struct {
	Amount         float64 `db:"bid_amount" json:"bid_amount"`
	CreatedAt      float64 `db:"created_at" json:"created_at"`
	BidderUsername string  `db:"bidder_username" json:"bidder_username"`
	BidderUID      string  `db:"bidder_uid" json:"bidder_uid"`
}

type Trade struct {
	ID        string  `db:"trade_id" json:"trade_id"`
	ListingID string  `db:"listing_id" json:"listing_id"`
	AssetID   string  `db:"nft_id" json:"nft_id"`
	AssetType string  `db:"nft_type" json:"nft_type"`
	TradeType string  `db:"trade_type" json:"trade_type"`
	SellerKey string  `db:"seller_key" json:"seller_key"`
	BuyerKey  string  `db:"buyer_key" json:"buyer_key"`
	Price     float64 `db:"price" json:"price"`
	Timestamp float64 `db:"timestamp" json:"timestamp"`
}

type TradeView struct {
	Trade
	SellerUsername     string `db:"seller_username" json:"seller_username,omitempty"`
	BuyerUsername      string `db:"buyer_username" json:"buyer_username,omitempty"`
	ListingDescription string `db:"listing_description" json:"listing_description,omitempty"`
}

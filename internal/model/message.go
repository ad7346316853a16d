package model

// Signed message bodies. Every mutating request arrives as an envelope
// whose message_json decodes into one of these. Unknown fields are
// tolerated; the signature covers the raw wire bytes.

type TransferMessage struct {
	FromKey   string  `json:"from_key"`
	ToKey     string  `json:"to_key"`
	Amount    float64 `json:"amount"`
	Timestamp float64 `json:"timestamp"`
	Note      string  `json:"note,omitempty"`
}

type AssetActionMessage struct {
	OwnerKey   string         `json:"owner_key"`
	AssetID    string         `json:"nft_id"`
	Action     string         `json:"action"`
	ActionData map[string]any `json:"action_data,omitempty"`
	Timestamp  float64        `json:"timestamp"`
}

type ProfileUpdateMessage struct {
	OwnerKey      string   `json:"owner_key"`
	Signature     string   `json:"signature,omitempty"`
	DisplayedNFTs []string `json:"displayed_nfts,omitempty"`
	Timestamp     float64  `json:"timestamp"`
}

type FriendActionMessage struct {
	OwnerKey  string  `json:"owner_key"`
	TargetKey string  `json:"target_key"`
	Timestamp float64 `json:"timestamp"`
}

type FriendRespondMessage struct {
	OwnerKey     string  `json:"owner_key"`
	RequesterKey string  `json:"requester_key"`
	Accept       bool    `json:"accept"`
	Timestamp    float64 `json:"timestamp"`
}

type GenerateInviteMessage struct {
	OwnerKey  string  `json:"owner_key"`
	Timestamp float64 `json:"timestamp"`
}

type CreateListingMessage struct {
	OwnerKey     string  `json:"owner_key"`
	ListingType  string  `json:"listing_type"`
	AssetID      string  `json:"nft_id,omitempty"`
	AssetType    string  `json:"nft_type"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	AuctionHours float64 `json:"auction_hours,omitempty"`
	Timestamp    float64 `json:"timestamp"`
}

// ListingActionMessage serves buy, cancel and notification mark-read,
// which all name a single target row.
type ListingActionMessage struct {
	OwnerKey  string  `json:"owner_key"`
	ListingID string  `json:"listing_id"`
	Timestamp float64 `json:"timestamp"`
}

type BidMessage struct {
	OwnerKey  string  `json:"owner_key"`
	ListingID string  `json:"listing_id"`
	Amount    float64 `json:"amount"`
	Timestamp float64 `json:"timestamp"`
}

type MakeOfferMessage struct {
	OwnerKey       string  `json:"owner_key"`
	ListingID      string  `json:"listing_id"`
	OfferedAssetID string  `json:"offered_nft_id"`
	Timestamp      float64 `json:"timestamp"`
}

type RespondOfferMessage struct {
	OwnerKey  string  `json:"owner_key"`
	OfferID   string  `json:"offer_id"`
	Accept    bool    `json:"accept"`
	Timestamp float64 `json:"timestamp"`
}

type NotificationReadMessage struct {
	OwnerKey  string  `json:"owner_key"`
	NotifID   string  `json:"notif_id"`
	Timestamp float64 `json:"timestamp"`
}

type ShopMessage struct {
	OwnerKey  string         `json:"owner_key"`
	AssetType string         `json:"nft_type"`
	Cost      float64        `json:"cost"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}

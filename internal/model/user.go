package model

// Account identities are PEM-encoded ed25519 public keys. Three sentinel
// accounts exist outside the user table.
const (
	GenesisAccount = "HEARTH_GENESIS"
	BurnAccount    = "HEARTH_BURN"
	EscrowAccount  = "HEARTH_ESCROW"
)

const (
	InvitedByGenesis   = "GENESIS"
	InvitedByBotSystem = "BOT_SYSTEM"
)

func IsSystemAccount(key string) bool {
	return key == GenesisAccount || key == BurnAccount || key == EscrowAccount
}

type User struct {
	PublicKey         string  `db:"public_key" json:"public_key"`
	UID               string  `db:"uid" json:"uid"`
	Username          string  `db:"username" json:"username"`
	PasswordHash      string  `db:"password_hash" json:"-"`
	CreatedAt         float64 `db:"created_at" json:"created_at"`
	IsActive          bool    `db:"is_active" json:"is_active"`
	InvitedBy         string  `db:"invited_by" json:"invited_by"`
	InvitationQuota   int     `db:"invitation_quota" json:"invitation_quota"`
	PrivateKeyPEM     string  `db:"private_key_pem" json:"-"`
	IsBot             bool    `db:"is_bot" json:"is_bot"`
	BotType           string  `db:"bot_type" json:"bot_type,omitempty"`
	ActionProbability float64 `db:"action_probability" json:"action_probability"`
}

type UserDetails struct {
	PublicKey       string  `json:"public_key"`
	Username        string  `json:"username"`
	UID             string  `json:"uid"`
	CreatedAt       float64 `json:"created_at"`
	InvitationQuota int     `json:"invitation_quota"`
	InvitedBy       string  `json:"invited_by,omitempty"`
	InviterUsername string  `json:"inviter_username,omitempty"`
	InviterUID      string  `json:"inviter_uid,omitempty"`
	TxCount         int     `json:"tx_count"`
	IsActive        bool    `json:"is_active"`
}

type UserSummary struct {
	Username  string `db:"username" json:"username"`
	PublicKey string `db:"public_key" json:"public_key"`
	UID       string `db:"uid" json:"uid"`
}

type Profile struct {
	PublicKey     string  `db:"public_key" json:"public_key"`
	Signature     string  `db:"signature" json:"signature"`
	DisplayedNFTs string  `db:"displayed_nfts" json:"-"`
	UpdatedAt     float64 `db:"updated_at" json:"updated_at"`
}

type FriendshipStatus string

const (
	FriendshipNone     FriendshipStatus = "NONE"
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
)

// Friendship rows store the pair in canonical order, User1 < User2, so a
// pair can never appear twice.
type Friendship struct {
	User1         string           `db:"user1_key" json:"user1_key"`
	User2         string           `db:"user2_key" json:"user2_key"`
	Status        FriendshipStatus `db:"status" json:"status"`
	ActionUserKey string           `db:"action_user_key" json:"action_user_key"`
	CreatedAt     float64          `db:"created_at" json:"created_at"`
}

type FriendRequest struct {
	Username  string  `db:"username" json:"username"`
	PublicKey string  `db:"public_key" json:"public_key"`
	UID       string  `db:"uid" json:"uid"`
	CreatedAt float64 `db:"created_at" json:"created_at"`
}

type InvitationCode struct {
	Code        string  `db:"code" json:"code"`
	GeneratedBy string  `db:"generated_by" json:"generated_by"`
	CreatedAt   float64 `db:"created_at" json:"created_at"`
	IsUsed      bool    `db:"is_used" json:"is_used"`
	UsedBy      string  `db:"used_by" json:"used_by,omitempty"`
}

// InvitationCodeTTL is how long a code stays redeemable, in seconds.
const InvitationCodeTTL = 7 * 24 * 3600

type Notification struct {
	ID        string  `db:"notif_id" json:"notif_id"`
	UserKey   string  `db:"user_key" json:"user_key"`
	Message   string  `db:"message" json:"message"`
	IsRead    bool    `db:"is_read" json:"is_read"`
	Timestamp float64 `db:"timestamp" json:"timestamp"`
}

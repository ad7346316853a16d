package model

// AdminSignature marks transaction rows created by the service itself
// rather than by a user-signed envelope.
const AdminSignature = "ADMIN_SYSTEM"

type Balance struct {
	PublicKey string  `db:"public_key" json:"public_key"`
	Balance   float64 `db:"balance" json:"balance"`
}

type Transaction struct {
	ID          string  `db:"tx_id" json:"tx_id"`
	FromKey     string  `db:"from_key" json:"from_key"`
	ToKey       string  `db:"to_key" json:"to_key"`
	Amount      float64 `db:"amount" json:"amount"`
	Timestamp   float64 `db:"timestamp" json:"timestamp"`
	MessageJSON string  `db:"message_json" json:"-"`
	Signature   string  `db:"signature" json:"-"`
	Note        string  `db:"note" json:"note,omitempty"`
}

type BalanceEntry struct {
	PublicKey string  `db:"public_key" json:"public_key"`
	Username  string  `db:"username" json:"username"`
	UID       string  `db:"uid" json:"uid"`
	IsActive  bool    `db:"is_active" json:"is_active"`
	Balance   float64 `db:"balance" json:"balance"`
}

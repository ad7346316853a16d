package model

type BotLog struct {
	ID           string  `db:"log_id" json:"log_id"`
	Timestamp    float64 `db:"timestamp" json:"timestamp"`
	BotKey       string  `db:"bot_key" json:"bot_key"`
	BotUsername  string  `db:"bot_username" json:"bot_username"`
	ActionType   string  `db:"action_type" json:"action_type"`
	Message      string  `db:"message" json:"message"`
	DataSnapshot string  `db:"data_snapshot" json:"data_snapshot,omitempty"`
}

type BotInfo struct {
	PublicKey         string  `db:"public_key" json:"public_key"`
	UID               string  `db:"uid" json:"uid"`
	Username          string  `db:"username" json:"username"`
	BotType           string  `db:"bot_type" json:"bot_type"`
	IsActive          bool    `db:"is_active" json:"is_active"`
	ActionProbability float64 `db:"action_probability" json:"action_probability"`
	Balance           float64 `db:"balance" json:"balance"`
	PrivateKeyPEM     string  `db:"private_key_pem" json:"-"`
}

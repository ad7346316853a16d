package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

func GetBalance(q sqlx.Ext, publicKey string) (float64, error) {
	var balance float64
	err := sqlx.Get(q, &balance, "select balance from balances where public_key = ?", publicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading balance: %w", err)
	}
	return balance, nil
}

// AdjustBalance applies a signed delta, creating the row if needed.
func AdjustBalance(q sqlx.Ext, publicKey string, delta float64) error {
	_, err := q.Exec(`insert into balances (public_key, balance) values (?, ?)
		on conflict (public_key) do update set balance = balance + excluded.balance`,
		publicKey, delta)
	if err != nil {
		return fmt.Errorf("adjusting balance: %w", err)
	}
	return nil
}

func DeleteBalance(q sqlx.Ext, publicKey string) error {
	_, err := q.Exec("delete from balances where public_key = ?", publicKey)
	if err != nil {
		return fmt.Errorf("deleting balance: %w", err)
	}
	return nil
}

func InsertTransaction(q sqlx.Ext, t *model.Transaction) error {
	_, err := q.Exec(`insert into transactions
		(tx_id, from_key, to_key, amount, timestamp, message_json, signature, note)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.FromKey, t.ToKey, t.Amount, t.Timestamp, t.MessageJSON, t.Signature, t.Note)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

func TransactionsFor(q sqlx.Ext, publicKey string) ([]model.Transaction, error) {
	txs := []model.Transaction{}
	err := sqlx.Select(q, &txs,
		`select * from transactions where from_key = ? or to_key = ?
		 order by timestamp desc limit 100`, publicKey, publicKey)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return txs, nil
}

// AllBalances lists balances for human users; system accounts are
// excluded, bots included when includeBots is set.
func AllBalances(q sqlx.Ext, includeInactive bool, includeBots bool) ([]model.BalanceEntry, error) {
	query := `select u.public_key, u.username, u.uid, u.is_active,
			coalesce(b.balance, 0) as balance
		from users u left join balances b on b.public_key = u.public_key
		where 1 = 1`
	if !includeInactive {
		query += " and u.is_active = 1"
	}
	if !includeBots {
		query += " and u.is_bot = 0"
	}
	query += " order by balance desc"

	entries := []model.BalanceEntry{}
	if err := sqlx.Select(q, &entries, query); err != nil {
		return nil, fmt.Errorf("listing balances: %w", err)
	}
	return entries, nil
}

package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

func InsertBotLog(q sqlx.Ext, l *model.BotLog) error {
	_, err := q.Exec(`insert into bot_logs
		(log_id, timestamp, bot_key, bot_username, action_type, message, data_snapshot)
		values (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Timestamp, l.BotKey, l.BotUsername, l.ActionType, l.Message, l.DataSnapshot)
	if err != nil {
		return fmt.Errorf("inserting bot log: %w", err)
	}
	return nil
}

func BotLogs(q sqlx.Ext, botKey string, limit int) ([]model.BotLog, error) {
	query := "select * from bot_logs"
	args := []any{}
	if botKey != "" {
		query += " where bot_key = ?"
		args = append(args, botKey)
	}
	query += " order by timestamp desc limit ?"
	args = append(args, limit)

	logs := []model.BotLog{}
	if err := sqlx.Select(q, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("listing bot logs: %w", err)
	}
	return logs, nil
}

func AllBots(q sqlx.Ext, includeInactive bool) ([]model.BotInfo, error) {
	query := `select u.public_key, u.uid, u.username, u.bot_type, u.is_active,
			u.action_probability, u.private_key_pem, coalesce(b.balance, 0) as balance
		from users u left join balances b on b.public_key = u.public_key
		where u.is_bot = 1`
	if !includeInactive {
		query += " and u.is_active = 1"
	}
	query += " order by u.username"

	bots := []model.BotInfo{}
	if err := sqlx.Select(q, &bots, query); err != nil {
		return nil, fmt.Errorf("listing bots: %w", err)
	}
	return bots, nil
}

package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"hearthcoin/internal/model"
)

// Store wraps the single shared database. Writers serialize through
// immediate transactions, which gives each multi-row mutation exclusive
// access to the rows it touches for the life of the transaction.
type Store struct {
	db *sqlx.DB

	// guards schema bootstrap and nuke only
	bootstrap sync.Mutex
}

func Open(dsn string) (*Store, error) {
	if !strings.Contains(dsn, "_txlock") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn = dsn + sep + "_txlock=immediate"
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a single transaction, rolling back on any error.
func (s *Store) WithTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

var tables = []string{
	`create table if not exists users (
		public_key text primary key,
		uid text unique not null,
		username text unique not null,
		password_hash text not null,
		created_at real not null,
		is_active integer not null default 1,
		invited_by text not null default '',
		invitation_quota integer not null default 0,
		private_key_pem text not null default '',
		is_bot integer not null default 0,
		bot_type text not null default '',
		action_probability real not null default 0.1
	)`,
	`create table if not exists user_profiles (
		public_key text primary key,
		signature text not null default '',
		displayed_nfts text not null default '[]',
		updated_at real not null
	)`,
	`create table if not exists balances (
		public_key text primary key,
		balance real not null default 0
	)`,
	`create table if not exists transactions (
		tx_id text primary key,
		from_key text not null,
		to_key text not null,
		amount real not null,
		timestamp real not null,
		message_json text not null,
		signature text not null,
		note text not null default ''
	)`,
	`create table if not exists nfts (
		nft_id text primary key,
		owner_key text not null,
		nft_type text not null,
		data text not null default '{}',
		created_at real not null,
		status text not null default 'ACTIVE'
	)`,
	`create table if not exists market_listings (
		listing_id text primary key,
		lister_key text not null,
		listing_type text not null,
		nft_id text not null default '',
		nft_type text not null,
		description text not null default '',
		price real not null,
		end_time real not null default 0,
		status text not null default 'ACTIVE',
		highest_bidder text not null default '',
		highest_bid real not null default 0,
		created_at real not null
	)`,
	`create table if not exists market_offers (
		offer_id text primary key,
		listing_id text not null,
		offerer_key text not null,
		offered_nft_id text not null,
		status text not null default 'PENDING',
		created_at real not null
	)`,
	`create table if not exists auction_bids (
		bid_id text primary key,
		listing_id text not null,
		bidder_key text not null,
		bid_amount real not null,
		created_at real not null
	)`,
	`create table if not exists market_trade_history (
		trade_id text primary key,
		listing_id text not null,
		nft_id text not null,
		nft_type text not null,
		trade_type text not null,
		seller_key text not null,
		buyer_key text not null,
		price real not null,
		timestamp real not null
	)`,
	`create table if not exists friendships (
		user1_key text not null,
		user2_key text not null,
		status text not null,
		action_user_key text not null,
		created_at real not null,
		primary key (user1_key, user2_key)
	)`,
	`create table if not exists invitation_codes (
		code text primary key,
		generated_by text not null,
		created_at real not null,
		is_used integer not null default 0,
		used_by text not null default ''
	)`,
	`create table if not exists notifications (
		notif_id text primary key,
		user_key text not null,
		message text not null,
		is_read integer not null default 0,
		timestamp real not null
	)`,
	`create table if not exists settings (
		key text primary key,
		value text not null
	)`,
	`create table if not exists bot_logs (
		log_id text primary key,
		timestamp real not null,
		bot_key text not null,
		bot_username text not null,
		action_type text not null,
		message text not null,
		data_snapshot text not null default ''
	)`,
}

var tableNames = []string{
	"users", "user_profiles", "balances", "transactions", "nfts",
	"market_listings", "market_offers", "auction_bids", "market_trade_history",
	"friendships", "invitation_codes", "notifications", "settings", "bot_logs",
}

func (s *Store) Init() error {
	s.bootstrap.Lock()
	defer s.bootstrap.Unlock()

	for _, ddl := range tables {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}

	for key, value := range model.DefaultSettings {
		_, err := s.db.Exec(`insert into settings (key, value) values (?, ?)
			on conflict (key) do nothing`, key, value)
		if err != nil {
			return fmt.Errorf("seeding settings: %w", err)
		}
	}
	return nil
}

// Nuke drops every table and reinitializes an empty schema.
func (s *Store) Nuke() error {
	s.bootstrap.Lock()
	for _, name := range tableNames {
		if _, err := s.db.Exec("drop table if exists " + name); err != nil {
			s.bootstrap.Unlock()
			return fmt.Errorf("dropping table %s: %w", name, err)
		}
	}
	s.bootstrap.Unlock()
	return s.Init()
}

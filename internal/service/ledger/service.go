package ledger

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
	"hearthcoin/internal/store"
	"hearthcoin/pkg/message"
)

// Service is the balance kernel. Every credit and debit flows through
// here and leaves a row in the transaction log.
type Service struct {
	store *store.Store
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Balance(publicKey string) (float64, error) {
	return store.GetBalance(s.store.DB(), publicKey)
}

func (s *Service) History(publicKey string) ([]model.Transaction, error) {
	return store.TransactionsFor(s.store.DB(), publicKey)
}

// TransferTx moves funds between two users inside the caller's
// transaction, recording the signed envelope that authorized it.
func (s *Service) TransferTx(tx *sqlx.Tx, from, to string, amount float64, messageJSON, signature, note string) error {
	if amount <= 0 {
		return model.ErrorInvalidAmount
	}
	if from == to {
		return model.ErrorSelfTransfer
	}

	recipient, err := store.GetUser(tx, to)
	if err != nil {
		return err
	}
	if !recipient.IsActive {
		return model.ErrorRecipientInactive
	}

	balance, err := store.GetBalance(tx, from)
	if err != nil {
		return err
	}
	if balance < amount {
		return model.ErrorInsufficientFunds
	}

	if err := store.AdjustBalance(tx, from, -amount); err != nil {
		return err
	}
	if err := store.AdjustBalance(tx, to, amount); err != nil {
		return err
	}

	return store.InsertTransaction(tx, &model.Transaction{
		ID:          model.CreateID(),
		FromKey:     from,
		ToKey:       to,
		Amount:      amount,
		Timestamp:   float64(time.Now().Unix()),
		MessageJSON: messageJSON,
		Signature:   signature,
		Note:        note,
	})
}

// SystemTransferTx moves funds on the service's own authority: issue
// (GENESIS source), burn (BURN sink) and escrow holds. GENESIS is never
// balance checked; BURN is never credited.
func (s *Service) SystemTransferTx(tx *sqlx.Tx, from, to string, amount float64, note string) error {
	if amount <= 0 {
		return model.ErrorInvalidAmount
	}
	if from == to {
		return model.ErrorSelfTransfer
	}

	now := float64(time.Now().Unix())

	if from != model.GenesisAccount {
		balance, err := store.GetBalance(tx, from)
		if err != nil {
			return err
		}
		if balance < amount {
			return model.ErrorInsufficientFunds
		}
	}

	if err := store.AdjustBalance(tx, from, -amount); err != nil {
		return err
	}
	if to != model.BurnAccount {
		if err := store.AdjustBalance(tx, to, amount); err != nil {
			return err
		}
	}

	body, err := message.Canonicalize(map[string]any{
		"from":      from,
		"to":        to,
		"amount":    amount,
		"note":      note,
		"timestamp": now,
	})
	if err != nil {
		return fmt.Errorf("recording system transfer: %w", err)
	}

	return store.InsertTransaction(tx, &model.Transaction{
		ID:          model.CreateID(),
		FromKey:     from,
		ToKey:       to,
		Amount:      amount,
		Timestamp:   now,
		MessageJSON: string(body),
		Signature:   model.AdminSignature,
		Note:        note,
	})
}

// SystemTransfer is SystemTransferTx in its own transaction.
func (s *Service) SystemTransfer(from, to string, amount float64, note string) error {
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		return s.SystemTransferTx(tx, from, to, amount, note)
	})
}

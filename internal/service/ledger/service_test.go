package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"hearthcoin/internal/model"
	"hearthcoin/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	assert.Nil(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func createUser(t *testing.T, st *store.Store, name string) string {
	t.Helper()
	key := fmt.Sprintf("KEY_%s", name)
	err := store.CreateUser(st.DB(), &model.User{
		PublicKey:    key,
		UID:          fmt.Sprintf("UID_%s", name),
		Username:     name,
		PasswordHash: "x",
		CreatedAt:    float64(time.Now().Unix()),
		IsActive:     true,
		InvitedBy:    model.InvitedByGenesis,
	})
	assert.Nil(t, err)
	return key
}

func TestSystemTransfer(t *testing.T) {
	assert := assert.New(t)
	st := newTestStore(t)
	svc := New(st)

	alice := createUser(t, st, "alice")

	t.Run("genesis issues without a balance check", func(t *testing.T) {
		assert.Nil(svc.SystemTransfer(model.GenesisAccount, alice, 100, "issue"))

		balance, err := svc.Balance(alice)
		assert.Nil(err)
		assert.Equal(100.0, balance)

		// the debit shows up as a negative genesis balance
		genesis, err := svc.Balance(model.GenesisAccount)
		assert.Nil(err)
		assert.Equal(-100.0, genesis)
	})

	t.Run("burn debits the sender and credits nobody", func(t *testing.T) {
		assert.Nil(svc.SystemTransfer(alice, model.BurnAccount, 10, "burn"))

		balance, err := svc.Balance(alice)
		assert.Nil(err)
		assert.Equal(90.0, balance)

		burn, err := svc.Balance(model.BurnAccount)
		assert.Nil(err)
		assert.Equal(0.0, burn)
	})

	t.Run("non genesis senders are balance checked", func(t *testing.T) {
		err := svc.SystemTransfer(alice, model.EscrowAccount, 1000, "hold")
		assert.ErrorIs(err, model.ErrorInsufficientFunds)
	})

	t.Run("records an audit row", func(t *testing.T) {
		history, err := svc.History(alice)
		assert.Nil(err)
		assert.Len(history, 2)
		assert.Equal(model.AdminSignature, history[0].Signature)
	})
}

func TestTransferTx(t *testing.T) {
	assert := assert.New(t)
	st := newTestStore(t)
	svc := New(st)

	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	assert.Nil(svc.SystemTransfer(model.GenesisAccount, alice, 100, "issue"))

	transfer := func(from, to string, amount float64) error {
		return st.WithTx(func(tx *sqlx.Tx) error {
			return svc.TransferTx(tx, from, to, amount, `{"signed":"body"}`, "sig", "coffee")
		})
	}

	t.Run("moves funds and records the envelope", func(t *testing.T) {
		assert.Nil(transfer(alice, bob, 40))

		aliceBalance, _ := svc.Balance(alice)
		bobBalance, _ := svc.Balance(bob)
		assert.Equal(60.0, aliceBalance)
		assert.Equal(40.0, bobBalance)

		history, err := svc.History(bob)
		assert.Nil(err)
		assert.Len(history, 1)
		assert.Equal(`{"signed":"body"}`, history[0].MessageJSON)
		assert.Equal("sig", history[0].Signature)
		assert.Equal("coffee", history[0].Note)
	})

	t.Run("rejects bad transfers without side effects", func(t *testing.T) {
		assert.ErrorIs(transfer(alice, bob, 0), model.ErrorInvalidAmount)
		assert.ErrorIs(transfer(alice, bob, -5), model.ErrorInvalidAmount)
		assert.ErrorIs(transfer(alice, alice, 5), model.ErrorSelfTransfer)
		assert.ErrorIs(transfer(alice, bob, 1000), model.ErrorInsufficientFunds)
		assert.ErrorIs(transfer(alice, "KEY_nobody", 5), model.ErrorUserNotFound)

		aliceBalance, _ := svc.Balance(alice)
		assert.Equal(60.0, aliceBalance)
	})

	t.Run("rejects inactive recipients", func(t *testing.T) {
		assert.Nil(store.SetUserActive(st.DB(), bob, false))
		assert.ErrorIs(transfer(alice, bob, 5), model.ErrorRecipientInactive)
	})

	t.Run("conserves value", func(t *testing.T) {
		// everything issued is either held by users or burned
		assert.Nil(svc.SystemTransfer(bob, model.BurnAccount, 15, "burn"))

		aliceBalance, _ := svc.Balance(alice)
		bobBalance, _ := svc.Balance(bob)
		genesis, _ := svc.Balance(model.GenesisAccount)
		assert.Equal(-100.0, genesis)
		assert.Equal(85.0, aliceBalance+bobBalance)
	})
}

package asset

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hearthcoin/internal/model"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/store"
)

type testEnv struct {
	store  *store.Store
	ledger *ledger.Service
	assets *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(":memory:")
	assert.Nil(t, err)
	t.Cleanup(func() { st.Close() })

	lg := ledger.New(st)
	return &testEnv{store: st, ledger: lg, assets: New(st, lg)}
}

func (env *testEnv) createUser(t *testing.T, name string, funds float64) string {
	t.Helper()
	key := fmt.Sprintf("KEY_%s", name)
	err := store.CreateUser(env.store.DB(), &model.User{
		PublicKey:    key,
		UID:          fmt.Sprintf("UID_%s", name),
		Username:     name,
		PasswordHash: "x",
		CreatedAt:    float64(time.Now().Unix()),
		IsActive:     true,
		InvitedBy:    model.InvitedByGenesis,
	})
	assert.Nil(t, err)
	if funds > 0 {
		assert.Nil(t, env.ledger.SystemTransfer(model.GenesisAccount, key, funds, "seed"))
	}
	return key
}

// setData rewrites an asset payload directly, for tests that need to
// move time-based fields into the past.
func (env *testEnv) setData(t *testing.T, id string, mutate func(data map[string]any)) {
	t.Helper()
	a, err := store.GetAsset(env.store.DB(), id)
	assert.Nil(t, err)
	data := a.Data()
	mutate(data)
	assert.Nil(t, a.SetData(data))
	assert.Nil(t, store.UpdateAssetData(env.store.DB(), id, a.DataJSON, ""))
}

func TestMint(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", 0)

	t.Run("unknown types are rejected", func(t *testing.T) {
		_, err := env.assets.Mint(alice, "UNICORN", nil)
		assert.ErrorIs(err, model.ErrorUnknownAssetType)
	})

	t.Run("type validation runs at mint", func(t *testing.T) {
		_, err := env.assets.Mint(alice, "TIME_CAPSULE", map[string]any{"content": ""})
		assert.ErrorIs(err, model.ErrorMalformedMessage)
	})

	t.Run("mints for an existing user", func(t *testing.T) {
		id, err := env.assets.Mint(alice, "TIME_CAPSULE", map[string]any{
			"content": "hi", "days_to_reveal": 1.0,
		})
		assert.Nil(err)

		minted, err := env.assets.Get(id)
		assert.Nil(err)
		assert.Equal(alice, minted.OwnerKey)
		assert.Equal(model.AssetStatusActive, minted.Status)
		assert.Equal("hi", minted.Data()["content"])
	})
}

func TestPerformAction(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", 100)
	bob := env.createUser(t, "bob", 100)

	capsule, err := env.assets.Mint(alice, "TIME_CAPSULE", map[string]any{
		"content": "dear future me", "days_to_reveal": 30.0,
	})
	assert.Nil(err)

	t.Run("only the owner may act", func(t *testing.T) {
		_, err := env.assets.PerformAction(bob, &model.AssetActionMessage{
			AssetID: capsule, Action: "reveal",
		})
		assert.ErrorIs(err, model.ErrorNotOwner)
	})

	t.Run("sealed capsules stay sealed", func(t *testing.T) {
		_, err := env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: capsule, Action: "reveal",
		})
		assert.ErrorIs(err, model.ErrorCooldownActive)
	})

	t.Run("reveal works once due", func(t *testing.T) {
		env.setData(t, capsule, func(data map[string]any) {
			data["reveal_at"] = 1.0
		})
		detail, err := env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: capsule, Action: "reveal",
		})
		assert.Nil(err)
		assert.Contains(detail, "dear future me")

		revealed, err := env.assets.Get(capsule)
		assert.Nil(err)
		assert.Equal(true, revealed.Data()["revealed"])
	})

	t.Run("destroy works on any type", func(t *testing.T) {
		_, err := env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: capsule, Action: "destroy",
		})
		assert.Nil(err)

		gone, err := env.assets.Get(capsule)
		assert.Nil(err)
		assert.Equal(model.AssetStatusDestroyed, gone.Status)

		_, err = env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: capsule, Action: "destroy",
		})
		assert.ErrorIs(err, model.ErrorAssetNotActive)
	})
}

func TestPricedActions(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", 100)

	pet, err := env.assets.Mint(alice, "BIO_DNA", map[string]any{"rarity": "COMMON"})
	assert.Nil(err)

	t.Run("training burns the fee and grants xp", func(t *testing.T) {
		detail, err := env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: pet, Action: "train",
		})
		assert.Nil(err)
		assert.NotEmpty(detail)

		balance, _ := env.ledger.Balance(alice)
		assert.Equal(98.0, balance)

		trained, err := env.assets.Get(pet)
		assert.Nil(err)
		assert.Equal(25.0, trained.Data()["xp"])
	})

	t.Run("training again hits the cooldown", func(t *testing.T) {
		_, err := env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: pet, Action: "train",
		})
		assert.ErrorIs(err, model.ErrorCooldownActive)
	})

	t.Run("harvest credits accrued yield", func(t *testing.T) {
		// pretend the pet worked for two hours
		env.setData(t, pet, func(data map[string]any) {
			data["last_harvest_at"] = float64(time.Now().Unix()) - 2*3600
		})

		before, _ := env.ledger.Balance(alice)
		_, err := env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: pet, Action: "harvest",
		})
		assert.Nil(err)

		after, _ := env.ledger.Balance(alice)
		assert.Greater(after, before)
	})

	t.Run("fees fail closed when funds run out", func(t *testing.T) {
		assert.Nil(env.ledger.SystemTransfer(alice, model.BurnAccount, 90, "drain"))
		env.setData(t, pet, func(data map[string]any) {
			data["last_train_at"] = 0.0
			data["level"] = 50.0
		})
		_, err := env.assets.PerformAction(alice, &model.AssetActionMessage{
			AssetID: pet, Action: "train",
		})
		assert.ErrorIs(err, model.ErrorInsufficientFunds)
	})
}

func TestShop(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", 100)

	t.Run("create kind mints for the configured cost", func(t *testing.T) {
		detail, assetID, err := env.assets.ShopCreate(alice, &model.ShopMessage{
			AssetType: "SECRET_WISH",
			Cost:      5,
			Data:      map[string]any{"content": "world peace", "destroy_in_days": 7.0},
		})
		assert.Nil(err)
		assert.NotEmpty(detail)
		assert.NotEmpty(assetID)

		balance, _ := env.ledger.Balance(alice)
		assert.Equal(95.0, balance)
	})

	t.Run("cost mismatches are rejected before payment", func(t *testing.T) {
		_, _, err := env.assets.ShopCreate(alice, &model.ShopMessage{
			AssetType: "SECRET_WISH",
			Cost:      1,
			Data:      map[string]any{"content": "cheap wish", "destroy_in_days": 7.0},
		})
		assert.ErrorIs(err, model.ErrorShopConfigMismatch)

		balance, _ := env.ledger.Balance(alice)
		assert.Equal(95.0, balance)
	})

	t.Run("action kinds are not interchangeable", func(t *testing.T) {
		_, _, err := env.assets.ShopAction(alice, &model.ShopMessage{
			AssetType: "SECRET_WISH",
			Cost:      5,
			Data:      map[string]any{},
		})
		assert.ErrorIs(err, model.ErrorShopConfigMismatch)

		_, _, err = env.assets.ShopCreate(alice, &model.ShopMessage{
			AssetType: "PLANET",
			Cost:      10,
			Data:      map[string]any{},
		})
		assert.ErrorIs(err, model.ErrorShopConfigMismatch)
	})

	t.Run("probabilistic purchases always charge", func(t *testing.T) {
		before, _ := env.ledger.Balance(alice)
		_, _, err := env.assets.ShopAction(alice, &model.ShopMessage{
			AssetType: "PLANET",
			Cost:      10,
			Data:      map[string]any{},
		})
		assert.Nil(err)

		after, _ := env.ledger.Balance(alice)
		assert.Equal(before-10, after)
	})
}

func TestDestroyExpired(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", 100)

	_, wishID, err := env.assets.ShopCreate(alice, &model.ShopMessage{
		AssetType: "SECRET_WISH",
		Cost:      5,
		Data:      map[string]any{"content": "fleeting", "destroy_in_days": 1.0},
	})
	assert.Nil(err)

	destroyed, err := env.assets.DestroyExpired()
	assert.Nil(err)
	assert.Equal(0, destroyed)

	env.setData(t, wishID, func(data map[string]any) {
		data["destroy_at"] = 1.0
	})

	destroyed, err = env.assets.DestroyExpired()
	assert.Nil(err)
	assert.Equal(1, destroyed)

	gone, err := env.assets.Get(wishID)
	assert.Nil(err)
	assert.Equal(model.AssetStatusDestroyed, gone.Status)
}

package admin

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hearthcoin/internal/boot"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/asset"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/service/market"
	"hearthcoin/internal/service/notify"
	"hearthcoin/internal/service/user"
	"hearthcoin/internal/store"
)

type testEnv struct {
	store  *store.Store
	ledger *ledger.Service
	assets *asset.Service
	users  *user.Service
	admin  *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(":memory:")
	assert.Nil(t, err)
	t.Cleanup(func() { st.Close() })

	config := &boot.Config{
		SessionSecret: "test-secret",
		Admin: boot.AdminConfig{
			SecretKey:       "admin-secret",
			GenesisPassword: "letmein",
		},
	}
	lg := ledger.New(st)
	nt := notify.New(st)
	as := asset.New(st, lg)
	mk := market.New(st, lg, nt)
	return &testEnv{
		store:  st,
		ledger: lg,
		assets: as,
		users:  user.New(st, lg, nt, config),
		admin:  New(st, lg, as, mk, nt),
	}
}

func (env *testEnv) createUser(t *testing.T, name string) string {
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
	return key
}

func (env *testEnv) balance(t *testing.T, key string) float64 {
	t.Helper()
	balance, err := env.ledger.Balance(key)
	assert.Nil(t, err)
	return balance
}

func TestIssueAndBurn(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	t.Run("issue funds an account and notifies it", func(t *testing.T) {
		assert.Nil(env.admin.Issue(alice, 100, ""))
		assert.Equal(100.0, env.balance(t, alice))

		unread, err := store.UnreadNotificationCount(env.store.DB(), alice)
		assert.Nil(err)
		assert.Equal(1, unread)
	})

	t.Run("issue rejects unknown accounts", func(t *testing.T) {
		assert.ErrorIs(env.admin.Issue("KEY_ghost", 100, ""), model.ErrorUserNotFound)
	})

	t.Run("burn debits the account", func(t *testing.T) {
		assert.Nil(env.admin.Burn(alice, 30, "tax"))
		assert.Equal(70.0, env.balance(t, alice))
	})

	t.Run("burn cannot overdraw", func(t *testing.T) {
		assert.ErrorIs(env.admin.Burn(alice, 1000, ""), model.ErrorInsufficientFunds)
		assert.Equal(70.0, env.balance(t, alice))
	})
}

func TestMultiIssue(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	t.Run("one bad recipient fails the whole batch", func(t *testing.T) {
		_, err := env.admin.MultiIssue([]string{alice, "KEY_ghost", bob}, 50, "")
		assert.ErrorIs(err, model.ErrorUserNotFound)
		assert.Equal(0.0, env.balance(t, alice))
		assert.Equal(0.0, env.balance(t, bob))
	})

	t.Run("issues to every recipient", func(t *testing.T) {
		issued, err := env.admin.MultiIssue([]string{alice, bob}, 50, "airdrop")
		assert.Nil(err)
		assert.Equal(2, issued)
		assert.Equal(50.0, env.balance(t, alice))
		assert.Equal(50.0, env.balance(t, bob))
	})
}

func TestAccountControls(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	founder, err := env.users.GenesisRegister("founder", "hunter22", "letmein")
	assert.Nil(err)

	t.Run("quota must not be negative", func(t *testing.T) {
		assert.ErrorIs(env.admin.AdjustQuota(founder.PublicKey, -1), model.ErrorInvalidAmount)
		assert.Nil(env.admin.AdjustQuota(founder.PublicKey, 10))
	})

	t.Run("deactivation blocks login", func(t *testing.T) {
		assert.Nil(env.admin.SetActive(founder.PublicKey, false))
		_, _, err := env.users.Login("founder", "hunter22")
		assert.ErrorIs(err, model.ErrorUserInactive)

		assert.Nil(env.admin.SetActive(founder.PublicKey, true))
		_, _, err = env.users.Login("founder", "hunter22")
		assert.Nil(err)
	})

	t.Run("reset password returns a working replacement", func(t *testing.T) {
		newPassword, err := env.admin.ResetPassword(founder.PublicKey)
		assert.Nil(err)
		assert.Len(newPassword, 12)

		_, _, err = env.users.Login("founder", "hunter22")
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
		_, _, err = env.users.Login("founder", newPassword)
		assert.Nil(err)
	})
}

func TestMintAsset(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	assetID, err := env.admin.MintAsset(alice, "TIME_CAPSULE", map[string]any{
		"content": "from the treasury", "days_to_reveal": 1.0,
	})
	assert.Nil(err)

	minted, err := env.assets.Get(assetID)
	assert.Nil(err)
	assert.Equal(alice, minted.OwnerKey)

	unread, err := store.UnreadNotificationCount(env.store.DB(), alice)
	assert.Nil(err)
	assert.Equal(1, unread)

	_, err = env.admin.MintAsset(alice, "UNICORN", nil)
	assert.ErrorIs(err, model.ErrorUnknownAssetType)
}

func TestPurge(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	assert.Nil(env.admin.Issue(alice, 100, ""))

	kept, err := env.assets.Mint(alice, "TIME_CAPSULE", map[string]any{
		"content": "kept", "days_to_reveal": 1.0,
	})
	assert.Nil(err)
	listed, err := env.assets.Mint(alice, "TIME_CAPSULE", map[string]any{
		"content": "listed", "days_to_reveal": 1.0,
	})
	assert.Nil(err)

	mk := market.New(env.store, env.ledger, notify.New(env.store))
	_, err = mk.CreateListing(alice, &model.CreateListingMessage{
		ListingType: "SALE", AssetID: listed, Price: 30,
	})
	assert.Nil(err)

	listings, err := store.ActiveListingsBy(env.store.DB(), alice)
	assert.Nil(err)
	assert.Len(listings, 1)
	listingID := listings[0].ID

	assert.Nil(env.admin.Purge(alice))

	t.Run("the account is gone", func(t *testing.T) {
		_, err := store.GetUser(env.store.DB(), alice)
		assert.ErrorIs(err, model.ErrorUserNotFound)
	})

	t.Run("the balance was burned", func(t *testing.T) {
		assert.Equal(0.0, env.balance(t, alice))
	})

	t.Run("the username is free again", func(t *testing.T) {
		err := store.CreateUser(env.store.DB(), &model.User{
			PublicKey:    "KEY_alice2",
			UID:          "UID_alice2",
			Username:     "alice",
			PasswordHash: "x",
			CreatedAt:    float64(time.Now().Unix()),
			IsActive:     true,
			InvitedBy:    model.InvitedByGenesis,
		})
		assert.Nil(err)
	})

	t.Run("listings were unwound and assets burned", func(t *testing.T) {
		listing, err := store.GetListing(env.store.DB(), listingID)
		assert.Nil(err)
		assert.Equal(model.ListingStatusCancelled, listing.Status)

		for _, id := range []string{kept, listed} {
			a, err := env.assets.Get(id)
			assert.Nil(err)
			assert.Equal(model.AssetStatusBurned, a.Status)
		}
	})
}

func TestSettings(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	t.Run("defaults apply until written", func(t *testing.T) {
		settings, err := env.admin.Settings()
		assert.Nil(err)
		assert.Equal("300", settings[model.SettingWelcomeBonusAmount])
		assert.Equal("3", settings[model.SettingDefaultInvitationQuota])
	})

	t.Run("unknown keys are rejected", func(t *testing.T) {
		err := env.admin.UpdateSettings(map[string]string{"coin_color": "gold"})
		assert.ErrorIs(err, model.ErrorMalformedMessage)
	})

	t.Run("writes survive a round trip", func(t *testing.T) {
		err := env.admin.UpdateSettings(map[string]string{
			model.SettingWelcomeBonusAmount: "150",
		})
		assert.Nil(err)

		settings, err := env.admin.Settings()
		assert.Nil(err)
		assert.Equal("150", settings[model.SettingWelcomeBonusAmount])
	})
}

func TestBots(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	t.Run("unknown bot types are rejected", func(t *testing.T) {
		_, err := env.admin.CreateBot("TOASTER", 100, 0.5)
		assert.ErrorIs(err, model.ErrorUnknownBotType)
	})

	bot, err := env.admin.CreateBot("SHOP_ENTHUSIAST", 100, 0.25)
	assert.Nil(err)

	t.Run("bots come funded with a spawn log", func(t *testing.T) {
		assert.True(bot.IsBot)
		assert.Contains(bot.Username, "BOT_SHOPPER_")
		assert.Equal(model.InvitedByBotSystem, bot.InvitedBy)
		assert.NotEmpty(bot.PrivateKeyPEM)
		assert.Equal(100.0, env.balance(t, bot.PublicKey))

		logs, err := env.admin.BotLogs(bot.PublicKey, 10)
		assert.Nil(err)
		assert.Len(logs, 1)
		assert.Equal("SPAWN", logs[0].ActionType)
	})

	t.Run("out of range spawn probability falls back", func(t *testing.T) {
		other, err := env.admin.CreateBot("SELLER", 0, 7)
		assert.Nil(err)
		assert.Equal(0.5, other.ActionProbability)
	})

	t.Run("config updates only apply to bots", func(t *testing.T) {
		alice := env.createUser(t, "alice")
		err := env.admin.SetBotConfig(alice, nil, nil)
		assert.ErrorIs(err, model.ErrorUserNotFound)

		bad := 1.5
		assert.ErrorIs(env.admin.SetBotConfig(bot.PublicKey, nil, &bad), model.ErrorInvalidAmount)

		probability := 0.75
		inactive := false
		assert.Nil(env.admin.SetBotConfig(bot.PublicKey, &inactive, &probability))

		active, err := env.admin.Bots(false)
		assert.Nil(err)
		for _, b := range active {
			assert.NotEqual(bot.PublicKey, b.PublicKey)
		}

		all, err := env.admin.Bots(true)
		assert.Nil(err)
		for _, b := range all {
			if b.PublicKey == bot.PublicKey {
				assert.Equal(0.75, b.ActionProbability)
				assert.False(b.IsActive)
			}
		}
	})
}

func TestNuke(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)
	env.createUser(t, "alice")

	assert.Nil(env.admin.Nuke())

	count, err := store.CountUsers(env.store.DB())
	assert.Nil(err)
	assert.Equal(0, count)
}

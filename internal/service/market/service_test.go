package market

import (
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"hearthcoin/internal/model"
	"hearthcoin/internal/service/asset"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/service/notify"
	"hearthcoin/internal/store"
)

type testEnv struct {
	store  *store.Store
	ledger *ledger.Service
	assets *asset.Service
	market *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(":memory:")
	assert.Nil(t, err)
	t.Cleanup(func() { st.Close() })

	lg := ledger.New(st)
	nt := notify.New(st)
	return &testEnv{
		store:  st,
		ledger: lg,
		assets: asset.New(st, lg),
		market: New(st, lg, nt),
	}
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

func (env *testEnv) mintCapsule(t *testing.T, owner string) string {
	t.Helper()
	id, err := env.assets.Mint(owner, "TIME_CAPSULE", map[string]any{
		"content":        "hello future",
		"days_to_reveal": 30.0,
	})
	assert.Nil(t, err)
	return id
}

func (env *testEnv) balance(t *testing.T, key string) float64 {
	t.Helper()
	balance, err := env.ledger.Balance(key)
	assert.Nil(t, err)
	return balance
}

func (env *testEnv) listingFor(t *testing.T, lister string) *model.Listing {
	t.Helper()
	listings, err := store.ActiveListingsBy(env.store.DB(), lister)
	assert.Nil(t, err)
	assert.NotEmpty(t, listings)
	return &listings[0]
}

func (env *testEnv) notificationCount(t *testing.T, key string) int {
	t.Helper()
	count, err := store.UnreadNotificationCount(env.store.DB(), key)
	assert.Nil(t, err)
	return count
}

func TestSaleFlow(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	alice := env.createUser(t, "alice", 100)
	bob := env.createUser(t, "bob", 100)
	capsule := env.mintCapsule(t, alice)

	_, err := env.market.CreateListing(alice, &model.CreateListingMessage{
		ListingType: "SALE",
		AssetID:     capsule,
		Description: "old capsule",
		Price:       30,
	})
	assert.Nil(err)

	held, err := store.GetAsset(env.store.DB(), capsule)
	assert.Nil(err)
	assert.Equal(model.EscrowAccount, held.OwnerKey)

	listing := env.listingFor(t, alice)

	t.Run("lister cannot buy their own listing", func(t *testing.T) {
		_, err := env.market.Buy(alice, listing.ID)
		assert.ErrorIs(err, model.ErrorOwnListing)
	})

	t.Run("buyer without funds is rejected", func(t *testing.T) {
		broke := env.createUser(t, "broke", 5)
		_, err := env.market.Buy(broke, listing.ID)
		assert.ErrorIs(err, model.ErrorInsufficientFunds)
	})

	t.Run("purchase settles funds, asset and notifications", func(t *testing.T) {
		_, err := env.market.Buy(bob, listing.ID)
		assert.Nil(err)

		assert.Equal(130.0, env.balance(t, alice))
		assert.Equal(70.0, env.balance(t, bob))

		bought, err := store.GetAsset(env.store.DB(), capsule)
		assert.Nil(err)
		assert.Equal(bob, bought.OwnerKey)

		sold, err := store.GetListing(env.store.DB(), listing.ID)
		assert.Nil(err)
		assert.Equal(model.ListingStatusSold, sold.Status)

		trades, err := env.market.TradeHistory(10)
		assert.Nil(err)
		assert.Len(trades, 1)
		assert.Equal(alice, trades[0].SellerKey)
		assert.Equal(bob, trades[0].BuyerKey)

		assert.Greater(env.notificationCount(t, alice), 0)
		assert.Greater(env.notificationCount(t, bob), 0)
	})

	t.Run("second buyer loses the race", func(t *testing.T) {
		carol := env.createUser(t, "carol", 100)
		_, err := env.market.Buy(carol, listing.ID)
		assert.ErrorIs(err, model.ErrorListingNotActive)
	})
}

func TestCancelListing(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	alice := env.createUser(t, "alice", 100)
	bob := env.createUser(t, "bob", 100)
	capsule := env.mintCapsule(t, alice)

	_, err := env.market.CreateListing(alice, &model.CreateListingMessage{
		ListingType: "SALE", AssetID: capsule, Price: 30,
	})
	assert.Nil(err)
	listing := env.listingFor(t, alice)

	t.Run("only the lister may cancel", func(t *testing.T) {
		_, err := env.market.CancelListing(bob, listing.ID)
		assert.ErrorIs(err, model.ErrorNotOwner)
	})

	t.Run("cancel returns the escrowed asset", func(t *testing.T) {
		_, err := env.market.CancelListing(alice, listing.ID)
		assert.Nil(err)

		returned, err := store.GetAsset(env.store.DB(), capsule)
		assert.Nil(err)
		assert.Equal(alice, returned.OwnerKey)

		cancelled, err := store.GetListing(env.store.DB(), listing.ID)
		assert.Nil(err)
		assert.Equal(model.ListingStatusCancelled, cancelled.Status)
	})
}

func TestAuctionFlow(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	alice := env.createUser(t, "alice", 100)
	bob := env.createUser(t, "bob", 100)
	carol := env.createUser(t, "carol", 100)
	capsule := env.mintCapsule(t, alice)

	_, err := env.market.CreateListing(alice, &model.CreateListingMessage{
		ListingType:  "AUCTION",
		AssetID:      capsule,
		Price:        10,
		AuctionHours: 1,
	})
	assert.Nil(err)
	listing := env.listingFor(t, alice)

	t.Run("first bid must meet the starting price", func(t *testing.T) {
		_, err := env.market.PlaceBid(bob, listing.ID, 5)
		assert.ErrorIs(err, model.ErrorBidTooLow)
	})

	t.Run("a valid bid is escrowed", func(t *testing.T) {
		_, err := env.market.PlaceBid(bob, listing.ID, 10)
		assert.Nil(err)
		assert.Equal(90.0, env.balance(t, bob))
		assert.Equal(10.0, env.balance(t, model.EscrowAccount))
	})

	t.Run("equal bids are rejected", func(t *testing.T) {
		_, err := env.market.PlaceBid(carol, listing.ID, 10)
		assert.ErrorIs(err, model.ErrorBidTooLow)
	})

	t.Run("a higher bid refunds the previous bidder", func(t *testing.T) {
		_, err := env.market.PlaceBid(carol, listing.ID, 15)
		assert.Nil(err)
		assert.Equal(100.0, env.balance(t, bob))
		assert.Equal(85.0, env.balance(t, carol))
		assert.Equal(15.0, env.balance(t, model.EscrowAccount))
	})

	t.Run("cancelling an auction with bids fails", func(t *testing.T) {
		_, err := env.market.CancelListing(alice, listing.ID)
		assert.ErrorIs(err, model.ErrorListingNotActive)
	})

	t.Run("settlement pays the seller and hands over the asset", func(t *testing.T) {
		// force the end time into the past
		_, err := env.store.DB().Exec("update market_listings set end_time = ? where listing_id = ?",
			float64(time.Now().Unix())-10, listing.ID)
		assert.Nil(err)

		settled, err := env.market.ResolveFinishedAuctions()
		assert.Nil(err)
		assert.Equal(1, settled)

		assert.Equal(115.0, env.balance(t, alice))
		assert.Equal(0.0, env.balance(t, model.EscrowAccount))

		won, err := store.GetAsset(env.store.DB(), capsule)
		assert.Nil(err)
		assert.Equal(carol, won.OwnerKey)

		done, err := store.GetListing(env.store.DB(), listing.ID)
		assert.Nil(err)
		assert.Equal(model.ListingStatusSold, done.Status)

		// a second sweep finds nothing
		settled, err = env.market.ResolveFinishedAuctions()
		assert.Nil(err)
		assert.Equal(0, settled)
	})
}

func TestAuctionWithoutBidsExpires(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	alice := env.createUser(t, "alice", 100)
	capsule := env.mintCapsule(t, alice)

	_, err := env.market.CreateListing(alice, &model.CreateListingMessage{
		ListingType: "AUCTION", AssetID: capsule, Price: 10, AuctionHours: 1,
	})
	assert.Nil(err)
	listing := env.listingFor(t, alice)

	_, err = env.store.DB().Exec("update market_listings set end_time = ? where listing_id = ?",
		float64(time.Now().Unix())-10, listing.ID)
	assert.Nil(err)

	settled, err := env.market.ResolveFinishedAuctions()
	assert.Nil(err)
	assert.Equal(1, settled)

	returned, err := store.GetAsset(env.store.DB(), capsule)
	assert.Nil(err)
	assert.Equal(alice, returned.OwnerKey)

	expired, err := store.GetListing(env.store.DB(), listing.ID)
	assert.Nil(err)
	assert.Equal(model.ListingStatusExpired, expired.Status)
}

func TestSeekFlow(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	alice := env.createUser(t, "alice", 100)
	bob := env.createUser(t, "bob", 100)
	carol := env.createUser(t, "carol", 100)
	bobCapsule := env.mintCapsule(t, bob)
	carolCapsule := env.mintCapsule(t, carol)

	_, err := env.market.CreateListing(alice, &model.CreateListingMessage{
		ListingType: "SEEK",
		AssetType:   "TIME_CAPSULE",
		Description: "looking for a capsule",
		Price:       20,
	})
	assert.Nil(err)
	listing := env.listingFor(t, alice)

	t.Run("seek budget is escrowed up front", func(t *testing.T) {
		assert.Equal(80.0, env.balance(t, alice))
		assert.Equal(20.0, env.balance(t, model.EscrowAccount))
	})

	t.Run("offers of the wrong type are rejected", func(t *testing.T) {
		planet, err := env.assets.Mint(bob, "PLANET", map[string]any{})
		assert.Nil(err)
		_, err = env.market.MakeOffer(bob, &model.MakeOfferMessage{
			ListingID: listing.ID, OfferedAssetID: planet,
		})
		assert.ErrorIs(err, model.ErrorOfferTypeMismatch)
	})

	t.Run("duplicate offers are rejected", func(t *testing.T) {
		_, err := env.market.MakeOffer(bob, &model.MakeOfferMessage{
			ListingID: listing.ID, OfferedAssetID: bobCapsule,
		})
		assert.Nil(err)
		_, err = env.market.MakeOffer(bob, &model.MakeOfferMessage{
			ListingID: listing.ID, OfferedAssetID: bobCapsule,
		})
		assert.ErrorIs(err, model.ErrorDuplicateOffer)
	})

	t.Run("accepting one offer rejects the rest", func(t *testing.T) {
		_, err := env.market.MakeOffer(carol, &model.MakeOfferMessage{
			ListingID: listing.ID, OfferedAssetID: carolCapsule,
		})
		assert.Nil(err)

		offers, err := env.market.Offers(listing.ID)
		assert.Nil(err)
		assert.Len(offers, 2)

		var bobOffer string
		for _, offer := range offers {
			if offer.OffererKey == bob {
				bobOffer = offer.ID
			}
		}

		_, err = env.market.RespondOffer(alice, bobOffer, true)
		assert.Nil(err)

		assert.Equal(120.0, env.balance(t, bob))
		assert.Equal(0.0, env.balance(t, model.EscrowAccount))

		traded, err := store.GetAsset(env.store.DB(), bobCapsule)
		assert.Nil(err)
		assert.Equal(alice, traded.OwnerKey)

		fulfilled, err := store.GetListing(env.store.DB(), listing.ID)
		assert.Nil(err)
		assert.Equal(model.ListingStatusFulfilled, fulfilled.Status)

		offers, err = env.market.Offers(listing.ID)
		assert.Nil(err)
		for _, offer := range offers {
			if offer.OffererKey == carol {
				assert.Equal(model.OfferStatusRejected, offer.Status)
			}
		}
	})
}

func TestPurgeUnwindsMarketState(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	alice := env.createUser(t, "alice", 100)
	bob := env.createUser(t, "bob", 100)
	capsule := env.mintCapsule(t, alice)

	_, err := env.market.CreateListing(alice, &model.CreateListingMessage{
		ListingType: "AUCTION", AssetID: capsule, Price: 10, AuctionHours: 1,
	})
	assert.Nil(err)
	listing := env.listingFor(t, alice)
	_, err = env.market.PlaceBid(bob, listing.ID, 12)
	assert.Nil(err)

	err = env.store.WithTx(func(tx *sqlx.Tx) error {
		return env.market.PurgeUserTx(tx, alice)
	})
	assert.Nil(err)

	// the bidder got their escrowed funds back
	assert.Equal(100.0, env.balance(t, bob))
	assert.Equal(0.0, env.balance(t, model.EscrowAccount))

	returned, err := store.GetAsset(env.store.DB(), capsule)
	assert.Nil(err)
	assert.Equal(alice, returned.OwnerKey)

	cancelled, err := store.GetListing(env.store.DB(), listing.ID)
	assert.Nil(err)
	assert.Equal(model.ListingStatusCancelled, cancelled.Status)
}

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hearthcoin/internal/boot"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/service/notify"
	"hearthcoin/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store, *ledger.Service) {
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
	return New(st, lg, notify.New(st), config), st, lg
}

func TestGenesisRegister(t *testing.T) {
	assert := assert.New(t)
	svc, _, lg := newTestService(t)

	t.Run("rejects the wrong operator password", func(t *testing.T) {
		_, err := svc.GenesisRegister("founder", "hunter22", "wrong")
		assert.ErrorIs(err, model.ErrorGenesisPassword)
	})

	t.Run("creates the first account", func(t *testing.T) {
		founder, err := svc.GenesisRegister("founder", "hunter22", "letmein")
		assert.Nil(err)
		assert.Equal("000", founder.UID)
		assert.Equal(model.InvitedByGenesis, founder.InvitedBy)
		assert.NotEmpty(founder.PrivateKeyPEM)

		balance, err := lg.Balance(founder.PublicKey)
		assert.Nil(err)
		assert.Equal(300.0, balance)
	})

	t.Run("only works once", func(t *testing.T) {
		_, err := svc.GenesisRegister("second", "hunter22", "letmein")
		assert.ErrorIs(err, model.ErrorSystemInitialized)
	})
}

func TestRegisterWithInvitation(t *testing.T) {
	assert := assert.New(t)
	svc, st, lg := newTestService(t)

	founder, err := svc.GenesisRegister("founder", "hunter22", "letmein")
	assert.Nil(err)

	t.Run("rejects unknown codes", func(t *testing.T) {
		_, err := svc.Register("newbie", "hunter22", "NOPE1234")
		assert.ErrorIs(err, model.ErrorInvalidInvitationCode)
	})

	code, err := svc.GenerateInvite(founder.PublicKey)
	assert.Nil(err)

	t.Run("redeems a code, funds both sides and befriends them", func(t *testing.T) {
		newbie, err := svc.Register("newbie", "hunter22", code.Code)
		assert.Nil(err)
		assert.Equal(founder.PublicKey, newbie.InvitedBy)
		assert.Len(newbie.UID, 8)

		balance, err := lg.Balance(newbie.PublicKey)
		assert.Nil(err)
		assert.Equal(300.0, balance)

		// 300 welcome + 200 referral
		founderBalance, err := lg.Balance(founder.PublicKey)
		assert.Nil(err)
		assert.Equal(500.0, founderBalance)

		friendship, err := store.GetFriendship(st.DB(), founder.PublicKey, newbie.PublicKey)
		assert.Nil(err)
		assert.NotNil(friendship)
		assert.Equal(model.FriendshipAccepted, friendship.Status)
	})

	t.Run("a code cannot be redeemed twice", func(t *testing.T) {
		_, err := svc.Register("another", "hunter22", code.Code)
		assert.ErrorIs(err, model.ErrorInvalidInvitationCode)
	})

	t.Run("usernames are unique", func(t *testing.T) {
		second, err := svc.GenerateInvite(founder.PublicKey)
		assert.Nil(err)
		_, err = svc.Register("newbie", "hunter22", second.Code)
		assert.ErrorIs(err, model.ErrorUsernameTaken)
	})

	t.Run("quota runs out", func(t *testing.T) {
		assert.Nil(store.SetUserQuota(st.DB(), founder.PublicKey, 0))
		_, err := svc.GenerateInvite(founder.PublicKey)
		assert.ErrorIs(err, model.ErrorQuotaExhausted)
	})
}

func TestLogin(t *testing.T) {
	assert := assert.New(t)
	svc, st, _ := newTestService(t)

	founder, err := svc.GenesisRegister("founder", "hunter22", "letmein")
	assert.Nil(err)

	t.Run("issues a parseable session token", func(t *testing.T) {
		token, account, err := svc.Login("founder", "hunter22")
		assert.Nil(err)
		assert.Equal(founder.PublicKey, account.PublicKey)

		subject, err := svc.ParseSession(token)
		assert.Nil(err)
		assert.Equal(founder.PublicKey, subject)
	})

	t.Run("accepts the uid as handle", func(t *testing.T) {
		_, account, err := svc.Login("000", "hunter22")
		assert.Nil(err)
		assert.Equal("founder", account.Username)
	})

	t.Run("rejects bad credentials without leaking which part failed", func(t *testing.T) {
		_, _, err := svc.Login("founder", "wrong")
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
		_, _, err = svc.Login("ghost", "hunter22")
		assert.ErrorIs(err, model.ErrorInvalidUsernameOrPassword)
	})

	t.Run("rejects tampered tokens", func(t *testing.T) {
		_, err := svc.ParseSession("eyJhbGciOiJIUzI1NiJ9.e30.bogus")
		assert.ErrorIs(err, model.ErrorInvalidSignature)
	})

	t.Run("rejects deactivated accounts", func(t *testing.T) {
		assert.Nil(store.SetUserActive(st.DB(), founder.PublicKey, false))
		_, _, err := svc.Login("founder", "hunter22")
		assert.ErrorIs(err, model.ErrorUserInactive)
	})
}

func TestTransfer(t *testing.T) {
	assert := assert.New(t)
	svc, st, lg := newTestService(t)

	founder, err := svc.GenesisRegister("founder", "hunter22", "letmein")
	assert.Nil(err)
	code, err := svc.GenerateInvite(founder.PublicKey)
	assert.Nil(err)
	newbie, err := svc.Register("newbie", "hunter22", code.Code)
	assert.Nil(err)

	t.Run("sender must match the signed body", func(t *testing.T) {
		msg := &model.TransferMessage{FromKey: newbie.PublicKey, ToKey: founder.PublicKey, Amount: 10}
		_, err := svc.Transfer(founder.PublicKey, msg, "{}", "sig")
		assert.ErrorIs(err, model.ErrorSenderMismatch)
	})

	t.Run("moves funds and notifies the recipient", func(t *testing.T) {
		msg := &model.TransferMessage{
			FromKey: founder.PublicKey,
			ToKey:   newbie.PublicKey,
			Amount:  50,
			Note:    "pocket money",
		}
		detail, err := svc.Transfer(founder.PublicKey, msg, `{"wire":"bytes"}`, "sig")
		assert.Nil(err)
		assert.NotEmpty(detail)

		founderBalance, _ := lg.Balance(founder.PublicKey)
		newbieBalance, _ := lg.Balance(newbie.PublicKey)
		assert.Equal(450.0, founderBalance)
		assert.Equal(350.0, newbieBalance)

		unread, err := store.UnreadNotificationCount(st.DB(), newbie.PublicKey)
		assert.Nil(err)
		assert.Greater(unread, 0)
	})
}

func TestFriendships(t *testing.T) {
	assert := assert.New(t)
	svc, _, _ := newTestService(t)

	founder, err := svc.GenesisRegister("founder", "hunter22", "letmein")
	assert.Nil(err)

	invite := func() string {
		code, err := svc.GenerateInvite(founder.PublicKey)
		assert.Nil(err)
		return code.Code
	}
	alice, err := svc.Register("alice", "hunter22", invite())
	assert.Nil(err)
	bob, err := svc.Register("bob", "hunter22", invite())
	assert.Nil(err)

	t.Run("request and accept", func(t *testing.T) {
		assert.Nil(svc.RequestFriend(alice.PublicKey, bob.PublicKey))
		assert.ErrorIs(svc.RequestFriend(alice.PublicKey, bob.PublicKey), model.ErrorFriendshipExists)

		// the requester cannot accept their own request
		err := svc.RespondFriend(alice.PublicKey, bob.PublicKey, true)
		assert.ErrorIs(err, model.ErrorNoPendingRequest)

		requests, err := svc.FriendRequests(bob.PublicKey)
		assert.Nil(err)
		assert.Len(requests, 1)
		assert.Equal("alice", requests[0].Username)

		assert.Nil(svc.RespondFriend(bob.PublicKey, alice.PublicKey, true))

		friends, err := svc.Friends(alice.PublicKey)
		assert.Nil(err)
		// the founder from registration, plus bob
		assert.Len(friends, 2)
	})

	t.Run("remove", func(t *testing.T) {
		assert.Nil(svc.RemoveFriend(alice.PublicKey, bob.PublicKey))
		assert.ErrorIs(svc.RemoveFriend(alice.PublicKey, bob.PublicKey), model.ErrorNotFriends)
	})

	t.Run("visibility follows the invitation tree", func(t *testing.T) {
		// the founder is genesis-invited and sees every active account
		visible, err := svc.Visible(founder.PublicKey)
		assert.Nil(err)
		assert.Len(visible, 3)

		// later generations see only their friends
		visible, err = svc.Visible(alice.PublicKey)
		assert.Nil(err)
		assert.Len(visible, 1)
	})
}

func TestUserDetailsAndProfile(t *testing.T) {
	assert := assert.New(t)
	svc, _, _ := newTestService(t)

	founder, err := svc.GenesisRegister("founder", "hunter22", "letmein")
	assert.Nil(err)
	code, err := svc.GenerateInvite(founder.PublicKey)
	assert.Nil(err)
	newbie, err := svc.Register("newbie", "hunter22", code.Code)
	assert.Nil(err)

	t.Run("details resolve the inviter", func(t *testing.T) {
		details, err := svc.Details("newbie")
		assert.Nil(err)
		assert.Equal("founder", details.InviterUsername)
		assert.Greater(details.TxCount, 0)

		details, err = svc.Details("founder")
		assert.Nil(err)
		assert.Equal("system", details.InviterUsername)
	})

	t.Run("profile round trip", func(t *testing.T) {
		err := svc.UpdateProfile(newbie.PublicKey, &model.ProfileUpdateMessage{
			Signature: "carpe diem",
		})
		assert.Nil(err)

		profile, err := svc.Profile("newbie")
		assert.Nil(err)
		assert.Equal("carpe diem", profile.Signature)
		assert.Empty(profile.DisplayedNFTs)
	})

	t.Run("displayed items must be owned", func(t *testing.T) {
		err := svc.UpdateProfile(newbie.PublicKey, &model.ProfileUpdateMessage{
			DisplayedNFTs: []string{"not-an-asset"},
		})
		assert.ErrorIs(err, model.ErrorAssetNotFound)
	})
}

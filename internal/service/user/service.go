package user

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"hearthcoin/internal/boot"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/service/notify"
	"hearthcoin/internal/store"
	"hearthcoin/pkg/crypt"
)

const (
	minPasswordLength = 4
	maxDisplayedNFTs  = 5
	sessionLifetime   = 7 * 24 * time.Hour
)

// Service covers accounts: registration through invitation codes, login
// sessions, transfers, profiles, friendships and invite generation.
// Keys are generated server side; the private key is returned once at
// registration and kept for bot accounts only.
type Service struct {
	store  *store.Store
	ledger *ledger.Service
	notify *notify.Service
	config *boot.Config
}

func New(st *store.Store, lg *ledger.Service, nt *notify.Service, config *boot.Config) *Service {
	return &Service{store: st, ledger: lg, notify: nt, config: config}
}

// Register redeems an invitation code and creates a funded account. The
// welcome and inviter bonuses come out of the genesis account.
func (s *Service) Register(username string, password string, invitationCode string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", model.ErrorMalformedMessage)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters",
			model.ErrorMalformedMessage, minPasswordLength)
	}

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	var created *model.User
	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		code, err := store.GetInvitationCode(tx, invitationCode)
		if err != nil {
			return err
		}
		now := float64(time.Now().Unix())
		if code.IsUsed || now-code.CreatedAt > model.InvitationCodeTTL {
			return fmt.Errorf("%w: code already used or expired", model.ErrorInvalidInvitationCode)
		}

		quota := store.SettingInt(tx, model.SettingDefaultInvitationQuota, 3)

		user := &model.User{
			PublicKey:       pubPEM,
			UID:             model.NewUID(),
			Username:        username,
			PasswordHash:    passwordHash,
			CreatedAt:       now,
			IsActive:        true,
			InvitedBy:       code.GeneratedBy,
			InvitationQuota: quota,
			PrivateKeyPEM:   privPEM,
		}
		if err := store.CreateUser(tx, user); err != nil {
			return err
		}
		if err := store.MarkInvitationCodeUsed(tx, code.Code, user.PublicKey); err != nil {
			return err
		}

		welcome := store.SettingFloat(tx, model.SettingWelcomeBonusAmount, 300)
		if welcome > 0 {
			if err := s.ledger.SystemTransferTx(tx, model.GenesisAccount, user.PublicKey, welcome, "Welcome bonus"); err != nil {
				return err
			}
		}

		// a real inviter gets the referral bonus and an automatic friendship
		if inviter, err := store.GetUser(tx, code.GeneratedBy); err == nil {
			bonus := store.SettingFloat(tx, model.SettingInviterBonusAmount, 200)
			if bonus > 0 {
				note := fmt.Sprintf("Invitation bonus: %s joined", username)
				if err := s.ledger.SystemTransferTx(tx, model.GenesisAccount, inviter.PublicKey, bonus, note); err != nil {
					return err
				}
			}
			if err := store.CreateFriendship(tx, &model.Friendship{
				User1:         user.PublicKey,
				User2:         inviter.PublicKey,
				Status:        model.FriendshipAccepted,
				ActionUserKey: inviter.PublicKey,
				CreatedAt:     now,
			}); err != nil {
				return err
			}
			if err := s.notify.PushTx(tx, inviter.PublicKey,
				fmt.Sprintf("🎉 %s joined with your invitation!", username)); err != nil {
				return err
			}
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GenesisRegister creates the very first account. It requires the
// operator password and only works on an empty user table.
func (s *Service) GenesisRegister(username string, password string, genesisPassword string) (*model.User, error) {
	if genesisPassword != s.config.Admin.GenesisPassword {
		return nil, model.ErrorGenesisPassword
	}

	privPEM, pubPEM, err := crypt.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	var created *model.User
	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		count, err := store.CountUsers(tx)
		if err != nil {
			return err
		}
		if count > 0 {
			return model.ErrorSystemInitialized
		}

		user := &model.User{
			PublicKey:       pubPEM,
			UID:             "000",
			Username:        username,
			PasswordHash:    passwordHash,
			CreatedAt:       float64(time.Now().Unix()),
			IsActive:        true,
			InvitedBy:       model.InvitedByGenesis,
			InvitationQuota: 999999,
			PrivateKeyPEM:   privPEM,
		}
		if err := store.CreateUser(tx, user); err != nil {
			return err
		}

		welcome := store.SettingFloat(tx, model.SettingWelcomeBonusAmount, 300)
		if welcome > 0 {
			if err := s.ledger.SystemTransferTx(tx, model.GenesisAccount, user.PublicKey, welcome, "Welcome bonus"); err != nil {
				return err
			}
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login checks the password and issues a session token. Bots cannot log
// in; their keys act through signed messages only.
func (s *Service) Login(handle string, password string) (string, *model.User, error) {
	user, err := store.GetUserByHandle(s.store.DB(), handle)
	if err != nil {
		return "", nil, model.ErrorInvalidUsernameOrPassword
	}
	if user.IsBot {
		return "", nil, model.ErrorInvalidUsernameOrPassword
	}
	if err := checkPassword(user.PasswordHash, password); err != nil {
		return "", nil, model.ErrorInvalidUsernameOrPassword
	}
	if !user.IsActive {
		return "", nil, model.ErrorUserInactive
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.PublicKey,
		"iat": now.Unix(),
		"exp": now.Add(sessionLifetime).Unix(),
	})
	signed, err := token.SignedString([]byte(s.config.SessionSecret))
	if err != nil {
		return "", nil, fmt.Errorf("signing session token: %w", err)
	}
	return signed, user, nil
}

// ParseSession returns the public key a session token was issued for.
func (s *Service) ParseSession(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return "", model.ErrorInvalidSignature
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", model.ErrorInvalidSignature
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", model.ErrorInvalidSignature
	}
	return sub, nil
}

// Transfer moves currency between two users. The raw signed bytes go
// into the transaction row so anyone can re-verify it later.
func (s *Service) Transfer(fromKey string, msg *model.TransferMessage, rawMessage string, signature string) (string, error) {
	if msg.FromKey != fromKey {
		return "", model.ErrorSenderMismatch
	}

	sender, err := store.GetUser(s.store.DB(), fromKey)
	if err != nil {
		return "", err
	}
	if !sender.IsActive {
		return "", model.ErrorUserInactive
	}

	err = s.store.WithTx(func(tx *sqlx.Tx) error {
		if err := s.ledger.TransferTx(tx, msg.FromKey, msg.ToKey, msg.Amount, rawMessage, signature, msg.Note); err != nil {
			return err
		}
		text := fmt.Sprintf("💸 You received %.4f from %s.", msg.Amount, sender.Username)
		if msg.Note != "" {
			text = fmt.Sprintf("%s Note: %s", text, msg.Note)
		}
		return s.notify.PushTx(tx, msg.ToKey, text)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent %.4f.", msg.Amount), nil
}

// Details resolves a user by username, uid or public key and fills in
// the inviter line and transaction count.
func (s *Service) Details(handle string) (*model.UserDetails, error) {
	db := s.store.DB()
	user, err := store.GetUserByHandle(db, handle)
	if err != nil {
		user, err = store.GetUser(db, handle)
		if err != nil {
			return nil, err
		}
	}

	details := &model.UserDetails{
		PublicKey:       user.PublicKey,
		Username:        user.Username,
		UID:             user.UID,
		CreatedAt:       user.CreatedAt,
		InvitationQuota: user.InvitationQuota,
		InvitedBy:       user.InvitedBy,
		IsActive:        user.IsActive,
	}

	switch user.InvitedBy {
	case model.InvitedByGenesis:
		details.InviterUsername = "system"
	case model.InvitedByBotSystem:
		details.InviterUsername = "bot system"
	default:
		if inviter, err := store.GetUser(db, user.InvitedBy); err == nil {
			details.InviterUsername = inviter.Username
			details.InviterUID = inviter.UID
		}
	}

	count, err := store.CountTransactions(db, user.PublicKey)
	if err != nil {
		return nil, err
	}
	details.TxCount = count
	return details, nil
}

type ProfileView struct {
	Username      string        `json:"username"`
	UID           string        `json:"uid"`
	PublicKey     string        `json:"public_key"`
	Signature     string        `json:"signature"`
	UpdatedAt     float64       `json:"updated_at"`
	DisplayedNFTs []model.Asset `json:"displayed_nfts"`
}

// Profile returns a user's public profile. Displayed items the user no
// longer owns are filtered out at read time.
func (s *Service) Profile(handle string) (*ProfileView, error) {
	db := s.store.DB()
	user, err := store.GetUserByHandle(db, handle)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{
		Username:      user.Username,
		UID:           user.UID,
		PublicKey:     user.PublicKey,
		DisplayedNFTs: []model.Asset{},
	}

	profile, err := store.GetProfile(db, user.PublicKey)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return view, nil
	}
	view.Signature = profile.Signature
	view.UpdatedAt = profile.UpdatedAt

	ids := []string{}
	if profile.DisplayedNFTs != "" {
		if err := json.Unmarshal([]byte(profile.DisplayedNFTs), &ids); err != nil {
			return nil, fmt.Errorf("decoding displayed items: %w", err)
		}
	}
	for _, id := range ids {
		asset, err := store.GetAsset(db, id)
		if err != nil {
			continue
		}
		if asset.OwnerKey == user.PublicKey && asset.Status == model.AssetStatusActive {
			view.DisplayedNFTs = append(view.DisplayedNFTs, *asset)
		}
	}
	return view, nil
}

func (s *Service) UpdateProfile(ownerKey string, msg *model.ProfileUpdateMessage) error {
	if len(msg.DisplayedNFTs) > maxDisplayedNFTs {
		return fmt.Errorf("%w: at most %d items can be displayed",
			model.ErrorMalformedMessage, maxDisplayedNFTs)
	}

	db := s.store.DB()
	for _, id := range msg.DisplayedNFTs {
		asset, err := store.GetAsset(db, id)
		if err != nil {
			return err
		}
		if asset.OwnerKey != ownerKey {
			return model.ErrorNotOwner
		}
		if asset.Status != model.AssetStatusActive {
			return model.ErrorAssetNotActive
		}
	}

	encoded, err := json.Marshal(msg.DisplayedNFTs)
	if err != nil {
		return fmt.Errorf("encoding displayed items: %w", err)
	}
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		return store.UpsertProfile(tx, &model.Profile{
			PublicKey:     ownerKey,
			Signature:     msg.Signature,
			DisplayedNFTs: string(encoded),
			UpdatedAt:     float64(time.Now().Unix()),
		})
	})
}

// GenerateInvite spends one unit of quota and returns a fresh code.
func (s *Service) GenerateInvite(ownerKey string) (*model.InvitationCode, error) {
	var code *model.InvitationCode
	err := s.store.WithTx(func(tx *sqlx.Tx) error {
		user, err := store.GetUser(tx, ownerKey)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return model.ErrorUserInactive
		}
		if user.InvitationQuota <= 0 {
			return model.ErrorQuotaExhausted
		}
		if err := store.SetUserQuota(tx, ownerKey, user.InvitationQuota-1); err != nil {
			return err
		}

		code = &model.InvitationCode{
			Code:        model.NewInvitationCode(),
			GeneratedBy: ownerKey,
			CreatedAt:   float64(time.Now().Unix()),
		}
		return store.CreateInvitationCode(tx, code)
	})
	if err != nil {
		return nil, err
	}
	return code, nil
}

func (s *Service) Invitations(ownerKey string) ([]model.InvitationCode, error) {
	return store.InvitationCodesBy(s.store.DB(), ownerKey)
}

// RequestFriend opens a PENDING friendship towards another user.
func (s *Service) RequestFriend(ownerKey string, targetKey string) error {
	if ownerKey == targetKey {
		return fmt.Errorf("%w: cannot befriend yourself", model.ErrorMalformedMessage)
	}

	return s.store.WithTx(func(tx *sqlx.Tx) error {
		target, err := store.GetUser(tx, targetKey)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return model.ErrorRecipientInactive
		}

		existing, err := store.GetFriendship(tx, ownerKey, targetKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.ErrorFriendshipExists
		}
		if err := store.CreateFriendship(tx, &model.Friendship{
			User1:         ownerKey,
			User2:         targetKey,
			Status:        model.FriendshipPending,
			ActionUserKey: ownerKey,
			CreatedAt:     float64(time.Now().Unix()),
		}); err != nil {
			return err
		}

		requester := username(tx, ownerKey)
		return s.notify.PushTx(tx, targetKey,
			fmt.Sprintf("👋 %s sent you a friend request.", requester))
	})
}

// RespondFriend accepts or declines a request addressed to ownerKey.
func (s *Service) RespondFriend(ownerKey string, requesterKey string, accept bool) error {
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		friendship, err := store.GetFriendship(tx, ownerKey, requesterKey)
		if err != nil {
			return err
		}
		if friendship == nil || friendship.Status != model.FriendshipPending ||
			friendship.ActionUserKey == ownerKey {
			return model.ErrorNoPendingRequest
		}

		if !accept {
			return store.DeleteFriendship(tx, ownerKey, requesterKey)
		}
		if err := store.UpdateFriendshipStatus(tx, ownerKey, requesterKey,
			model.FriendshipAccepted); err != nil {
			return err
		}
		return s.notify.PushTx(tx, requesterKey,
			fmt.Sprintf("🤝 %s accepted your friend request.", username(tx, ownerKey)))
	})
}

func (s *Service) RemoveFriend(ownerKey string, targetKey string) error {
	return s.store.WithTx(func(tx *sqlx.Tx) error {
		friendship, err := store.GetFriendship(tx, ownerKey, targetKey)
		if err != nil {
			return err
		}
		if friendship == nil || friendship.Status != model.FriendshipAccepted {
			return model.ErrorNotFriends
		}
		return store.DeleteFriendship(tx, ownerKey, targetKey)
	})
}

func (s *Service) Friends(ownerKey string) ([]model.UserSummary, error) {
	return store.Friends(s.store.DB(), ownerKey)
}

func (s *Service) FriendRequests(ownerKey string) ([]model.FriendRequest, error) {
	return store.FriendRequestsFor(s.store.DB(), ownerKey)
}

// Visible lists the accounts a user may see: first-generation members
// see everyone, later generations see their friends.
func (s *Service) Visible(requesterKey string) ([]model.UserSummary, error) {
	requester, err := store.GetUser(s.store.DB(), requesterKey)
	if err != nil {
		return nil, err
	}
	if requester.InvitedBy == model.InvitedByGenesis {
		return store.ActiveUsers(s.store.DB())
	}
	return store.Friends(s.store.DB(), requesterKey)
}

// HashPassword bcrypt-hashes a password and wraps it in base64 for
// storage. The admin surface uses it when resetting accounts.
func HashPassword(password string) (string, error) {
	return hashPassword(password)
}

func hashPassword(password string) (string, error) {
	passwordBytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", fmt.Errorf("generating encoded password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(passwordBytes), nil
}

func checkPassword(encoded string, password string) error {
	hash, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return model.ErrorInvalidUsernameOrPassword
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func username(q sqlx.Ext, publicKey string) string {
	user, err := store.GetUser(q, publicKey)
	if err != nil {
		return "someone"
	}
	return user.Username
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

func CreateUser(q sqlx.Ext, user *model.User) error {
	_, err := q.Exec(`insert into users
		(public_key, uid, username, password_hash, created_at, is_active,
		 invited_by, invitation_quota, private_key_pem, is_bot, bot_type, action_probability)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.PublicKey, user.UID, user.Username, user.PasswordHash, user.CreatedAt,
		user.IsActive, user.InvitedBy, user.InvitationQuota, user.PrivateKeyPEM,
		user.IsBot, user.BotType, user.ActionProbability)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.ErrorUsernameTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func GetUser(q sqlx.Ext, publicKey string) (*model.User, error) {
	user := &model.User{}
	err := sqlx.Get(q, user, "select * from users where public_key = ?", publicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}

// GetUserByHandle resolves a username or uid to a user row.
func GetUserByHandle(q sqlx.Ext, handle string) (*model.User, error) {
	user := &model.User{}
	err := sqlx.Get(q, user, "select * from users where username = ? or uid = ?", handle, handle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("fetching user by handle: %w", err)
	}
	return user, nil
}

func CountUsers(q sqlx.Ext) (int, error) {
	var count int
	if err := sqlx.Get(q, &count, "select count(*) from users"); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func ActiveUsers(q sqlx.Ext) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	err := sqlx.Select(q, &users,
		`select username, public_key, uid from users
		 where is_active = 1 and is_bot = 0 order by username`)
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}
	return users, nil
}

func SetUserActive(q sqlx.Ext, publicKey string, active bool) error {
	res, err := q.Exec("update users set is_active = ? where public_key = ?", active, publicKey)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorUserNotFound
	}
	return nil
}

func SetUserQuota(q sqlx.Ext, publicKey string, quota int) error {
	res, err := q.Exec("update users set invitation_quota = ? where public_key = ?", quota, publicKey)
	if err != nil {
		return fmt.Errorf("updating user quota: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorUserNotFound
	}
	return nil
}

func SetUserPassword(q sqlx.Ext, publicKey string, passwordHash string) error {
	res, err := q.Exec("update users set password_hash = ? where public_key = ?", passwordHash, publicKey)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorUserNotFound
	}
	return nil
}

func SetBotProbability(q sqlx.Ext, publicKey string, probability float64) error {
	res, err := q.Exec(`update users set action_probability = ?
		where public_key = ? and is_bot = 1`, probability, publicKey)
	if err != nil {
		return fmt.Errorf("updating bot config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorUserNotFound
	}
	return nil
}

func DeleteUser(q sqlx.Ext, publicKey string) error {
	if _, err := q.Exec("delete from user_profiles where public_key = ?", publicKey); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if _, err := q.Exec("delete from balances where public_key = ?", publicKey); err != nil {
		return fmt.Errorf("deleting balance: %w", err)
	}
	if _, err := q.Exec("delete from invitation_codes where generated_by = ?", publicKey); err != nil {
		return fmt.Errorf("deleting invitation codes: %w", err)
	}
	if _, err := q.Exec("delete from friendships where user1_key = ? or user2_key = ?", publicKey, publicKey); err != nil {
		return fmt.Errorf("deleting friendships: %w", err)
	}
	if _, err := q.Exec("delete from users where public_key = ?", publicKey); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

func CountTransactions(q sqlx.Ext, publicKey string) (int, error) {
	var count int
	err := sqlx.Get(q, &count,
		"select count(*) from transactions where from_key = ? or to_key = ?", publicKey, publicKey)
	if err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return count, nil
}

// --- profiles ---

func GetProfile(q sqlx.Ext, publicKey string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := sqlx.Get(q, profile, "select * from user_profiles where public_key = ?", publicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return profile, nil
}

func UpsertProfile(q sqlx.Ext, profile *model.Profile) error {
	_, err := q.Exec(`insert into user_profiles (public_key, signature, displayed_nfts, updated_at)
		values (?, ?, ?, ?)
		on conflict (public_key) do update set
			signature = excluded.signature,
			displayed_nfts = excluded.displayed_nfts,
			updated_at = excluded.updated_at`,
		profile.PublicKey, profile.Signature, profile.DisplayedNFTs, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// --- invitation codes ---

func CreateInvitationCode(q sqlx.Ext, code *model.InvitationCode) error {
	_, err := q.Exec(`insert into invitation_codes (code, generated_by, created_at, is_used, used_by)
		values (?, ?, ?, ?, ?)`,
		code.Code, code.GeneratedBy, code.CreatedAt, code.IsUsed, code.UsedBy)
	if err != nil {
		return fmt.Errorf("creating invitation code: %w", err)
	}
	return nil
}

func GetInvitationCode(q sqlx.Ext, code string) (*model.InvitationCode, error) {
	row := &model.InvitationCode{}
	err := sqlx.Get(q, row, "select * from invitation_codes where code = ?", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorInvalidInvitationCode
		}
		return nil, fmt.Errorf("fetching invitation code: %w", err)
	}
	return row, nil
}

func MarkInvitationCodeUsed(q sqlx.Ext, code string, usedBy string) error {
	_, err := q.Exec("update invitation_codes set is_used = 1, used_by = ? where code = ?", usedBy, code)
	if err != nil {
		return fmt.Errorf("marking invitation code used: %w", err)
	}
	return nil
}

func InvitationCodesBy(q sqlx.Ext, publicKey string) ([]model.InvitationCode, error) {
	codes := []model.InvitationCode{}
	err := sqlx.Select(q, &codes,
		"select * from invitation_codes where generated_by = ? order by created_at desc", publicKey)
	if err != nil {
		return nil, fmt.Errorf("listing invitation codes: %w", err)
	}
	return codes, nil
}

// --- friendships ---

// FriendPair returns the canonical ordering of two keys.
func FriendPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func GetFriendship(q sqlx.Ext, a, b string) (*model.Friendship, error) {
	u1, u2 := FriendPair(a, b)
	row := &model.Friendship{}
	err := sqlx.Get(q, row,
		"select * from friendships where user1_key = ? and user2_key = ?", u1, u2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching friendship: %w", err)
	}
	return row, nil
}

func CreateFriendship(q sqlx.Ext, f *model.Friendship) error {
	u1, u2 := FriendPair(f.User1, f.User2)
	_, err := q.Exec(`insert into friendships (user1_key, user2_key, status, action_user_key, created_at)
		values (?, ?, ?, ?, ?)`, u1, u2, f.Status, f.ActionUserKey, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating friendship: %w", err)
	}
	return nil
}

func UpdateFriendshipStatus(q sqlx.Ext, a, b string, status model.FriendshipStatus) error {
	u1, u2 := FriendPair(a, b)
	_, err := q.Exec("update friendships set status = ? where user1_key = ? and user2_key = ?",
		status, u1, u2)
	if err != nil {
		return fmt.Errorf("updating friendship: %w", err)
	}
	return nil
}

func DeleteFriendship(q sqlx.Ext, a, b string) error {
	u1, u2 := FriendPair(a, b)
	_, err := q.Exec("delete from friendships where user1_key = ? and user2_key = ?", u1, u2)
	if err != nil {
		return fmt.Errorf("deleting friendship: %w", err)
	}
	return nil
}

func Friends(q sqlx.Ext, publicKey string) ([]model.UserSummary, error) {
	friends := []model.UserSummary{}
	err := sqlx.Select(q, &friends,
		`select u.username, u.public_key, u.uid from friendships f
		 join users u on u.public_key = case when f.user1_key = ? then f.user2_key else f.user1_key end
		 where (f.user1_key = ? or f.user2_key = ?) and f.status = 'ACCEPTED' and u.is_active = 1
		 order by u.username`,
		publicKey, publicKey, publicKey)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	return friends, nil
}

func FriendRequestsFor(q sqlx.Ext, publicKey string) ([]model.FriendRequest, error) {
	requests := []model.FriendRequest{}
	err := sqlx.Select(q, &requests,
		`select u.username, u.public_key, u.uid, f.created_at from friendships f
		 join users u on u.public_key = f.action_user_key
		 where (f.user1_key = ? or f.user2_key = ?)
		   and f.status = 'PENDING' and f.action_user_key != ?
		 order by f.created_at desc`,
		publicKey, publicKey, publicKey)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	return requests, nil
}

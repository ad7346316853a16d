package notify

import (
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
	"hearthcoin/internal/store"
)

const DefaultInboxSize = 20

type Inbox struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
}

type Service struct {
	store *store.Store
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}

// PushTx writes a notification inside the caller's transaction, so it
// becomes visible exactly when the mutation that caused it commits.
func (s *Service) PushTx(tx *sqlx.Tx, userKey string, msg string) error {
	if model.IsSystemAccount(userKey) {
		return nil
	}
	return store.InsertNotification(tx, &model.Notification{
		ID:        model.CreateID(),
		UserKey:   userKey,
		Message:   msg,
		Timestamp: float64(time.Now().Unix()),
	})
}

func (s *Service) InboxFor(userKey string) (*Inbox, error) {
	rows, err := store.NotificationsFor(s.store.DB(), userKey, DefaultInboxSize)
	if err != nil {
		return nil, err
	}
	unread, err := store.UnreadNotificationCount(s.store.DB(), userKey)
	if err != nil {
		return nil, err
	}
	return &Inbox{Notifications: rows, UnreadCount: unread}, nil
}

func (s *Service) MarkRead(id string, userKey string) error {
	return store.MarkNotificationRead(s.store.DB(), id, userKey)
}

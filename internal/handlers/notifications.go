package handlers

import (
	"github.com/labstack/echo/v4"

	"hearthcoin/internal/gate"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/notify"
	"hearthcoin/pkg/message"
)

type NotificationService interface {
	InboxFor(userKey string) (*notify.Inbox, error)
	MarkRead(id string, userKey string) error
}

func Notifications(notifications NotificationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		inbox, err := notifications.InboxFor(c.Param("key"))
		if err != nil {
			return err
		}
		return c.JSON(200, inbox)
	}
}

func MarkNotificationRead(notifications NotificationService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.NotificationReadMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		if err := notifications.MarkRead(msg.NotifID, ownerKey); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Notification marked read."})
	}
}

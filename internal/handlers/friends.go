package handlers

import (
	"github.com/labstack/echo/v4"

	"hearthcoin/internal/gate"
	"hearthcoin/internal/model"
	"hearthcoin/pkg/message"
)

type FriendService interface {
	RequestFriend(ownerKey string, targetKey string) error
	RespondFriend(ownerKey string, requesterKey string, accept bool) error
	RemoveFriend(ownerKey string, targetKey string) error
	Friends(ownerKey string) ([]model.UserSummary, error)
	FriendRequests(ownerKey string) ([]model.FriendRequest, error)
}

func RequestFriend(friends FriendService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.FriendActionMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		if err := friends.RequestFriend(ownerKey, msg.TargetKey); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Friend request sent."})
	}
}

func RespondFriend(friends FriendService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.FriendRespondMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		if err := friends.RespondFriend(ownerKey, msg.RequesterKey, msg.Accept); err != nil {
			return err
		}
		detail := "Friend request declined."
		if msg.Accept {
			detail = "Friend request accepted."
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func RemoveFriend(friends FriendService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.FriendActionMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		if err := friends.RemoveFriend(ownerKey, msg.TargetKey); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Friend removed."})
	}
}

func FriendList(friends FriendService) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := friends.Friends(c.Param("key"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"friends": list})
	}
}

func FriendRequests(friends FriendService) echo.HandlerFunc {
	return func(c echo.Context) error {
		requests, err := friends.FriendRequests(c.Param("key"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"requests": requests})
	}
}

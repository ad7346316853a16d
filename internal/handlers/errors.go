package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"hearthcoin/internal/model"
)

var errorStatus = []struct {
	err  error
	code int
}{
	{model.ErrorMalformedMessage, http.StatusBadRequest},
	{model.ErrorInvalidAmount, http.StatusBadRequest},
	{model.ErrorSelfTransfer, http.StatusBadRequest},
	{model.ErrorInsufficientFunds, http.StatusBadRequest},
	{model.ErrorBidTooLow, http.StatusBadRequest},
	{model.ErrorUnknownAction, http.StatusBadRequest},
	{model.ErrorOfferTypeMismatch, http.StatusBadRequest},
	{model.ErrorShopConfigMismatch, http.StatusBadRequest},
	{model.ErrorInvalidInvitationCode, http.StatusBadRequest},

	{model.ErrorInvalidSignature, http.StatusUnauthorized},
	{model.ErrorRequestExpired, http.StatusUnauthorized},
	{model.ErrorInvalidUsernameOrPassword, http.StatusUnauthorized},
	{model.ErrorNotAdmin, http.StatusUnauthorized},
	{model.ErrorGenesisPassword, http.StatusUnauthorized},

	{model.ErrorNotOwner, http.StatusForbidden},
	{model.ErrorSenderMismatch, http.StatusForbidden},
	{model.ErrorUserInactive, http.StatusForbidden},
	{model.ErrorRecipientInactive, http.StatusForbidden},
	{model.ErrorQuotaExhausted, http.StatusForbidden},
	{model.ErrorOwnListing, http.StatusForbidden},

	{model.ErrorUserNotFound, http.StatusNotFound},
	{model.ErrorAssetNotFound, http.StatusNotFound},
	{model.ErrorListingNotFound, http.StatusNotFound},
	{model.ErrorOfferNotFound, http.StatusNotFound},
	{model.ErrorNotificationNotFound, http.StatusNotFound},
	{model.ErrorUnknownAssetType, http.StatusNotFound},
	{model.ErrorUnknownBotType, http.StatusNotFound},
	{model.ErrorNoPendingRequest, http.StatusNotFound},
	{model.ErrorNotFriends, http.StatusNotFound},

	{model.ErrorUsernameTaken, http.StatusConflict},
	{model.ErrorAssetNotActive, http.StatusConflict},
	{model.ErrorAssetNotTradable, http.StatusConflict},
	{model.ErrorCooldownActive, http.StatusConflict},
	{model.ErrorListingNotActive, http.StatusConflict},
	{model.ErrorAuctionEnded, http.StatusConflict},
	{model.ErrorDuplicateOffer, http.StatusConflict},
	{model.ErrorOfferNotPending, http.StatusConflict},
	{model.ErrorAcceptedOfferExists, http.StatusConflict},
	{model.ErrorFriendshipExists, http.StatusConflict},
	{model.ErrorSystemInitialized, http.StatusConflict},
}

// HTTPErrorHandler translates service errors into {"detail": ...}
// responses. Anything unmapped is a 500 and its cause stays in the log.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.Code, echo.Map{"detail": fmt.Sprintf("%v", httpErr.Message)})
		return
	}

	for _, mapping := range errorStatus {
		if errors.Is(err, mapping.err) {
			_ = c.JSON(mapping.code, echo.Map{"detail": err.Error()})
			return
		}
	}

	c.Logger().Error(err)
	_ = c.JSON(http.StatusInternalServerError, echo.Map{"detail": "internal server error"})
}

package model

import "errors"

var ErrorMalformedMessage = errors.New("malformed message")
var ErrorInvalidSignature = errors.New("invalid signature")
var ErrorRequestExpired = errors.New("request expired")
var ErrorInvalidUsernameOrPassword = errors.New("invalid username or password")
var ErrorNotAdmin = errors.New("unauthorized admin access")

var ErrorUserNotFound = errors.New("user not found")
var ErrorAssetNotFound = errors.New("asset not found")
var ErrorListingNotFound = errors.New("listing not found")
var ErrorOfferNotFound = errors.New("offer not found")
var ErrorNotificationNotFound = errors.New("notification not found")

var ErrorUserInactive = errors.New("user is inactive")
var ErrorRecipientInactive = errors.New("recipient is inactive")
var ErrorSelfTransfer = errors.New("cannot transfer to yourself")
var ErrorInvalidAmount = errors.New("amount must be positive")
var ErrorInsufficientFunds = errors.New("insufficient funds")
var ErrorSenderMismatch = errors.New("sender mismatch")

var ErrorNotOwner = errors.New("not the owner")
var ErrorAssetNotActive = errors.New("asset is not active")
var ErrorAssetNotTradable = errors.New("asset is not tradable")
var ErrorUnknownAssetType = errors.New("unknown asset type")
var ErrorUnknownAction = errors.New("unknown action")
var ErrorCooldownActive = errors.New("cooldown active")

var ErrorListingNotActive = errors.New("listing is not active")
var ErrorOwnListing = errors.New("cannot act on your own listing")
var ErrorBidTooLow = errors.New("bid too low")
var ErrorAuctionEnded = errors.New("auction has ended")
var ErrorDuplicateOffer = errors.New("already offered on this listing")
var ErrorOfferTypeMismatch = errors.New("asset type does not match the listing")
var ErrorOfferNotPending = errors.New("offer is not pending")
var ErrorAcceptedOfferExists = errors.New("an accepted offer exists")

var ErrorUsernameTaken = errors.New("username or uid already exists")
var ErrorInvalidInvitationCode = errors.New("invalid or expired invitation code")
var ErrorQuotaExhausted = errors.New("invitation quota exhausted")
var ErrorFriendshipExists = errors.New("friendship or request already exists")
var ErrorNoPendingRequest = errors.New("no pending request from that user")
var ErrorNotFriends = errors.New("not friends")

var ErrorSystemInitialized = errors.New("system already initialized")
var ErrorGenesisPassword = errors.New("wrong genesis password")
var ErrorUnknownBotType = errors.New("unknown bot type")
var ErrorShopConfigMismatch = errors.New("shop configuration mismatch")

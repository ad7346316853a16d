package handlers

import (
	"github.com/labstack/echo/v4"

	"hearthcoin/internal/gate"
	"hearthcoin/internal/model"
	"hearthcoin/internal/service/user"
	"hearthcoin/pkg/message"
)

type UserService interface {
	Register(username string, password string, invitationCode string) (*model.User, error)
	GenesisRegister(username string, password string, genesisPassword string) (*model.User, error)
	Login(handle string, password string) (string, *model.User, error)
	Transfer(fromKey string, msg *model.TransferMessage, rawMessage string, signature string) (string, error)
	Details(handle string) (*model.UserDetails, error)
	Profile(handle string) (*user.ProfileView, error)
	UpdateProfile(ownerKey string, msg *model.ProfileUpdateMessage) error
	GenerateInvite(ownerKey string) (*model.InvitationCode, error)
	Invitations(ownerKey string) ([]model.InvitationCode, error)
	Visible(requesterKey string) ([]model.UserSummary, error)
}

type LedgerService interface {
	Balance(publicKey string) (float64, error)
	History(publicKey string) ([]model.Transaction, error)
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	InvitationCode  string `json:"invitation_code"`
	GenesisPassword string `json:"genesis_password"`
}

func Register(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &registerRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		created, err := users.Register(params.Username, params.Password, params.InvitationCode)
		if err != nil {
			return err
		}
		// the private key is shown exactly once, at registration
		return c.JSON(200, echo.Map{
			"detail":          "Account created. Store your private key safely.",
			"public_key":      created.PublicKey,
			"private_key_pem": created.PrivateKeyPEM,
			"uid":             created.UID,
			"username":        created.Username,
		})
	}
}

func GenesisRegister(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &registerRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		created, err := users.GenesisRegister(params.Username, params.Password, params.GenesisPassword)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{
			"detail":          "Genesis account created.",
			"public_key":      created.PublicKey,
			"private_key_pem": created.PrivateKeyPEM,
			"uid":             created.UID,
			"username":        created.Username,
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func Login(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &loginRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		token, account, err := users.Login(params.Username, params.Password)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{
			"token":           token,
			"public_key":      account.PublicKey,
			"private_key_pem": account.PrivateKeyPEM,
			"uid":             account.UID,
			"username":        account.Username,
		})
	}
}

func UserList(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		requester := c.QueryParam("requester")
		if requester == "" {
			return model.ErrorMalformedMessage
		}
		visible, err := users.Visible(requester)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"users": visible})
	}
}

func UserDetails(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		details, err := users.Details(c.Param("handle"))
		if err != nil {
			return err
		}
		return c.JSON(200, details)
	}
}

func UserProfile(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		profile, err := users.Profile(c.Param("handle"))
		if err != nil {
			return err
		}
		return c.JSON(200, profile)
	}
}

func UpdateProfile(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.ProfileUpdateMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		if err := users.UpdateProfile(ownerKey, msg); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Profile updated."})
	}
}

func Balance(ledger LedgerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Param("key")
		balance, err := ledger.Balance(key)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"public_key": key, "balance": balance})
	}
}

func Transactions(ledger LedgerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		history, err := ledger.History(c.Param("key"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"transactions": history})
	}
}

// Transfer authenticates against from_key rather than owner_key; the
// raw signed bytes travel into the transaction log.
func Transfer(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.TransferMessage{}
		fromKey, err := gate.ParseAs(env, "from_key", msg)
		if err != nil {
			return err
		}
		detail, err := users.Transfer(fromKey, msg, env.MessageJSON, env.Signature)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

func GenerateInvite(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		ownerKey, err := gate.Parse(env, &model.GenerateInviteMessage{})
		if err != nil {
			return err
		}
		code, err := users.GenerateInvite(ownerKey)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Invitation code generated.", "code": code.Code})
	}
}

func Invitations(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		codes, err := users.Invitations(c.Param("key"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"codes": codes})
	}
}

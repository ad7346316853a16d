package handlers

import (
	"crypto/subtle"
	"strconv"

	"github.com/labstack/echo/v4"

	"hearthcoin/internal/assetlogic"
	"hearthcoin/internal/bots"
	"hearthcoin/internal/model"
)

type AdminService interface {
	Issue(toKey string, amount float64, note string) error
	MultiIssue(toKeys []string, amount float64, note string) (int, error)
	Burn(fromKey string, amount float64, note string) error
	AdjustQuota(publicKey string, quota int) error
	SetActive(publicKey string, active bool) error
	ResetPassword(publicKey string) (string, error)
	MintAsset(toKey string, assetType string, input map[string]any) (string, error)
	Purge(publicKey string) error
	Settings() (map[string]string, error)
	UpdateSettings(values map[string]string) error
	Balances(includeInactive bool, includeBots bool) ([]model.BalanceEntry, error)
	TradeHistory(limit int) ([]model.TradeView, error)
	CreateBot(botType string, initialFunds float64, probability float64) (*model.User, error)
	Bots(includeInactive bool) ([]model.BotInfo, error)
	SetBotConfig(publicKey string, active *bool, probability *float64) error
	BotLogs(botKey string, limit int) ([]model.BotLog, error)
	Nuke() error
}

// AdminAuth guards the operator routes with a shared secret header.
func AdminAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get("X-Admin-Secret")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				return model.ErrorNotAdmin
			}
			return next(c)
		}
	}
}

type issueRequest struct {
	ToKey   string   `json:"to_key"`
	ToKeys  []string `json:"to_keys"`
	FromKey string   `json:"from_key"`
	Amount  float64  `json:"amount"`
	Note    string   `json:"note"`
}

func AdminIssue(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &issueRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if err := admins.Issue(params.ToKey, params.Amount, params.Note); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Issued."})
	}
}

func AdminMultiIssue(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &issueRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		issued, err := admins.MultiIssue(params.ToKeys, params.Amount, params.Note)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Issued.", "count": issued})
	}
}

func AdminBurn(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &issueRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if err := admins.Burn(params.FromKey, params.Amount, params.Note); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Burned."})
	}
}

type accountRequest struct {
	PublicKey string   `json:"public_key"`
	Quota     *int     `json:"quota"`
	Active    *bool    `json:"is_active"`
	Prob      *float64 `json:"action_probability"`
}

func AdminAdjustQuota(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &accountRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if params.Quota == nil {
			return model.ErrorMalformedMessage
		}
		if err := admins.AdjustQuota(params.PublicKey, *params.Quota); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Quota updated."})
	}
}

func AdminSetActive(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &accountRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if params.Active == nil {
			return model.ErrorMalformedMessage
		}
		if err := admins.SetActive(params.PublicKey, *params.Active); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Account updated."})
	}
}

func AdminResetPassword(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &accountRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		password, err := admins.ResetPassword(params.PublicKey)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Password reset.", "new_password": password})
	}
}

type mintRequest struct {
	ToKey     string         `json:"to_key"`
	AssetType string         `json:"nft_type"`
	Data      map[string]any `json:"data"`
}

func AdminMintAsset(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &mintRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		assetID, err := admins.MintAsset(params.ToKey, params.AssetType, params.Data)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Minted.", "nft_id": assetID})
	}
}

// AdminMintConfigs lists the registered asset types and their admin
// mint hints, for operator tooling.
func AdminMintConfigs() echo.HandlerFunc {
	return func(c echo.Context) error {
		configs := map[string]any{}
		for _, assetType := range assetlogic.Types() {
			handler, err := assetlogic.Get(assetType)
			if err != nil {
				continue
			}
			configs[assetType] = echo.Map{
				"display_name": handler.DisplayName(),
				"mint":         handler.AdminMintConfig(),
			}
		}
		return c.JSON(200, echo.Map{"types": configs})
	}
}

func AdminPurge(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &accountRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if err := admins.Purge(params.PublicKey); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Account purged."})
	}
}

func AdminSettings(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		settings, err := admins.Settings()
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"settings": settings})
	}
}

func AdminUpdateSettings(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		values := map[string]string{}
		if err := c.Bind(&values); err != nil {
			return err
		}
		if err := admins.UpdateSettings(values); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Settings updated."})
	}
}

func AdminBalances(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		includeInactive := c.QueryParam("include_inactive") == "true"
		includeBots := c.QueryParam("include_bots") == "true"
		balances, err := admins.Balances(includeInactive, includeBots)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"balances": balances})
	}
}

func AdminTradeHistory(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		history, err := admins.TradeHistory(limit)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"history": history})
	}
}

type botRequest struct {
	BotType      string   `json:"bot_type"`
	InitialFunds float64  `json:"initial_funds"`
	Probability  float64  `json:"action_probability"`
	PublicKey    string   `json:"public_key"`
	Active       *bool    `json:"is_active"`
	Prob         *float64 `json:"probability"`
}

func AdminCreateBot(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &botRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		bot, err := admins.CreateBot(params.BotType, params.InitialFunds, params.Probability)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{
			"detail":     "Bot deployed.",
			"public_key": bot.PublicKey,
			"username":   bot.Username,
			"uid":        bot.UID,
		})
	}
}

func AdminBots(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		includeInactive := c.QueryParam("include_inactive") == "true"
		roster, err := admins.Bots(includeInactive)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"bots": roster, "types": bots.Specs()})
	}
}

func AdminSetBotConfig(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &botRequest{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if err := admins.SetBotConfig(params.PublicKey, params.Active, params.Prob); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Bot updated."})
	}
}

func AdminBotLogs(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		logs, err := admins.BotLogs(c.QueryParam("bot_key"), limit)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"logs": logs})
	}
}

func AdminNuke(admins AdminService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := admins.Nuke(); err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": "Database reset."})
	}
}

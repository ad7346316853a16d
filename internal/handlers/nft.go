package handlers

import (
	"github.com/labstack/echo/v4"

	"hearthcoin/internal/assetlogic"
	"hearthcoin/internal/gate"
	"hearthcoin/internal/model"
	"hearthcoin/pkg/message"
)

type AssetService interface {
	Get(id string) (*model.Asset, error)
	ListByOwner(ownerKey string) ([]model.Asset, error)
	PerformAction(ownerKey string, msg *model.AssetActionMessage) (string, error)
	ShopCreate(ownerKey string, msg *model.ShopMessage) (string, string, error)
	ShopAction(ownerKey string, msg *model.ShopMessage) (string, string, error)
}

func OwnedAssets(assets AssetService) echo.HandlerFunc {
	return func(c echo.Context) error {
		owned, err := assets.ListByOwner(c.Param("key"))
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"nfts": owned})
	}
}

func AssetDetails(assets AssetService) echo.HandlerFunc {
	return func(c echo.Context) error {
		asset, err := assets.Get(c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(200, asset)
	}
}

func AssetAction(assets AssetService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.AssetActionMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, err := assets.PerformAction(ownerKey, msg)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail})
	}
}

// ShopCatalog is static per build: it lists every purchasable type and
// the form fields its purchase takes.
func ShopCatalog() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(200, echo.Map{"catalog": assetlogic.ShopConfigs()})
	}
}

func ShopCreate(assets AssetService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.ShopMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, assetID, err := assets.ShopCreate(ownerKey, msg)
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{"detail": detail, "nft_id": assetID})
	}
}

func ShopAction(assets AssetService) echo.HandlerFunc {
	return func(c echo.Context) error {
		env := &message.Envelope{}
		if err := c.Bind(env); err != nil {
			return err
		}
		msg := &model.ShopMessage{}
		ownerKey, err := gate.Parse(env, msg)
		if err != nil {
			return err
		}
		detail, assetID, err := assets.ShopAction(ownerKey, msg)
		if err != nil {
			return err
		}
		response := echo.Map{"detail": detail}
		if assetID != "" {
			response["nft_id"] = assetID
		}
		return c.JSON(200, response)
	}
}

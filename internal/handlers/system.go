package handlers

import (
	"github.com/labstack/echo/v4"

	"hearthcoin/internal/store"
)

// Status reports liveness and whether the genesis account exists yet.
// Fresh deployments use it to decide between the genesis and regular
// registration flows.
func Status(st *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		count, err := store.CountUsers(st.DB())
		if err != nil {
			return err
		}
		return c.JSON(200, echo.Map{
			"status":      "ok",
			"users":       count,
			"initialized": count > 0,
		})
	}
}

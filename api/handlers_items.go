package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"depot-api/domain"
)

func getStorages(inv InventoryStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, inv.Storages())
	}
}

func postItem(inv InventoryStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req domain.ItemCreate
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		item, err := inv.AddItem(c.Param("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, item)
	}
}

func getItems(inv InventoryStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if storageID := c.QueryParam("storage_id"); storageID != "" {
			items, err := inv.Items(storageID)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(http.StatusOK, items)
		}
		items := inv.AllItems()
		if items == nil {
			items = []domain.Item{}
		}
		return c.JSON(http.StatusOK, items)
	}
}

func putItem(inv InventoryStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var patch domain.ItemUpdate
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		item, err := inv.UpdateItem(c.Param("id"), patch)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, item)
	}
}

func postItemMove(inv InventoryStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var req domain.MoveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		item, err := inv.MoveItem(req.Name, req.From, req.To, req.Count)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, item)
	}
}

func deleteItem(inv InventoryStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		if _, err := inv.DeleteItem(c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "item deleted"})
	}
}

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"depot-api/storage"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, users UserStore, inv InventoryStore, tasks TaskStore, auth Authenticator, deduper Deduper, logger *log.Logger) {
	e.POST("/token", postToken(users, auth))
	e.POST("/register", postRegister(users))
	e.GET("/users/me", getMe(users, auth))
	e.GET("/validate-token", getValidateToken(users, auth))
	e.GET("/users", getUsers(users, auth))

	e.POST("/tasks", postTask(tasks, auth))
	e.GET("/tasks", getTasks(tasks, auth, logger))
	e.GET("/tasks/:user", getUserTasks(tasks, auth))
	e.PUT("/tasks/:id", putTask(tasks, inv, auth, deduper, logger))
	e.POST("/tasks/:id/move", postTaskMove(tasks, inv, auth, deduper, logger))
	e.DELETE("/tasks/:id", deleteTask(tasks, auth))

	e.GET("/storages", getStorages(inv, auth))
	e.POST("/storages/:id/items", postItem(inv, auth))
	e.GET("/items", getItems(inv, auth))
	e.PUT("/items/:id", putItem(inv, auth))
	e.POST("/items/move", postItemMove(inv, auth))
	e.DELETE("/items/:id", deleteItem(inv, auth))

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// decodeBody decodes a JSON request body, rejecting unknown fields and
// oversized payloads.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusForError maps ledger failures onto response codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrCapacityExceeded),
		errors.Is(err, storage.ErrInsufficientQuantity):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c echo.Context, err error) error {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

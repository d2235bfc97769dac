package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"depot-api/domain"
	"depot-api/storage"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	IsManager bool   `json:"is_manager"`
}

type validateTokenResponse struct {
	IsValid bool           `json:"is_valid"`
	User    domain.Profile `json:"user"`
}

type usersResponse struct {
	Users []string `json:"users"`
}

func postToken(users UserStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		user, err := users.Get(req.Username)
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "incorrect username or password"})
		}
		token, _, err := auth.IssueToken(user.Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

func postRegister(users UserStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if req.Username == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "username and password are required"})
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return respondError(c, err)
		}
		_, err = users.Create(domain.User{
			Username:       req.Username,
			Email:          req.Email,
			FullName:       req.FullName,
			HashedPassword: string(hash),
			IsManager:      req.IsManager,
		})
		if err != nil {
			// Duplicate registrations are a client mistake, not a conflict.
			if statusForError(err) == http.StatusConflict {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "username already registered"})
			}
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "user registered successfully"})
	}
}

func getMe(users UserStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		username, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		user, err := users.Get(username)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "could not validate credentials"})
		}
		if user.Disabled {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "inactive user"})
		}
		return c.JSON(http.StatusOK, user.Profile())
	}
}

func getValidateToken(users UserStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		username, err := auth.UsernameIgnoringExpiry(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		user, err := users.Get(username)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "user not found"})
		}
		return c.JSON(http.StatusOK, validateTokenResponse{IsValid: true, User: user.Profile()})
	}
}

func getUsers(users UserStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UsernameFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		var filter storage.RoleFilter
		switch role := c.QueryParam("role"); role {
		case "":
			filter = storage.RoleAny
		case string(storage.RoleManagers):
			filter = storage.RoleManagers
		case string(storage.RoleWorkers):
			filter = storage.RoleWorkers
		default:
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown role filter"})
		}
		return c.JSON(http.StatusOK, usersResponse{Users: users.List(filter)})
	}
}

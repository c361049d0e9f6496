package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fatora-app/fatora-server/internal/config"
	"github.com/fatora-app/fatora-server/internal/model"
	"github.com/fatora-app/fatora-server/internal/repository"
	"github.com/fatora-app/fatora-server/internal/utils"
)

// UserStore is the slice of the user repository the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenStore persists and revokes issued access tokens by hash.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type logoutReq struct {
	Everywhere bool `json:"everywhere"`
}

// Register creates a user account.  Validation failures come back as a
// 422 with per-field messages, including a duplicate email which is
// caught by the unique index rather than a racy pre-check.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	errs := checkFields([]fieldRule{
		{field: "first_name", value: req.FirstName, required: true, maxLen: 50},
		{field: "second_name", value: req.SecondName, required: true, maxLen: 50},
		{field: "email", value: req.Email, required: true},
		{field: "password", value: req.Password, required: true},
	})
	if req.Email != "" && !validEmail(req.Email) {
		errs["email"] = append(errs["email"], "the email must be a valid email address")
	}
	if req.Password != "" && len(req.Password) < 8 {
		errs["password"] = append(errs["password"], "the password must be at least 8 characters")
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create user failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		SecondName:   strings.TrimSpace(req.SecondName),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return validationFailed(c, map[string][]string{
				"email": {"the email has already been taken"},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create user failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user created successfully",
		"user":    u,
	})
}

// Login verifies credentials and issues a bearer access token.  The
// token's hash is persisted so it can later be revoked by logout.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue token failed"})
	}
	if err := h.Tokens.Store(ctx, u.ID, utils.HashToken(access.Token), access.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "save token failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "logged in successfully",
		"access_token": access.Token,
		"token_type":   "Bearer",
		"user":         u,
	})
}

// Me returns the authenticated user's account (protected route).  A
// valid token whose user row has since disappeared is treated the same
// as no token at all.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// Logout revokes the presented access token (protected route; the
// bearer middleware already validated it and stored its hash in the
// context).  With {"everywhere": true} in the body, every active token
// of the user is revoked instead, logging out all devices.
func (h *AuthHandler) Logout(c echo.Context) error {
	hash, ok := c.Get("token_hash").(string)
	if !ok || hash == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	// An absent or malformed body simply means a single-session logout.
	var req logoutReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if req.Everywhere {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
		}
	} else if err := h.Tokens.Revoke(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-service-portal/internal/config"
    "github.com/iliyamo/ev-service-portal/internal/middleware"
    "github.com/iliyamo/ev-service-portal/internal/model"
    "github.com/iliyamo/ev-service-portal/internal/repository"
    "github.com/iliyamo/ev-service-portal/internal/utils"
)

// UserStore is the users table as the auth endpoints need it.
type UserStore interface {
	Create(ctx context.Context, email, password, role string, stationID *uint64, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore keeps hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// StationFinder checks that a station exists.
type StationFinder interface {
	GetByID(ctx context.Context, id uint64) (model.Station, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Stations StationFinder
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, s StationFinder) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Stations: s}
}

// ----- DTOs -----

type createUserReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"` // manager | station
	StationID uint64 `json:"station_id"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	StationID uint64 `json:"station_id,omitempty"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue creates a token pair for a user whose view is already resolved.
func (h *AuthHandler) issue(ctx context.Context, u model.User, v model.ViewState) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, v.Role, v.StationID, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Role: v.Role, StationID: v.StationID},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Login: verify credentials and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Printf("auth: login lookup: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	view, ok := model.ViewStateFor(u)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no station assigned to this account"})
	}

	resp, err := h.issue(ctx, u, view)
	if err != nil {
		log.Printf("auth: issue tokens: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke the old token and issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := withTimeout(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	view, ok := model.ViewStateFor(u)
	if !ok {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no station assigned to this account"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		log.Printf("auth: revoke rotated refresh: %v", err)
	}

	resp, err := h.issue(ctx, u, view)
	if err != nil {
		log.Printf("auth: issue tokens: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout ends sessions.  With a refresh_token in the body only that
// session ends; with just a valid bearer token every session of the user
// ends.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := withTimeout(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	if raw, ok := middleware.BearerToken(c.Request()); ok {
		claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if err := h.Tokens.RevokeAllForUser(ctx, claims.UserID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the caller's resolved view.
func (h *AuthHandler) Me(c echo.Context) error {
	v, err := currentView(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// CreateUser lets a manager provision a manager or station account.
// Station accounts need an existing station.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if req.Role != model.RoleManager && req.Role != model.RoleStation {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be manager or station"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	var stationID *uint64
	if req.Role == model.RoleStation {
		if req.StationID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "station_id required for station accounts"})
		}
		if _, err := h.Stations.GetByID(ctx, req.StationID); err != nil {
			if errors.Is(err, repository.ErrStationNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown station"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "station lookup failed"})
		}
		stationID = &req.StationID
	}

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.Role, stationID, h.Cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, utils.ErrPasswordTooShort):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case err != nil:
		log.Printf("auth: create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	part := userPart{ID: uid, Email: req.Email, Role: req.Role}
	if stationID != nil {
		part.StationID = *stationID
	}
	return c.JSON(http.StatusCreated, part)
}

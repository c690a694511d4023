package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/ev-service-portal/internal/config"
	"github.com/iliyamo/ev-service-portal/internal/model"
	"github.com/iliyamo/ev-service-portal/internal/repository"
	"github.com/iliyamo/ev-service-portal/internal/utils"
)

type fakeUsers struct {
	byID    map[uint64]model.User
	created []string
}

func (f *fakeUsers) Create(_ context.Context, email, password, role string, stationID *uint64, cost int) (uint64, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	if len(password) < utils.MinPasswordLen {
		return 0, utils.ErrPasswordTooShort
	}
	id := uint64(len(f.byID) + 100)
	f.byID[id] = model.User{ID: id, Email: email, Role: role, StationID: stationID, IsActive: true}
	f.created = append(f.created, email)
	return id, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return u, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeTokens struct {
	live       map[string]uint64
	revokedAll []uint64
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.live[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	id, ok := f.live[hash]
	if !ok {
		return 0, repository.ErrRefreshInvalid
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	delete(f.live, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

type fakeStations map[uint64]model.Station

func (f fakeStations) GetByID(_ context.Context, id uint64) (model.Station, error) {
	s, ok := f[id]
	if !ok {
		return s, repository.ErrStationNotFound
	}
	return s, nil
}

const testSecret = "test-secret"

func newAuthHandler(t *testing.T) (*AuthHandler, *fakeUsers, *fakeTokens) {
	t.Helper()
	hash, err := utils.HashPassword("correct horse", 4)
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{byID: map[uint64]model.User{
		1: {ID: 1, Email: "boss@example.com", PasswordHash: hash, Role: model.RoleManager, IsActive: true},
		2: {ID: 2, Email: "desk@example.com", PasswordHash: hash, Role: model.RoleStation, StationID: u64(7), IsActive: true},
		3: {ID: 3, Email: "orphan@example.com", PasswordHash: hash, Role: model.RoleStation, IsActive: true},
		4: {ID: 4, Email: "gone@example.com", PasswordHash: hash, Role: model.RoleManager},
	}}
	tokens := &fakeTokens{live: map[string]uint64{}}
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	return NewAuthHandler(cfg, users, tokens, fakeStations{7: {ID: 7, Name: "North"}}), users, tokens
}

func TestLogin(t *testing.T) {
	h, _, tokens := newAuthHandler(t)
	cases := []struct {
		name, body string
		status     int
	}{
		{"station", `{"email":" Desk@Example.com ","password":"correct horse"}`, http.StatusOK},
		{"wrong password", `{"email":"desk@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown", `{"email":"who@example.com","password":"correct horse"}`, http.StatusUnauthorized},
		{"inactive", `{"email":"gone@example.com","password":"correct horse"}`, http.StatusUnauthorized},
		{"no station", `{"email":"orphan@example.com","password":"correct horse"}`, http.StatusForbidden},
		{"missing", `{"email":""}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newCtx(http.MethodPost, "/v1/auth/login", tc.body, nil)
			if err := h.Login(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tc.status {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
			}
		})
	}

	c, rec := newCtx(http.MethodPost, "/v1/auth/login", `{"email":"desk@example.com","password":"correct horse"}`, nil)
	if err := h.Login(c); err != nil {
		t.Fatal(err)
	}
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	claims, err := utils.ParseAccessToken(testSecret, resp.Access.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 2 || claims.Role != model.RoleStation || claims.StationID != 7 {
		t.Fatalf("claims = %+v", claims)
	}
	if resp.User.StationID != 7 {
		t.Fatalf("user = %+v", resp.User)
	}
	if _, ok := tokens.live[utils.HashRefreshRaw(resp.Refresh.Token)]; !ok {
		t.Fatal("refresh token was not stored hashed")
	}
}

func TestRefreshRotates(t *testing.T) {
	h, _, tokens := newAuthHandler(t)
	tokens.live[utils.HashRefreshRaw("old-raw")] = 1

	c, rec := newCtx(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"old-raw"}`, nil)
	if err := h.Refresh(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if _, ok := tokens.live[utils.HashRefreshRaw("old-raw")]; ok {
		t.Fatal("old refresh token still valid")
	}
	if len(tokens.live) != 1 {
		t.Fatalf("live tokens = %d", len(tokens.live))
	}

	c, rec = newCtx(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"old-raw"}`, nil)
	if err := h.Refresh(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reuse status = %d", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	h, _, tokens := newAuthHandler(t)
	tokens.live[utils.HashRefreshRaw("raw")] = 2

	c, rec := newCtx(http.MethodPost, "/v1/auth/logout", `{"refresh_token":"raw"}`, nil)
	if err := h.Logout(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNoContent || len(tokens.live) != 0 {
		t.Fatalf("status = %d live = %d", rec.Code, len(tokens.live))
	}

	access, err := utils.NewAccessToken(testSecret, 2, model.RoleStation, 7, 5)
	if err != nil {
		t.Fatal(err)
	}
	c, rec = newCtx(http.MethodPost, "/v1/auth/logout", "", nil)
	c.Request().Header.Set("Authorization", "Bearer "+access.Token)
	if err := h.Logout(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNoContent || len(tokens.revokedAll) != 1 || tokens.revokedAll[0] != 2 {
		t.Fatalf("status = %d revoked = %v", rec.Code, tokens.revokedAll)
	}

	c, rec = newCtx(http.MethodPost, "/v1/auth/logout", "", nil)
	if err := h.Logout(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	v := stationView
	c, rec := newCtx(http.MethodGet, "/v1/me", "", &v)
	if err := h.Me(c); err != nil {
		t.Fatal(err)
	}
	var got model.ViewState
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got != stationView {
		t.Fatalf("view = %+v", got)
	}
}

func TestCreateUser(t *testing.T) {
	h, users, _ := newAuthHandler(t)
	cases := []struct {
		name, body string
		status     int
	}{
		{"station", `{"email":"new@example.com","password":"longenough","role":"station","station_id":7}`, http.StatusCreated},
		{"manager", `{"email":"m2@example.com","password":"longenough","role":"MANAGER"}`, http.StatusCreated},
		{"duplicate", `{"email":"boss@example.com","password":"longenough","role":"manager"}`, http.StatusConflict},
		{"short password", `{"email":"x@example.com","password":"short","role":"manager"}`, http.StatusBadRequest},
		{"bad role", `{"email":"x@example.com","password":"longenough","role":"owner"}`, http.StatusBadRequest},
		{"no station", `{"email":"x@example.com","password":"longenough","role":"station"}`, http.StatusBadRequest},
		{"unknown station", `{"email":"x@example.com","password":"longenough","role":"station","station_id":9}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := managerView
			c, rec := newCtx(http.MethodPost, "/v1/manager/users", tc.body, &v)
			if err := h.CreateUser(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tc.status {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
			}
		})
	}
	if len(users.created) != 2 {
		t.Fatalf("created = %v", users.created)
	}
}

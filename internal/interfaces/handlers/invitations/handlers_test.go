package invitations

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"concierge-backend/internal/application/clients"
	"concierge-backend/internal/application/emails"
	"concierge-backend/internal/application/identity"
	invsvc "concierge-backend/internal/application/invitations"
	"concierge-backend/internal/domain"
	"concierge-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSender struct {
	sent []emails.Message
}

func (r *recordingSender) Send(ctx context.Context, msg emails.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

type invEnv struct {
	app    *fiber.App
	svc    *invsvc.Service
	db     *gorm.DB
	sender *recordingSender
	now    time.Time
}

func setupInvitationsTest(t *testing.T) *invEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Invitation{}, &domain.Client{}, &domain.Identity{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &invEnv{db: db, sender: &recordingSender{}, now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	env.svc = &invsvc.Service{
		Store:       &invsvc.GormStore{DB: db},
		Policy:      invsvc.NewTokenPolicy(0),
		Sender:      env.sender,
		Identity:    &identity.LocalProvider{DB: db},
		Provisioner: &clients.Provisioner{DB: db},
		Locker:      &invsvc.RedisLocker{Rdb: rdb},
		BaseURL:     "https://app.example.com",
		Now:         func() time.Time { return env.now },
	}
	h := &Handlers{Service: env.svc}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetSessionUser(c, middleware.SessionUser{UserID: uuid.NewString(), Email: "admin@example.com", Role: "admin"})
		return c.Next()
	})
	app.Post("/invites/create-invite", h.CreateInvite)
	app.Get("/invites/view-invites", h.ViewInvites)
	app.Post("/invites/resend-invite/:id", h.ResendInvite)
	app.Delete("/invites/revoke-invite/:id", h.RevokeInvite)
	app.Get("/accept-invite", h.CheckInvite)
	app.Post("/accept-invite", h.AcceptInvite)
	env.app = app
	return env
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func createInvite(t *testing.T, env *invEnv, email string) *domain.Invitation {
	res, err := env.svc.CreateInvite(context.Background(), invsvc.CreateInviteInput{Fields: domain.InvitationFields{Email: email}})
	require.NoError(t, err)
	return res.Invitation
}

func TestCreateInvite_Validation(t *testing.T) {
	env := setupInvitationsTest(t)

	resp, out := doJSON(t, env.app, "POST", "/invites/create-invite", map[string]string{"email": "not-an-email"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", out["status"])

	resp, _ = doJSON(t, env.app, "POST", "/invites/create-invite", map[string]string{"email": "a@b.com", "contact": "12ab"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, env.app, "POST", "/invites/create-invite", map[string]string{"email": "a@b.com", "date_of_birth": "01/02/1990"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, out = doJSON(t, env.app, "POST", "/invites/create-invite", map[string]string{"email": "Admin@Example.com"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You cannot invite yourself", out["error"].(map[string]interface{})["message"])
	assert.Empty(t, env.sender.sent)
}

func TestCreateInvite_Success(t *testing.T) {
	env := setupInvitationsTest(t)

	resp, out := doJSON(t, env.app, "POST", "/invites/create-invite", map[string]string{
		"email": "client@example.com", "name": "Ada", "contact": "5551234", "date_of_birth": "1990-02-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["notification_sent"])
	inv := data["invitation"].(map[string]interface{})
	assert.Equal(t, "admin@example.com", inv["created_by"])
	assert.Contains(t, data["link"], "https://app.example.com/accept-invite?token=")
	assert.Len(t, env.sender.sent, 1)
}

func TestViewInvites_ReapsExpired(t *testing.T) {
	env := setupInvitationsTest(t)
	createInvite(t, env, "old@example.com")
	env.now = env.now.Add(time.Hour)
	createInvite(t, env, "new@example.com")
	env.now = env.now.Add(6 * time.Hour)

	resp, out := doJSON(t, env.app, "GET", "/invites/view-invites", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := out["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "new@example.com", items[0].(map[string]interface{})["email"])
	assert.EqualValues(t, 1, out["metadata"].(map[string]interface{})["count"])

	var n int64
	require.NoError(t, env.db.Model(&domain.Invitation{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestResendAndRevoke(t *testing.T) {
	env := setupInvitationsTest(t)
	inv := createInvite(t, env, "a@b.com")

	resp, _ := doJSON(t, env.app, "POST", "/invites/resend-invite/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, env.app, "POST", "/invites/resend-invite/"+inv.ID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, env.sender.sent, 2)

	resp, _ = doJSON(t, env.app, "DELETE", "/invites/revoke-invite/"+inv.ID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, env.app, "POST", "/invites/resend-invite/"+inv.ID.String(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCheckInvite(t *testing.T) {
	env := setupInvitationsTest(t)
	inv := createInvite(t, env, "a@b.com")

	resp, out := doJSON(t, env.app, "GET", "/accept-invite?token="+inv.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "loaded", data["state"])
	assert.Equal(t, "a@b.com", data["invitation"].(map[string]interface{})["email"])
	assert.NotContains(t, data["invitation"], "token")

	resp, out = doJSON(t, env.app, "GET", "/accept-invite?token=nope", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "not_found", details["state"])

	resp, _ = doJSON(t, env.app, "GET", "/accept-invite", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAcceptInvite_Flow(t *testing.T) {
	env := setupInvitationsTest(t)
	inv := createInvite(t, env, "a@b.com")
	path := "/accept-invite?token=" + inv.Token

	resp, out := doJSON(t, env.app, "POST", path, map[string]string{"password": "secret1", "confirm_password": "different"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "loaded", details["state"])

	resp, out = doJSON(t, env.app, "POST", path, map[string]string{"password": "secret1", "confirm_password": "secret1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "succeeded", data["state"])
	assert.Equal(t, "/login", data["redirect_to"])

	resp, out = doJSON(t, env.app, "POST", path, map[string]string{"password": "secret1", "confirm_password": "secret1"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	details = out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "not_found", details["state"])
}

func TestAcceptInvite_DuplicateIdentity(t *testing.T) {
	env := setupInvitationsTest(t)
	_, err := (&identity.LocalProvider{DB: env.db}).SignUp(context.Background(), "a@b.com", "existing1")
	require.NoError(t, err)
	inv := createInvite(t, env, "a@b.com")

	resp, out := doJSON(t, env.app, "POST", "/accept-invite?token="+inv.Token, map[string]string{"password": "secret1", "confirm_password": "secret1"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "failed", details["state"])

	resp, _ = doJSON(t, env.app, "GET", "/accept-invite?token="+inv.Token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "invite stays redeemable")
}

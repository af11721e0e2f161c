package auth

import (
	"context"
	"errors"

	"concierge-backend/internal/application/clients"
	"concierge-backend/internal/application/identity"
	"concierge-backend/internal/domain"
	"concierge-backend/internal/interfaces/handlers"
	"concierge-backend/internal/middleware"
	"concierge-backend/internal/pkg/constants"
	"concierge-backend/internal/pkg/response"
	"concierge-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userSessionsPrefix = "user_sessions:"

// ClientFinder resolves the client record owned by an identity.
type ClientFinder interface {
	GetByAuthID(ctx context.Context, authID string) (*domain.Client, error)
}

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Identity identity.Provider
	Clients  ClientFinder
	Rdb      *redis.Client
	Config   middleware.SessionConfig
	IsAdmin  func(email string) bool
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login POST /api/v1/auth/login: authenticate, create session, SAdd user_sessions:user_id, set cookie.
// A client still pending approval gets 403 and no session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(req); err != nil {
		return handlers.RespondError(c, err)
	}

	ctx := c.UserContext()
	user, err := h.Identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return handlers.RespondError(c, err)
	}

	sessionUser := middleware.SessionUser{UserID: user.ID, Email: user.Email, Role: constants.Client}
	if h.IsAdmin != nil && h.IsAdmin(user.Email) {
		sessionUser.Role = constants.Admin
	} else if h.Clients != nil {
		client, err := h.Clients.GetByAuthID(ctx, user.ID)
		switch {
		case err == nil:
			if client.IsAuthorized == domain.AuthorizationPending {
				log.Info().Str("user_id", user.ID).Msg("login: client awaiting approval")
				return handlers.RespondError(c, clients.ErrAwaitingApproval)
			}
			id := client.ID.String()
			sessionUser.ClientID = &id
		case !errors.Is(err, domain.ErrNotFound):
			return handlers.RespondError(c, err)
		}
	}

	cookieValue := middleware.RegenerateSessionID(c, h.Config.Secret)
	sessionID := middleware.GetSessionID(c)
	middleware.SetSessionUser(c, sessionUser)

	if err := h.Rdb.SAdd(ctx, userSessionsPrefix+user.ID, sessionID).Err(); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("login: track session failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = cookieValue
	c.Cookie(&cookie)

	log.Info().Str("user_id", user.ID).Str("role", sessionUser.Role).Msg("login")
	return response.Success(c, "Login successful", fiber.Map{"user": sessionUser}, nil)
}

// Me GET /api/v1/auth/me: current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		log.Debug().Str("path", "/auth/me").
			Bool("cookie_present", c.Cookies(middleware.SessionCookieName) != "").
			Bool("session_id_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: SRem user_sessions:user_id, Del session key, clear cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	user := middleware.GetUser(c)
	ctx := c.UserContext()

	if user != nil && sessionID != "" {
		_ = h.Rdb.SRem(ctx, userSessionsPrefix+user.UserID, sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: ends every session of the current user, this one included.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	n := DestroyUserSessions(c.UserContext(), h.Rdb, user.UserID)
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	log.Info().Str("user_id", user.UserID).Int("sessions", n).Msg("logout all")
	return response.Success(c, "Logged out of all sessions", fiber.Map{"sessions": n}, nil)
}

// DestroyUserSessions deletes every session:<sid> listed in user_sessions:<userID>
// and then the set itself. Returns how many sessions were listed.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) int {
	if userID == "" {
		return 0
	}
	key := userSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("destroy sessions: list failed")
	}
	if len(sessionIDs) > 0 {
		keys := make([]string, len(sessionIDs))
		for i, sid := range sessionIDs {
			keys[i] = middleware.SessionRedisPrefix + sid
		}
		if err := rdb.Del(ctx, keys...).Err(); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("destroy sessions: delete failed")
		}
	}
	rdb.Del(ctx, key)
	return len(sessionIDs)
}

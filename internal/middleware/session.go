package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "concierge.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour

	userLocal         = "user"
	sessionIDLocal    = "session_id"
	sessionDirtyLocal = "session_dirty"
)

// SessionUser is the signed-in principal stored in the session.
type SessionUser struct {
	UserID   string  `json:"user_id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	ClientID *string `json:"client_id,omitempty"`
}

type sessionData struct {
	User *SessionUser `json:"user,omitempty"`
}

// Session loads the session named by the "concierge.sid" cookie from Redis and
// saves it back after the handler when it changed. The cookie carries
// "s:{id}.{signature}" where signature is the base64 HMAC-SHA256 of id.
func Session(cfg SessionConfig, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := UnsignSessionID(c.Cookies(SessionCookieName), cfg.Secret)

		var data sessionData
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			switch {
			case err == nil:
				_ = json.Unmarshal(b, &data)
			case err != redis.Nil:
				log.Warn().Err(err).Msg("session load failed")
			}
		}
		c.Locals(sessionIDLocal, sessionID)
		if data.User != nil {
			c.Locals(userLocal, data.User)
		}

		if err := c.Next(); err != nil {
			return err
		}

		if dirty, _ := c.Locals(sessionDirtyLocal).(bool); !dirty {
			return nil
		}
		sid := GetSessionID(c)
		user := GetUser(c)
		if sid == "" || user == nil {
			return nil
		}
		b, _ := json.Marshal(sessionData{User: user})
		if err := rdb.Set(context.Background(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
			log.Error().Err(err).Msg("session save failed")
		}
		return nil
	}
}

// GetSessionID returns the current session ID from context (for login/logout).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// SetSessionUser puts user in the session and marks it for saving.
// Call RegenerateSessionID first on login.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	c.Locals(userLocal, &user)
	c.Locals(sessionDirtyLocal, true)
}

// RegenerateSessionID creates a new session ID and returns the signed cookie value.
func RegenerateSessionID(c *fiber.Ctx, secret string) string {
	newID := uuid.New().String()
	c.Locals(sessionIDLocal, newID)
	return SignSessionID(newID, secret)
}

// DestroySession clears the user from Locals; caller must clear cookie and Redis.
func DestroySession(c *fiber.Ctx) {
	c.Locals(userLocal, nil)
	c.Locals(sessionIDLocal, "")
	c.Locals(sessionDirtyLocal, false)
}

// SignSessionID returns "s:{id}.{signature}".
func SignSessionID(id, secret string) string {
	return "s:" + id + "." + sessionSignature(id, secret)
}

// UnsignSessionID returns the id from a signed cookie value, or "" when the
// value is malformed or the signature does not match.
func UnsignSessionID(value, secret string) string {
	if !strings.HasPrefix(value, "s:") {
		return ""
	}
	parts := strings.SplitN(value[2:], ".", 2)
	if len(parts) != 2 || parts[0] == "" {
		return ""
	}
	if !hmac.Equal([]byte(parts[1]), []byte(sessionSignature(parts[0], secret))) {
		return ""
	}
	return parts[0]
}

func sessionSignature(id, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return strings.TrimRight(base64.StdEncoding.EncodeToString(mac.Sum(nil)), "=")
}

// SessionCookieConfig returns the cookie options for SetCookie/ClearCookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"concierge-backend/internal/application/invitations"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	AutoMigrate         bool
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	SupabaseURL             string // e.g. https://<project>.supabase.co: auth admin API and storage
	SupabaseSecretKey       string // service_role key, never the anon key
	SupabaseDocumentsBucket string
	IdentityProvider        string // "local" (default) or "supabase"

	EmailProvider    string // "brevo", "sendgrid" or "log"
	SendinblueAPIKey string // SENDINBLUE_API_KEY (Brevo)
	SendgridAPIKey   string
	MailFrom         string

	InviteBaseURL string // Base URL for invite links, e.g. https://concierge.example.com
	InviteTTL     time.Duration
	AdminAccounts []string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("IDENTITY_PROVIDER", "local")
	viper.SetDefault("SUPABASE_DOCUMENTS_BUCKET", "client-documents")
	viper.SetDefault("INVITE_TTL", invitations.DefaultTTL.String())

	ttl, err := time.ParseDuration(viper.GetString("INVITE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("config: INVITE_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("config: INVITE_TTL must be positive, got %s", ttl)
	}

	env := viper.GetString("APP_ENV")
	secret := viper.GetString("SESSION_SECRET")
	if env == "production" && strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("config: SESSION_SECRET is required in production")
	}

	idp := strings.ToLower(strings.TrimSpace(viper.GetString("IDENTITY_PROVIDER")))
	if idp != "local" && idp != "supabase" {
		return nil, fmt.Errorf("config: unknown IDENTITY_PROVIDER %q", idp)
	}

	return &Config{
		Env:                     env,
		Port:                    viper.GetString("PORT"),
		LogLevel:                viper.GetString("LOG_LEVEL"),
		SessionSecret:           secret,
		DatabaseURL:             viper.GetString("DATABASE_URL"),
		RedisURL:                viper.GetString("REDIS_URL"),
		AutoMigrate:             strings.EqualFold(viper.GetString("AUTO_MIGRATE"), "true"),
		FrontendURLEndsWith:     viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:             viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:       strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:          viper.GetString("HEALTH_ADMIN_KEY"),
		SupabaseURL:             viper.GetString("SUPABASE_URL"),
		SupabaseSecretKey:       viper.GetString("SUPABASE_SECRET_KEY"),
		SupabaseDocumentsBucket: viper.GetString("SUPABASE_DOCUMENTS_BUCKET"),
		IdentityProvider:        idp,
		EmailProvider:           emailProvider(viper.GetString("EMAIL_PROVIDER"), viper.GetString("SENDINBLUE_API_KEY"), viper.GetString("SENDGRID_API_KEY")),
		SendinblueAPIKey:        viper.GetString("SENDINBLUE_API_KEY"),
		SendgridAPIKey:          viper.GetString("SENDGRID_API_KEY"),
		MailFrom:                viper.GetString("MAIL_FROM"),
		InviteBaseURL:           inviteBaseURL(viper.GetString("INVITE_BASE_URL")),
		InviteTTL:               ttl,
		AdminAccounts:           splitList(viper.GetString("ADMIN_ACCOUNTS")),
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsAdmin reports whether email belongs to an operator account.
func (c *Config) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminAccounts {
		if a == email {
			return true
		}
	}
	return false
}

func inviteBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "http://localhost:5173"
	}
	return strings.TrimRight(s, "/")
}

// emailProvider picks the explicit provider, else infers one from whichever API key is set.
func emailProvider(explicit, brevoKey, sendgridKey string) string {
	explicit = strings.ToLower(strings.TrimSpace(explicit))
	if explicit != "" {
		return explicit
	}
	switch {
	case brevoKey != "":
		return "brevo"
	case sendgridKey != "":
		return "sendgrid"
	}
	return "log"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

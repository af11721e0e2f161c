package router

import (
	"fmt"
	"net/http"
	"strings"

	"concierge-backend/internal/application/clients"
	"concierge-backend/internal/application/documents"
	"concierge-backend/internal/application/emails"
	healthsvc "concierge-backend/internal/application/health"
	"concierge-backend/internal/application/identity"
	"concierge-backend/internal/application/invitations"
	"concierge-backend/internal/application/uploads"
	"concierge-backend/internal/config"
	"concierge-backend/internal/infrastructure/database"
	authhandler "concierge-backend/internal/interfaces/handlers/auth"
	clienthandler "concierge-backend/internal/interfaces/handlers/clients"
	dochandler "concierge-backend/internal/interfaces/handlers/documents"
	healthhandler "concierge-backend/internal/interfaces/handlers/health"
	invhandler "concierge-backend/internal/interfaces/handlers/invitations"
	"concierge-backend/internal/middleware"
	"concierge-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp connects Postgres and Redis from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, nil, err
	}
	app, err := NewApp(cfg, db, rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, nil, err
	}
	return app, db, rdb, nil
}

// NewApp wires services, middleware and routes on an existing DB and Redis client.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*fiber.App, error) {
	idp, err := newIdentityProvider(cfg, db)
	if err != nil {
		return nil, err
	}
	sender, err := emails.NewSender(cfg.EmailProvider, cfg.SendinblueAPIKey, cfg.SendgridAPIKey, cfg.MailFrom)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.NewErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
	})

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Session(sessionCfg, rdb))

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		Probes:         healthProbes(cfg),
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	clientService := &clients.Service{DB: db, Identity: idp}

	ah := &authhandler.Handlers{
		Identity: idp,
		Clients:  clientService,
		Rdb:      rdb,
		Config:   sessionCfg,
		IsAdmin:  cfg.IsAdmin,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", middleware.RequireAuth(), ah.Me)
	authGroup.Delete("/logout", middleware.RequireAuth(), ah.Logout)
	authGroup.Delete("/sessions", middleware.RequireAuth(), ah.LogoutAll)

	// Invitations
	is := &invitations.Service{
		Store:       &invitations.GormStore{DB: db},
		Policy:      invitations.NewTokenPolicy(cfg.InviteTTL),
		Sender:      sender,
		Identity:    idp,
		Provisioner: &clients.Provisioner{DB: db},
		Locker:      &invitations.RedisLocker{Rdb: rdb},
		BaseURL:     cfg.InviteBaseURL,
	}
	ih := &invhandler.Handlers{Service: is}
	app.Get("/api/v1/accept-invite", ih.CheckInvite)
	app.Post("/api/v1/accept-invite", ih.AcceptInvite)
	ig := app.Group("/api/v1/invites", middleware.RequireAuth())
	ig.Post("/create-invite", middleware.AuthorizePermission(constants.InviteClient), ih.CreateInvite)
	ig.Get("/view-invites", middleware.AuthorizePermission(constants.ViewInvites), ih.ViewInvites)
	ig.Post("/resend-invite/:id", middleware.AuthorizePermission(constants.InviteClient), ih.ResendInvite)
	ig.Delete("/revoke-invite/:id", middleware.AuthorizePermission(constants.InviteClient), ih.RevokeInvite)

	// Clients and notes
	ch := &clienthandler.Handlers{Service: clientService}
	cg := app.Group("/api/v1/clients", middleware.RequireAuth())
	cg.Get("/me", ch.Me)
	cg.Get("", middleware.AuthorizePermission(constants.ViewClients), ch.List)
	cg.Get("/:id", middleware.AuthorizePermission(constants.ViewClients), ch.Get)
	cg.Get("/:id/notes", middleware.AuthorizePermission(constants.ViewClients), ch.ListNotes)
	cg.Post("/:id/notes", middleware.AuthorizePermission(constants.ManageClients), ch.AddNote)
	ng := app.Group("/api/v1/notes", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageClients))
	ng.Put("/:id", ch.UpdateNote)
	ng.Delete("/:id", ch.DeleteNote)

	// Documents (Supabase Storage)
	storage := &uploads.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey}
	ds := &documents.Service{
		DB:      db,
		Uploads: &uploads.Service{Client: storage, SupabaseURL: cfg.SupabaseURL},
		Bucket:  cfg.SupabaseDocumentsBucket,
	}
	dh := &dochandler.Handlers{Service: ds}
	cg.Get("/:id/documents", middleware.AuthorizePermission(constants.ViewClients), dh.List)
	cg.Post("/:id/documents", middleware.AuthorizePermission(constants.ManageClients), dh.CreateUpload)
	app.Delete("/api/v1/documents/:id", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageClients), dh.Delete)

	// Client management; deleting a client purges its documents too.
	clientService.Documents = ds
	cg.Put("/:id", middleware.AuthorizePermission(constants.ManageClients), ch.Update)
	cg.Post("/:id/approve", middleware.AuthorizePermission(constants.ManageClients), ch.Approve)
	cg.Delete("/:id", middleware.AuthorizePermission(constants.ManageClients), ch.Delete)

	return app, nil
}

func newIdentityProvider(cfg *config.Config, db *gorm.DB) (identity.Provider, error) {
	switch cfg.IdentityProvider {
	case "supabase":
		p, err := identity.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseSecretKey, nil)
		if err != nil {
			return nil, fmt.Errorf("IDENTITY_PROVIDER=supabase: %w", err)
		}
		return p, nil
	case "local", "":
		return &identity.LocalProvider{DB: db}, nil
	}
	return nil, fmt.Errorf("unknown IDENTITY_PROVIDER %q", cfg.IdentityProvider)
}

func healthProbes(cfg *config.Config) []healthsvc.Probe {
	probes := []healthsvc.Probe{{Name: "frontend", URL: cfg.InviteBaseURL}}
	if cfg.SupabaseURL != "" {
		probes = append(probes, healthsvc.Probe{Name: "supabase", URL: strings.TrimRight(cfg.SupabaseURL, "/") + "/auth/v1/health"})
	}
	return probes
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}

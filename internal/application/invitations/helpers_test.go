package invitations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"concierge-backend/internal/application/clients"
	"concierge-backend/internal/application/emails"
	"concierge-backend/internal/application/identity"
	"concierge-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []emails.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg emails.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type failingProvisioner struct{}

func (failingProvisioner) ProvisionClient(ctx context.Context, fields domain.InvitationFields, identityID string) (*domain.Client, error) {
	return nil, domain.Persistence("provision client", errors.New("insert failed"))
}

// countingStore records Delete calls and can fail them for chosen ids.
type countingStore struct {
	Store
	deletes map[uuid.UUID]int
	failFor map[uuid.UUID]bool
	mu      sync.Mutex
}

func newCountingStore(inner Store) *countingStore {
	return &countingStore{Store: inner, deletes: map[uuid.UUID]int{}, failFor: map[uuid.UUID]bool{}}
}

func (s *countingStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	s.deletes[id]++
	fail := s.failFor[id]
	s.mu.Unlock()
	if fail {
		return domain.Persistence("delete invite", errors.New("connection reset"))
	}
	return s.Store.Delete(ctx, id)
}

type testEnv struct {
	Service  *Service
	DB       *gorm.DB
	Store    *GormStore
	Sender   *fakeSender
	Identity *identity.LocalProvider
	Redis    *miniredis.Miniredis
	Clock    *time.Time
}

func (e *testEnv) advance(d time.Duration) {
	*e.Clock = e.Clock.Add(d)
}

func setupEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Invitation{}, &domain.Client{}, &domain.Identity{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &GormStore{DB: db}
	sender := &fakeSender{}
	idp := &identity.LocalProvider{DB: db}
	env := &testEnv{DB: db, Store: store, Sender: sender, Identity: idp, Redis: mr, Clock: &clock}
	env.Service = &Service{
		Store:       store,
		Policy:      NewTokenPolicy(0),
		Sender:      sender,
		Identity:    idp,
		Provisioner: &clients.Provisioner{DB: db},
		Locker:      &RedisLocker{Rdb: rdb},
		BaseURL:     "https://app.example.com",
		Now:         func() time.Time { return *env.Clock },
	}
	return env
}

func (e *testEnv) createInvite(t *testing.T, email string) *domain.Invitation {
	res, err := e.Service.CreateInvite(context.Background(), CreateInviteInput{
		Fields:    domain.InvitationFields{Email: email},
		CreatedBy: "admin@example.com",
	})
	require.NoError(t, err)
	return res.Invitation
}

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// SupabaseProvider talks to Supabase Auth (GoTrue) with the service_role key.
type SupabaseProvider struct {
	client gotrue.Client
}

// NewSupabaseProvider builds the GoTrue client once. httpClient may be nil.
func NewSupabaseProvider(baseURL, secretKey string, httpClient *http.Client) (*SupabaseProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if secretKey == "" {
		return nil, fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	hc := http.Client{Timeout: 10 * time.Second}
	if httpClient != nil {
		hc = *httpClient
	}
	client := gotrue.New("", secretKey).
		WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + "/auth/v1").
		WithToken(secretKey).
		WithClient(hc)
	return &SupabaseProvider{client: client}, nil
}

// authError is the body GoTrue sends with a non-2xx status.
type authError struct {
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
}

// statusOf extracts the HTTP status and decoded body from a gotrue-go error,
// which reads "response status code <n>: <body>". Returns 0 for transport errors.
func statusOf(err error) (int, authError) {
	var body authError
	var code int
	msg := err.Error()
	if _, scanErr := fmt.Sscanf(msg, "response status code %d", &code); scanErr != nil {
		return 0, body
	}
	if i := strings.Index(msg, ": "); i >= 0 {
		_ = json.Unmarshal([]byte(msg[i+2:]), &body)
	}
	return code, body
}

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (*User, error) {
	resp, err := p.client.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Password:     &password,
		EmailConfirm: true,
	})
	if err != nil {
		code, body := statusOf(err)
		if code == http.StatusConflict || body.ErrorCode == "email_exists" || body.ErrorCode == "user_already_exists" {
			return nil, ErrIdentityConflict
		}
		return nil, fmt.Errorf("supabase sign-up: %w", err)
	}
	if resp.ID == uuid.Nil {
		return nil, fmt.Errorf("supabase sign-up returned no user id")
	}
	return &User{ID: resp.ID.String(), Email: resp.Email}, nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	tok, err := p.client.SignInWithEmailPassword(strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		if errors.Is(err, types.ErrInvalidTokenRequest) {
			return nil, ErrInvalidCredentials
		}
		if code, _ := statusOf(err); code == http.StatusBadRequest || code == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("supabase sign-in: %w", err)
	}
	return &User{ID: tok.User.ID.String(), Email: tok.User.Email}, nil
}

func (p *SupabaseProvider) GetUser(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	resp, err := p.client.AdminGetUser(types.AdminGetUserRequest{UserID: uid})
	if err != nil {
		if code, _ := statusOf(err); code == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("supabase get user: %w", err)
	}
	return &User{ID: resp.ID.String(), Email: resp.Email}, nil
}

// Delete removes the identity. An identity that no longer exists counts as deleted.
func (p *SupabaseProvider) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if err := p.client.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: uid}); err != nil {
		if code, _ := statusOf(err); code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("supabase delete user: %w", err)
	}
	return nil
}

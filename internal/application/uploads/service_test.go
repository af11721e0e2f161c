package uploads

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateSignedUploadURL(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		_, _ = w.Write([]byte(`{"url":"/object/upload/sign/docs/a/1-x.pdf?token=abc"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL + "/", SecretKey: "service-role"}
	u, err := c.CreateSignedUploadURL(context.Background(), "docs", "a/1-x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/object/upload/sign/docs/a/1-x.pdf", gotPath)
	assert.Equal(t, "service-role", gotKey)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/docs/a/1-x.pdf?token=abc", u)
}

func TestHTTPClient_ConcurrentUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"signedUrl":"https://files.example.com/signed"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "service-role"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := c.CreateSignedUploadURL(context.Background(), "docs", "a/1-x.pdf")
			assert.NoError(t, err)
			assert.Equal(t, "https://files.example.com/signed", u)
		}()
	}
	wg.Wait()
	assert.Nil(t, c.Client)
}

func TestHTTPClient_AnonKeyHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Invalid Compact JWS"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "anon"}
	_, err := c.CreateSignedUploadURL(context.Background(), "docs", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_role")
}

func TestHTTPClient_MissingConfig(t *testing.T) {
	_, err := (&HTTPClient{}).CreateSignedUploadURL(context.Background(), "docs", "x")
	assert.Error(t, err)
}

func TestHTTPClient_RemoveObject(t *testing.T) {
	var method string
	var body map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "k"}
	require.NoError(t, c.RemoveObject(context.Background(), "docs", "a/1-x.pdf"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, []string{"a/1-x.pdf"}, body["prefixes"])
}

type fakeStorage struct {
	lastBucket, lastPath string
}

func (f *fakeStorage) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	f.lastBucket, f.lastPath = bucket, objectPath
	return "https://example.com/upload", nil
}

func (f *fakeStorage) RemoveObject(ctx context.Context, bucket, objectPath string) error { return nil }

func TestService_GetSignedUploadURL(t *testing.T) {
	fs := &fakeStorage{}
	s := &Service{
		Client:      fs,
		SupabaseURL: "https://proj.supabase.co/",
		Now:         func() time.Time { return time.UnixMilli(1700000000000) },
	}
	res, err := s.GetSignedUploadURL(context.Background(), "client-documents", "c1", "../My Passport.pdf")
	require.NoError(t, err)
	assert.Equal(t, "c1/1700000000000-My_Passport.pdf", res.Path)
	assert.Equal(t, "client-documents", fs.lastBucket)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/client-documents/c1/1700000000000-My_Passport.pdf", res.PublicURL)
	assert.Equal(t, "https://example.com/upload", res.UploadURL)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "file", SanitizeFileName("  "))
	assert.Equal(t, "b.txt", SanitizeFileName(`a\b.txt`))
	assert.Equal(t, "a_b.txt", SanitizeFileName("a b.txt"))
}

package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// StorageClient is the slice of Supabase Storage the document area needs.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error)
	RemoveObject(ctx context.Context, bucket, objectPath string) error
}

var defaultStorageHTTP = &http.Client{Timeout: 10 * time.Second}

// HTTPClient is a StorageClient backed by the Storage REST API.
// It is safe for concurrent use; Client is never written after construction.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by upload/sign API
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	base := strings.TrimRight(c.BaseURL, "/")
	endpoint := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)
	status, respBody, err := c.do(ctx, http.MethodPost, endpoint, map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", storageError(status, respBody)
	}

	var data signedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// RemoveObject deletes one object. A missing object is not an error.
func (c *HTTPClient) RemoveObject(ctx context.Context, bucket, objectPath string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s", strings.TrimRight(c.BaseURL, "/"), bucket)
	status, respBody, err := c.do(ctx, http.MethodDelete, endpoint, map[string]interface{}{
		"prefixes": []string{objectPath},
	})
	if err != nil {
		return err
	}
	if status == http.StatusNotFound || (status >= 200 && status < 300) {
		return nil
	}
	return storageError(status, respBody)
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body interface{}) (int, []byte, error) {
	if c.BaseURL == "" {
		return 0, nil, fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return 0, nil, fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, err
	}
	// Match @supabase/supabase-js: both apikey and Authorization Bearer (same key)
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	hc := c.Client
	if hc == nil {
		hc = defaultStorageHTTP
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, nil
}

func storageError(status int, body []byte) error {
	bodyStr := string(body)
	// 403 Invalid Compact JWS means the anon key was sent where service_role is required.
	if (status == 400 || status == 403) &&
		(strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized")) {
		return fmt.Errorf("supabase storage requires the service_role key: set SUPABASE_SECRET_KEY (raw body: %s)", bodyStr)
	}
	return fmt.Errorf("supabase error: status %d body: %s", status, bodyStr)
}

// Service issues signed upload URLs under a folder of a bucket.
type Service struct {
	Client      StorageClient
	SupabaseURL string
	Now         func() time.Time
}

// UploadResult is what a browser needs to PUT the file and later link to it.
type UploadResult struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
	Path      string `json:"path"`
}

// GetSignedUploadURL reserves "{folder}/{unix-millis}-{fileName}" in bucket.
func (s *Service) GetSignedUploadURL(ctx context.Context, bucket, folder, fileName string) (*UploadResult, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	objectPath := fmt.Sprintf("%d-%s", now().UnixMilli(), SanitizeFileName(fileName))
	if folder != "" {
		objectPath = folder + "/" + objectPath
	}

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, bucket, objectPath)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: s.PublicURL(bucket, objectPath),
		Path:      objectPath,
	}, nil
}

func (s *Service) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.SupabaseURL, "/"), bucket, objectPath)
}

func (s *Service) Remove(ctx context.Context, bucket, objectPath string) error {
	return s.Client.RemoveObject(ctx, bucket, objectPath)
}

// SanitizeFileName keeps the base name and makes it safe as a single URL path segment.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return url.PathEscape(name)
}

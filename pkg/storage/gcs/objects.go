package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrObjectNotFound marks delete/list targets that no longer exist.
var ErrObjectNotFound = errors.New("gcs: object not found")

// ObjectInfo describes one stored object returned by List.
type ObjectInfo struct {
	Name    string
	Created time.Time
}

// Put writes content under the given object key in the default bucket and
// returns nothing; the public URL is derived separately so callers never store
// a URL for content that failed to upload.
func (c *Client) Put(ctx context.Context, key, contentType string, content []byte) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if key == "" {
		return errors.New("gcs object key is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		url.PathEscape(c.defaultBucket),
		url.QueryEscape(key),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}

// Delete removes the object stored at key. A missing object reports
// ErrObjectNotFound so callers can treat it as already gone.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if key == "" {
		return errors.New("gcs object key is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o/%s",
		url.PathEscape(c.defaultBucket),
		url.PathEscape(key),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrObjectNotFound
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gcs delete failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
}

// List pages through objects under the given prefix in the default bucket.
func (c *Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if c == nil || c.tokenSource == nil {
		return nil, errors.New("gcs client not initialized")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return nil, err
	}

	var out []ObjectInfo
	pageToken := ""
	for {
		u := fmt.Sprintf(
			"https://storage.googleapis.com/storage/v1/b/%s/o?prefix=%s&fields=items(name,timeCreated),nextPageToken",
			url.PathEscape(c.defaultBucket),
			url.QueryEscape(prefix),
		)
		if pageToken != "" {
			u += "&pageToken=" + url.QueryEscape(pageToken)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("gcs list failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}

		var page struct {
			Items []struct {
				Name        string    `json:"name"`
				TimeCreated time.Time `json:"timeCreated"`
			} `json:"items"`
			NextPageToken string `json:"nextPageToken"`
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			out = append(out, ObjectInfo{Name: item.Name, Created: item.TimeCreated})
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// PublicURL returns the stable retrieval URL for an object key.
func (c *Client) PublicURL(key string) string {
	if c == nil {
		return ""
	}
	base := c.publicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return fmt.Sprintf("%s/%s/%s", base, c.defaultBucket, key)
}

// KeyFromURL strips the known public prefix from a stored URL, returning the
// object key. URLs outside this bucket report ErrObjectNotFound.
func (c *Client) KeyFromURL(assetURL string) (string, error) {
	if c == nil {
		return "", errors.New("gcs client not initialized")
	}
	base := c.publicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	prefix := fmt.Sprintf("%s/%s/", base, c.defaultBucket)
	if !strings.HasPrefix(assetURL, prefix) {
		return "", fmt.Errorf("%w: url %q outside bucket %s", ErrObjectNotFound, assetURL, c.defaultBucket)
	}
	key := strings.TrimPrefix(assetURL, prefix)
	if key == "" {
		return "", fmt.Errorf("%w: empty key in %q", ErrObjectNotFound, assetURL)
	}
	return key, nil
}

package gcs

import (
	"errors"
	"testing"
)

func newURLTestClient() *Client {
	return &Client{
		defaultBucket: "printcraft-assets",
		publicBaseURL: "https://storage.googleapis.com",
	}
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	c := newURLTestClient()
	got := c.PublicURL("products/abc/cover.png")
	want := "https://storage.googleapis.com/printcraft-assets/products/abc/cover.png"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestKeyFromURLRoundTrip(t *testing.T) {
	t.Parallel()

	c := newURLTestClient()
	key := "products/abc/cover.png"
	got, err := c.KeyFromURL(c.PublicURL(key))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != key {
		t.Fatalf("expected %s, got %s", key, got)
	}
}

func TestKeyFromURLRejectsForeignBucket(t *testing.T) {
	t.Parallel()

	c := newURLTestClient()
	_, err := c.KeyFromURL("https://storage.googleapis.com/another-bucket/products/x.png")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestKeyFromURLRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	c := newURLTestClient()
	if _, err := c.KeyFromURL("https://storage.googleapis.com/printcraft-assets/"); err == nil {
		t.Fatal("expected error for empty key")
	}
}

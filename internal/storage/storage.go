// Package storage hosts uploaded media (post images, profile pictures)
// behind an object storage backend and hands out publicly resolvable URLs.
package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"path"
	"strings"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string

	// PublicURL resolves an object key to its public URL. With an empty key
	// it returns the bucket's base URL including the trailing slash.
	PublicURL(key string) string
}

// Media wraps an ObjectStorage backend with upload semantics for images:
// uploads land in a named folder and return their public URL, and removal
// takes the URL and derives the object key back from it.
type Media struct {
	backend ObjectStorage
}

// NewMedia constructs a Media service for the provided backend.
func NewMedia(backend ObjectStorage) *Media {
	return &Media{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (m *Media) EnsureBucket(ctx context.Context) error {
	return m.backend.EnsureBucket(ctx)
}

// Upload stores an image under the given folder and returns its public URL.
// The object key embeds a random component so repeated uploads of the same
// filename never collide.
func (m *Media) Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (string, error) {
	key := folder + "/" + newObjectID() + "-" + sanitizeFilename(filename)
	if err := m.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", err
	}
	return m.backend.PublicURL(key), nil
}

// Remove deletes the object a public URL points at. URLs outside the bucket
// (the placeholder post image, external avatars) are silently skipped.
func (m *Media) Remove(ctx context.Context, url string) error {
	key, ok := m.keyFromURL(url)
	if !ok {
		return nil
	}
	return m.backend.Delete(ctx, key)
}

// Owns reports whether a URL points into the configured bucket.
func (m *Media) Owns(url string) bool {
	_, ok := m.keyFromURL(url)
	return ok
}

func (m *Media) keyFromURL(url string) (string, bool) {
	base := m.backend.PublicURL("")
	if base == "" || !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	if key == "" {
		return "", false
	}
	return key, true
}

func sanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}

func newObjectID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf[:])
}

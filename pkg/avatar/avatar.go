// Package avatar downloads and serves profile pictures fetched from
// social providers.
//
// Downloads are best effort. A login or registration never fails
// because the provider's CDN was slow; the caller just keeps the old
// (or empty) avatar URL.
package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"
)

// maxAvatarBytes caps a single download; provider avatars are small.
const maxAvatarBytes = 5 << 20

// Store saves avatar images on the local filesystem and maps them to
// URLs under a static route.
type Store struct {
	rootDir string
	baseURL string
	client  *http.Client
}

// NewStore creates the avatar store, creating rootDir if needed.
// baseURL is the public path prefix the files are served under.
func NewStore(rootDir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory: %w", err)
	}
	return &Store{
		rootDir: rootDir,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Dir returns the directory the store writes to, for mounting the
// static file route.
func (s *Store) Dir() string {
	return s.rootDir
}

// Download fetches the image at srcURL and stores it under the user's
// id, returning the public URL of the saved copy.
func (s *Store) Download(ctx context.Context, userID int64, srcURL string) (string, error) {
	if srcURL == "" {
		return "", fmt.Errorf("no avatar url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build avatar request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar fetch returned status %d", resp.StatusCode)
	}

	filename := fmt.Sprintf("%d%s", userID, extensionFor(resp.Header.Get("Content-Type")))
	dst := filepath.Join(s.rootDir, filename)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxAvatarBytes)); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}

	return path.Join(s.baseURL, filename), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		// LINE serves JPEG without always saying so.
		return ".jpg"
	}
}

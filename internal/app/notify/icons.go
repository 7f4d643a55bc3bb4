package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// upper bound for a downloaded icon.
	maxIconBytes = 1 << 20

	iconFetchTimeout = 3 * time.Second
)

// iconCache turns remote icon URLs into local files the notification service can load.
type iconCache struct {
	dir    string
	client *http.Client

	// mu serializes downloads so one URL is fetched once.
	mu sync.Mutex
}

func newIconCache(dir string) *iconCache {
	return &iconCache{
		dir:    dir,
		client: &http.Client{Timeout: iconFetchTimeout},
	}
}

// iconDir is <user cache dir>/<appName>/icons, or a temp directory when there is no
// user cache dir.
func iconDir(appName string) string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appName, "icons")
}

// path returns a local file for icon. Local paths and empty strings are returned as is.
func (c *iconCache) path(ctx context.Context, icon string) (string, error) {
	if !strings.HasPrefix(icon, "http://") && !strings.HasPrefix(icon, "https://") {
		return icon, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sum := sha256.Sum256([]byte(icon))
	prefix := filepath.Join(c.dir, hex.EncodeToString(sum[:12]))

	if matches, _ := filepath.Glob(prefix + ".*"); len(matches) > 0 {
		return matches[0], nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, icon, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch icon: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(c.dir, "icon-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, maxIconBytes)); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	name := prefix + iconExt(resp.Header.Get("Content-Type"))
	if err := os.Rename(tmp.Name(), name); err != nil {
		return "", err
	}
	return name, nil
}

func iconExt(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/svg+xml"):
		return ".svg"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	default:
		return ".img"
	}
}

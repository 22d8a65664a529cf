// Package icon implements the Icon Store (spec.md §4.G): a
// freshness-gated download cache for application icons shared by the
// Integration Manager's access-point appliers.
package icon

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/zerr"
)

// DefaultFreshness is how long a cached icon is served without
// re-checking the source, per spec.md §4.G.
const DefaultFreshness = 20 * time.Minute

// Store is a directory of downloaded icons, keyed by a stable filename
// derived from URL and MIME type.
type Store struct {
	Dir        string
	Freshness  time.Duration
	Client     *retryablehttp.Client
	downloadMu sync.Map // url string -> *flock.Flock, one lock per concurrent download of the same icon
}

// New returns a Store rooted at dir, created if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &zerr.IO{Op: "mkdir", Path: dir, Cause: err}
	}
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &Store{Dir: dir, Freshness: DefaultFreshness, Client: client}, nil
}

var extensionByMIME = map[string]string{
	"image/png":                ".png",
	"image/vnd.microsoft.icon": ".ico",
	"image/x-icon":             ".ico",
	"image/svg+xml":            ".svg",
}

// GetPath returns the local path for iconURL, downloading or
// refreshing it as needed (spec.md §4.G get_path). machineWide is
// accepted for interface symmetry with the platform appliers; this
// implementation shares one cache directory regardless.
func (s *Store) GetPath(ctx context.Context, iconURL, mimeType string, machineWide bool) (string, error) {
	path := s.pathFor(iconURL, mimeType)

	if fi, err := os.Stat(path); err == nil {
		if time.Since(fi.ModTime()) < s.Freshness {
			return path, nil
		}
	}

	lock := s.lockFor(path)
	if err := lock.Lock(); err != nil {
		return "", &zerr.IO{Op: "flock", Path: path, Cause: err}
	}
	defer lock.Unlock()

	// Re-check freshness: another goroutine may have refreshed while we
	// waited for the lock.
	if fi, err := os.Stat(path); err == nil && time.Since(fi.ModTime()) < s.Freshness {
		return path, nil
	}

	if err := s.download(ctx, iconURL, path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			zlog.Get(ctx).WithError(err).Warnf("icon: download failed for %s, serving stale cache", iconURL)
			return path, nil
		}
		return "", err
	}
	return path, nil
}

func (s *Store) lockFor(path string) *flock.Flock {
	v, _ := s.downloadMu.LoadOrStore(path, flock.New(path+".lock"))
	return v.(*flock.Flock)
}

func (s *Store) download(ctx context.Context, iconURL, dest string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return &zerr.Network{Cause: err}
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return &zerr.Network{Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &zerr.Network{Cause: statusError(resp.StatusCode)}
	}

	tmp := dest + ".download"
	f, err := os.Create(tmp)
	if err != nil {
		return &zerr.IO{Op: "create", Path: tmp, Cause: err}
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return &zerr.IO{Op: "write", Path: tmp, Cause: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &zerr.IO{Op: "close", Path: tmp, Cause: err}
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return &zerr.IO{Op: "rename", Path: dest, Cause: err}
	}
	return nil
}

func (s *Store) pathFor(iconURL, mimeType string) string {
	ext := extensionByMIME[mimeType]
	return filepath.Join(s.Dir, escapeURL(iconURL)+ext)
}

func escapeURL(u string) string {
	return strings.ReplaceAll(url.QueryEscape(u), "%", "_")
}

type statusError int

func (e statusError) Error() string { return "unexpected icon download status" }

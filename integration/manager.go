// Package integration implements the Integration Manager (spec.md
// §4.F): lifecycle of AppEntries and their access points, a
// cross-process mutex envelope, the apply/unapply algorithm with
// rollback, a category manager, and (in sync.go) the sync manager's
// three-way merge.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/zero-install/zeroinstall/applist"
	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/zerr"
)

// AccessPointApplier is implemented once per access-point Kind by the
// platform-specific integration handlers plugged in by the caller
// (spec.md §6 "Platform integration handlers"); the core only invokes
// Apply/Unapply.
type AccessPointApplier interface {
	Apply(ctx context.Context, app *applist.AppEntry, ap applist.AccessPoint, iconPath string, machineWide bool) error
	Unapply(ctx context.Context, app *applist.AppEntry, ap applist.AccessPoint, machineWide bool) error
}

// Manager owns one AppList file's lifetime: construction acquires the
// cross-process mutex and opens (or creates) the file; every mutating
// operation ends by calling finish(), which persists the list
// atomically.
type Manager struct {
	path        string
	machineWide bool
	hostname    string
	applier     AccessPointApplier
	iconPath    func(capabilityID string) string

	mutex *namedMutex
	list  *applist.AppList
}

// Options configures New.
type Options struct {
	Path        string
	MachineWide bool
	Applier     AccessPointApplier
	IconPath    func(capabilityID string) string
}

// New acquires the named cross-process mutex and opens path, creating
// an empty AppList if it is absent.
func New(ctx context.Context, opts Options) (*Manager, error) {
	mu := newNamedMutex(mutexName(opts.MachineWide))
	if err := mu.TryLock(); err != nil {
		return nil, &zerr.AnotherInstanceActive{}
	}

	hostname, _ := os.Hostname()
	m := &Manager{
		path:        opts.Path,
		machineWide: opts.MachineWide,
		hostname:    hostname,
		applier:     opts.Applier,
		iconPath:    opts.IconPath,
		mutex:       mu,
		list:        applist.LoadSafe(ctx, opts.Path),
	}
	return m, nil
}

// Close releases the cross-process mutex. It does not persist pending
// changes — every operation already calls finish() on success.
func (m *Manager) Close() error {
	return m.mutex.Unlock()
}

func mutexName(machineWide bool) string {
	if machineWide {
		return "zeroinstall-integration-machine"
	}
	return "zeroinstall-integration-user"
}

// finish persists the AppList atomically: write-tempfile-then-rename,
// retried on transient I/O errors.
func (m *Manager) finish(ctx context.Context) error {
	data, err := applist.Marshal(m.list)
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &zerr.IO{Op: "mkdir", Path: dir, Cause: err}
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		tmp := m.path + ".new"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			lastErr = err
			continue
		}
		if err := os.Rename(tmp, m.path); err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return &zerr.IO{Op: "rename", Path: m.path, Cause: lastErr}
	}

	broadcastChange(m.path)
	return nil
}

// hostnameMatches implements the apply/unapply algorithm's first
// filtering step: a non-matching hostname_regex is a silent no-op, not
// an error — the entry is persisted but not realised on this machine.
func (m *Manager) hostnameMatches(app *applist.AppEntry) bool {
	if app.HostnameRegex == "" {
		return true
	}
	re, err := regexp.Compile(app.HostnameRegex)
	if err != nil {
		zlog.Get(context.Background()).WithError(err).Warnf("app %s has invalid hostname_regex, treating as non-match", app.InterfaceURI)
		return false
	}
	return re.MatchString(m.hostname)
}

// mapKeyNotFound wraps an unexpected missing-key condition into
// InvalidData, per spec.md §4.F's uniform error-mapping layer.
func mapKeyNotFound(context string, err error) error {
	if err == nil {
		return nil
	}
	return &zerr.InvalidData{Context: context, Cause: err}
}

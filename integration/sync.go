package integration

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/zero-install/zeroinstall/applist"
	"github.com/zero-install/zeroinstall/zerr"
)

// ResetMode controls the direction a Sync call is forced in, per
// spec.md §4.F sync step 3.
type ResetMode int

const (
	// ResetNone runs the normal three-way merge.
	ResetNone ResetMode = iota
	// ResetClient forces two-way: server state overwrites mine.
	ResetClient
	// ResetServer skips the merge and simply replaces server state
	// with mine; the server copy is still downloaded first, for its
	// ETag.
	ResetServer
)

// SyncManager layers the three-way merge on top of a Manager.
type SyncManager struct {
	m            *Manager
	serverURL    string
	password     string
	lastSyncPath string
	client       *retryablehttp.Client
}

// NewSyncManager wraps m with sync against serverURL, encrypted with
// password. lastSyncPath stores the "app-list.xml.last-sync" reference
// alongside the AppList file.
func NewSyncManager(m *Manager, serverURL, password, lastSyncPath string) *SyncManager {
	client := retryablehttp.NewClient()
	client.RetryMax = 0 // retries here are sync-semantic (race), not transport-semantic
	client.Logger = nil
	return &SyncManager{m: m, serverURL: serverURL, password: password, lastSyncPath: lastSyncPath, client: client}
}

// Sync runs one round of download, three-way merge, apply, upload
// (spec.md §4.F sync). Up to 3 attempts are made if the upload loses
// an ETag race.
func (s *SyncManager) Sync(ctx context.Context, mode ResetMode) error {
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.syncOnce(ctx, mode)
		if err == nil {
			return nil
		}
		if _, ok := err.(*zerr.SyncRace); !ok {
			return err
		}
	}
	return &zerr.SyncRace{Retries: maxRetries}
}

func (s *SyncManager) syncOnce(ctx context.Context, mode ResetMode) error {
	serverList, etag, err := s.download(ctx)
	if err != nil {
		return err
	}

	reference := applist.LoadSafe(ctx, s.lastSyncPath)

	var merged *applist.AppList
	var added, removed []*applist.AppEntry
	switch mode {
	case ResetClient:
		merged = serverList
	case ResetServer:
		merged = s.m.list
	default:
		merged, added, removed = threeWayMerge(reference, s.m.list, serverList)
	}

	if mode != ResetServer {
		for _, e := range removed {
			if app, ok := s.m.list.FindEntry(e.InterfaceURI); ok {
				if err := s.m.RemoveApp(ctx, app.InterfaceURI); err != nil {
					return err
				}
			}
		}
		for _, e := range added {
			if _, ok := s.m.list.FindEntry(e.InterfaceURI); !ok {
				s.m.list.Entries = append(s.m.list.Entries, e)
			}
		}
		s.m.list = merged
		if err := s.m.finish(ctx); err != nil {
			return err
		}
	}

	if mode == ResetClient {
		return s.saveReference(ctx, merged)
	}

	if err := s.upload(ctx, s.m.list, etag); err != nil {
		return err
	}
	return s.saveReference(ctx, s.m.list)
}

func (s *SyncManager) saveReference(ctx context.Context, list *applist.AppList) error {
	data, err := applist.Marshal(list)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.lastSyncPath, data, 0o644); err != nil {
		return &zerr.IO{Op: "write", Path: s.lastSyncPath, Cause: err}
	}
	return nil
}

func (s *SyncManager) download(ctx context.Context) (*applist.AppList, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.serverURL, nil)
	if err != nil {
		return nil, "", &zerr.Network{Cause: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", &zerr.Network{Cause: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &applist.AppList{}, "", nil
	case http.StatusUnauthorized:
		return nil, "", &zerr.CredentialsInvalid{}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &zerr.Network{Cause: errUnexpectedStatus(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &zerr.Network{Cause: err}
	}
	list, err := applist.UnpackZip(body, s.password)
	if err != nil {
		return nil, "", err
	}
	return list, resp.Header.Get("ETag"), nil
}

func (s *SyncManager) upload(ctx context.Context, list *applist.AppList, etag string) error {
	body, err := applist.PackZip(list, s.password)
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, s.serverURL, bytes.NewReader(body))
	if err != nil {
		return &zerr.Network{Cause: err}
	}
	if etag != "" {
		req.Header.Set("If-Match", etag)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return &zerr.Network{Cause: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPreconditionFailed:
		return &zerr.SyncRace{}
	case http.StatusUnauthorized:
		return &zerr.CredentialsInvalid{}
	}
	if resp.StatusCode/100 != 2 {
		return &zerr.Network{Cause: errUnexpectedStatus(resp.StatusCode)}
	}
	return nil
}

// threeWayMerge implements spec.md §4.F sync step 3, comparing entries
// by interface URI only. An entry absent from reference is kept, and
// is reported as added when only one side has it. An entry in
// reference that is missing on one side is dropped and reported as
// removed, whether or not the other side changed it. An entry present
// on both sides is kept in mine's version; edits made on both sides
// are neither detected nor logged.
func threeWayMerge(reference, mine, server *applist.AppList) (merged *applist.AppList, added, removed []*applist.AppEntry) {
	refIDs := entrySet(reference)
	mineIDs := entrySet(mine)
	serverIDs := entrySet(server)

	out := &applist.AppList{}
	seen := map[string]bool{}

	for uri, e := range mineIDs {
		if seen[uri] {
			continue
		}
		seen[uri] = true
		if _, inRef := refIDs[uri]; !inRef {
			if _, inServer := serverIDs[uri]; !inServer {
				added = append(added, e)
			}
		}
		if _, inServer := serverIDs[uri]; !inServer {
			if _, inRef := refIDs[uri]; inRef {
				removed = append(removed, e)
				continue
			}
		}
		out.Entries = append(out.Entries, e)
	}

	for uri, e := range serverIDs {
		if seen[uri] {
			continue
		}
		seen[uri] = true
		if _, inRef := refIDs[uri]; !inRef {
			added = append(added, e)
			out.Entries = append(out.Entries, e)
			continue
		}
		if _, inMine := mineIDs[uri]; !inMine {
			removed = append(removed, e)
			continue
		}
		out.Entries = append(out.Entries, e)
	}

	return out, added, removed
}

func entrySet(l *applist.AppList) map[string]*applist.AppEntry {
	out := map[string]*applist.AppEntry{}
	if l == nil {
		return out
	}
	for _, e := range l.Entries {
		out[e.InterfaceURI] = e
	}
	return out
}

type statusError int

func (e statusError) Error() string { return "unexpected status code" }

func errUnexpectedStatus(code int) error { return statusError(code) }

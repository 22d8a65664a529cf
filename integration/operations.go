package integration

import (
	"context"
	"time"

	"github.com/zero-install/zeroinstall/applist"
	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/zerr"
)

// AddApp registers interfaceURI with no access points, persisting the
// change via finish().
func (m *Manager) AddApp(ctx context.Context, interfaceURI, name string) error {
	if _, ok := m.list.FindEntry(interfaceURI); ok {
		return nil // already present, idempotent
	}
	m.list.Entries = append(m.list.Entries, &applist.AppEntry{InterfaceURI: interfaceURI, Name: name})
	return m.finish(ctx)
}

// RemoveApp unapplies every access point then removes the entry.
// Per DESIGN.md's Open Question (b) decision this is all-or-nothing:
// if any unapply fails, the entry is left in the list (with its
// remaining access points intact) and the error is returned, rather
// than removing a partially-unapplied entry.
func (m *Manager) RemoveApp(ctx context.Context, interfaceURI string) error {
	app, ok := m.list.FindEntry(interfaceURI)
	if !ok {
		return mapKeyNotFound("remove_app", &zerr.NotFound{Kind: "app", ID: interfaceURI})
	}

	if m.hostnameMatches(app) {
		for i := len(app.AccessPoints) - 1; i >= 0; i-- {
			ap := app.AccessPoints[i]
			if err := m.applier.Unapply(ctx, app, ap, m.machineWide); err != nil {
				zlog.Get(ctx).WithError(err).Errorf("remove_app %s: unapply failed, leaving entry in place", interfaceURI)
				return err
			}
		}
	}

	m.removeEntry(interfaceURI)
	return m.finish(ctx)
}

func (m *Manager) removeEntry(interfaceURI string) {
	out := m.list.Entries[:0]
	for _, e := range m.list.Entries {
		if e.InterfaceURI != interfaceURI {
			out = append(out, e)
		}
	}
	m.list.Entries = out
}

// UpdateApp replaces name/auto_update/hostname_regex metadata without
// touching access points.
func (m *Manager) UpdateApp(ctx context.Context, interfaceURI, name string, autoUpdate bool, hostnameRegex string) error {
	app, ok := m.list.FindEntry(interfaceURI)
	if !ok {
		return mapKeyNotFound("update_app", &zerr.NotFound{Kind: "app", ID: interfaceURI})
	}
	app.Name = name
	app.AutoUpdate = autoUpdate
	app.HostnameRegex = hostnameRegex
	return m.finish(ctx)
}

// AddAccessPoints runs the apply/unapply algorithm (spec.md §4.F) for
// a batch of new access points on one app.
func (m *Manager) AddAccessPoints(ctx context.Context, interfaceURI string, points []applist.AccessPoint) error {
	app, ok := m.list.FindEntry(interfaceURI)
	if !ok {
		return mapKeyNotFound("add_access_points", &zerr.NotFound{Kind: "app", ID: interfaceURI})
	}

	if !m.hostnameMatches(app) {
		app.AccessPoints = append(app.AccessPoints, points...)
		app.HasAccessPoint = true
		return m.finish(ctx)
	}

	if err := applist.CheckForConflicts(m.list, points, app); err != nil {
		return err
	}

	applied := make([]applist.AccessPoint, 0, len(points))
	for _, ap := range points {
		iconPath := ""
		if m.iconPath != nil {
			iconPath = m.iconPath(ap.CapabilityID)
		}
		if err := m.applier.Apply(ctx, app, ap, iconPath, m.machineWide); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				if uerr := m.applier.Unapply(ctx, app, applied[i], m.machineWide); uerr != nil {
					zlog.Get(ctx).WithError(uerr).Error("add_access_points: rollback unapply also failed")
				}
			}
			return err
		}
		applied = append(applied, ap)
	}

	app.AccessPoints = append(app.AccessPoints, applied...)
	app.HasAccessPoint = true
	app.Timestamp = time.Now().Unix()
	return m.finish(ctx)
}

// RemoveAccessPoints unapplies and drops the named access points
// (matched by conflict id) from app.
func (m *Manager) RemoveAccessPoints(ctx context.Context, interfaceURI string, conflictIDs map[string]bool) error {
	app, ok := m.list.FindEntry(interfaceURI)
	if !ok {
		return mapKeyNotFound("remove_access_points", &zerr.NotFound{Kind: "app", ID: interfaceURI})
	}

	var remaining []applist.AccessPoint
	for _, ap := range app.AccessPoints {
		match := false
		for _, id := range ap.ConflictIDs(app) {
			if conflictIDs[id] {
				match = true
				break
			}
		}
		if !match {
			remaining = append(remaining, ap)
			continue
		}
		if m.hostnameMatches(app) {
			if err := m.applier.Unapply(ctx, app, ap, m.machineWide); err != nil {
				return err
			}
		}
	}
	app.AccessPoints = remaining
	app.Timestamp = time.Now().Unix()
	return m.finish(ctx)
}

// Repair is the hook for machine-wide cleanup of stale implementations
// and re-application of access points that drifted out of sync with
// the platform. Per DESIGN.md's Open Question (c) decision, the exact
// sweep policy is left to the external solver/CLI layer; this method
// only re-runs apply for every currently-persisted access point.
func (m *Manager) Repair(ctx context.Context) error {
	for _, app := range m.list.Entries {
		if !m.hostnameMatches(app) {
			continue
		}
		for _, ap := range app.AccessPoints {
			iconPath := ""
			if m.iconPath != nil {
				iconPath = m.iconPath(ap.CapabilityID)
			}
			if err := m.applier.Apply(ctx, app, ap, iconPath, m.machineWide); err != nil {
				zlog.Get(ctx).WithError(err).Warnf("repair: could not reapply access point for %s, continuing", app.InterfaceURI)
			}
		}
	}
	return nil
}

package integration

import (
	"context"
	"regexp"

	"github.com/zero-install/zeroinstall/applist"
)

// Category names the seven access-point groupings the category
// manager operates on (spec.md §4.F).
type Category string

const (
	CategoryCapabilities Category = "capabilities"
	CategoryMenu         Category = "menu"
	CategoryDesktop      Category = "desktop"
	CategorySendTo       Category = "send-to"
	CategoryAlias        Category = "alias"
	CategoryAutoStart    Category = "auto-start"
	CategoryDefaults     Category = "defaults"
)

func kindsForCategory(cat Category) []applist.Kind {
	switch cat {
	case CategoryCapabilities:
		return []applist.Kind{applist.KindCapabilityRegistration}
	case CategoryMenu:
		return []applist.Kind{applist.KindMenuEntry}
	case CategoryDesktop:
		return []applist.Kind{applist.KindDesktopIcon}
	case CategorySendTo:
		return []applist.Kind{applist.KindSendTo}
	case CategoryAlias:
		return []applist.Kind{applist.KindAppAlias}
	case CategoryAutoStart:
		return []applist.Kind{applist.KindAutoStart}
	case CategoryDefaults:
		return []applist.Kind{applist.KindDefaultAccessPoint}
	default:
		return nil
	}
}

// EntryPoint is the narrow slice of a feed's <entry-point> metadata
// the category manager's suggest functions consume.
type EntryPoint struct {
	Command          string
	NeedsTerminal    bool
	SuggestAutoStart bool
	SuggestSendTo    bool
}

// AddCategory adds access points for every suggested entry point in
// cat, de-duplicated by safe-file-name-normalised command name.
func (m *Manager) AddCategory(ctx context.Context, interfaceURI string, cat Category, capabilityID string, entryPoints []EntryPoint) error {
	seen := map[string]bool{}
	var points []applist.AccessPoint

	for _, ep := range entryPoints {
		if !suggestedFor(cat, ep) {
			continue
		}
		name := safeFileName(ep.Command)
		if seen[name] {
			continue
		}
		seen[name] = true
		points = append(points, accessPointForCategory(cat, capabilityID, name))
	}
	if len(points) == 0 {
		return nil
	}
	return m.AddAccessPoints(ctx, interfaceURI, points)
}

func suggestedFor(cat Category, ep EntryPoint) bool {
	switch cat {
	case CategoryAutoStart:
		return ep.SuggestAutoStart
	case CategorySendTo:
		return ep.SuggestSendTo
	case CategoryMenu, CategoryDesktop, CategoryAlias:
		return true
	default:
		return true
	}
}

func accessPointForCategory(cat Category, capabilityID, name string) applist.AccessPoint {
	kinds := kindsForCategory(cat)
	kind := applist.KindMenuEntry
	if len(kinds) > 0 {
		kind = kinds[0]
	}
	return applist.AccessPoint{Kind: kind, CapabilityID: capabilityID, Category: name}
}

// RemoveCategory removes every access point belonging to cat.
func (m *Manager) RemoveCategory(ctx context.Context, interfaceURI string, cat Category) error {
	app, ok := m.list.FindEntry(interfaceURI)
	if !ok {
		return nil
	}
	kinds := map[applist.Kind]bool{}
	for _, k := range kindsForCategory(cat) {
		kinds[k] = true
	}
	ids := map[string]bool{}
	for _, ap := range app.AccessPoints {
		if kinds[ap.Kind] {
			for _, id := range ap.ConflictIDs(app) {
				ids[id] = true
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return m.RemoveAccessPoints(ctx, interfaceURI, ids)
}

var unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// safeFileName normalises an entry-point command name into something
// safe to use as a menu entry or shortcut file name.
func safeFileName(name string) string {
	if name == "" {
		name = "main"
	}
	return unsafeFileNameChars.ReplaceAllString(name, "_")
}

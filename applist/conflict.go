package applist

import "github.com/zero-install/zeroinstall/zerr"

// CheckForConflicts implements spec.md §4.E conflict detection and
// testable property 8 (commutative over the proposed set):
//  1. new_ids = the union of conflict ids over points; a duplicate
//     within that union is InnerConflict.
//  2. existing_ids = the union of conflict ids already present across
//     list; a duplicate found while building that union (two distinct
//     existing access points claiming the same id — a corrupted-list
//     condition the invariant should otherwise prevent) is
//     ExistingConflict.
//  3. For each id in both new_ids and existing_ids, if the existing
//     access point's data is not identical to the new one, NewConflict.
func CheckForConflicts(list *AppList, points []AccessPoint, app *AppEntry) error {
	seen := map[string]AccessPoint{}
	var innerDup []string
	for _, ap := range points {
		for _, id := range ap.ConflictIDs(app) {
			if _, ok := seen[id]; ok {
				innerDup = append(innerDup, id)
				continue
			}
			seen[id] = ap
		}
	}
	if len(innerDup) > 0 {
		return &zerr.Conflict{Kind: zerr.ConflictInner, Entries: innerDup}
	}

	existing, existingDup := existingIDs(list)
	if len(existingDup) > 0 {
		return &zerr.Conflict{Kind: zerr.ConflictExisting, Entries: existingDup}
	}

	var newDup []string
	for id, ap := range seen {
		prior, ok := existing[id]
		if !ok {
			continue
		}
		if prior.ap.Equal(ap) {
			continue // identical re-registration, not a conflict
		}
		newDup = append(newDup, id+" ("+prior.appURI+" vs new)")
	}
	if len(newDup) > 0 {
		return &zerr.Conflict{Kind: zerr.ConflictNew, Entries: newDup}
	}
	return nil
}

type existingEntry struct {
	ap     AccessPoint
	appURI string
}

func existingIDs(list *AppList) (map[string]existingEntry, []string) {
	out := map[string]existingEntry{}
	var dup []string
	for _, e := range list.Entries {
		for _, ap := range e.AccessPoints {
			for _, id := range ap.ConflictIDs(e) {
				if _, ok := out[id]; ok {
					dup = append(dup, id)
					continue
				}
				out[id] = existingEntry{ap: ap, appURI: e.InterfaceURI}
			}
		}
	}
	return out, dup
}

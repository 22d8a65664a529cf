package integration

import (
	"context"
	"testing"

	"github.com/zero-install/zeroinstall/applist"
)

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"":                "main",
		"run":             "run",
		"run this thing":  "run_this_thing",
		"a/b\\c":          "a_b_c",
		"already-safe._x": "already-safe._x",
	}
	for in, want := range cases {
		if got := safeFileName(in); got != want {
			t.Errorf("safeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAddCategoryDeduplicatesByCommand(t *testing.T) {
	applier := &recordingApplier{}
	m := newTestManager(t, applier)
	if err := m.AddApp(context.Background(), "http://example.com/a.xml", "A"); err != nil {
		t.Fatalf("AddApp: %v", err)
	}

	eps := []EntryPoint{
		{Command: "run"},
		{Command: "run"},
		{Command: "other"},
	}
	if err := m.AddCategory(context.Background(), "http://example.com/a.xml", CategoryMenu, "", eps); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if len(applier.applied) != 2 {
		t.Fatalf("applied = %d, want 2 (deduplicated by command)", len(applier.applied))
	}
}

func TestAddCategorySkipsUnsuggestedEntryPoints(t *testing.T) {
	applier := &recordingApplier{}
	m := newTestManager(t, applier)
	if err := m.AddApp(context.Background(), "http://example.com/a.xml", "A"); err != nil {
		t.Fatalf("AddApp: %v", err)
	}

	eps := []EntryPoint{{Command: "run", SuggestAutoStart: false}}
	if err := m.AddCategory(context.Background(), "http://example.com/a.xml", CategoryAutoStart, "", eps); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if len(applier.applied) != 0 {
		t.Errorf("applied = %d, want 0 (entry point did not suggest auto-start)", len(applier.applied))
	}
}

func TestRemoveCategoryRemovesOnlyMatchingKind(t *testing.T) {
	applier := &recordingApplier{}
	m := newTestManager(t, applier)
	if err := m.AddApp(context.Background(), "http://example.com/a.xml", "A"); err != nil {
		t.Fatalf("AddApp: %v", err)
	}
	points := []applist.AccessPoint{
		{Kind: applist.KindMenuEntry, Category: "Games"},
		{Kind: applist.KindDesktopIcon},
	}
	if err := m.AddAccessPoints(context.Background(), "http://example.com/a.xml", points); err != nil {
		t.Fatalf("AddAccessPoints: %v", err)
	}

	if err := m.RemoveCategory(context.Background(), "http://example.com/a.xml", CategoryMenu); err != nil {
		t.Fatalf("RemoveCategory: %v", err)
	}
	app, _ := m.list.FindEntry("http://example.com/a.xml")
	if len(app.AccessPoints) != 1 || app.AccessPoints[0].Kind != applist.KindDesktopIcon {
		t.Errorf("AccessPoints = %+v, want only the desktop icon remaining", app.AccessPoints)
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zero-install/zeroinstall/manifest"
)

func writeTestConfig(t *testing.T, storeRoot string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	contents := "store:\n  root: " + storeRoot + "\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return configPath
}

func TestAddFindVerifyRoundTrip(t *testing.T) {
	storeRoot := filepath.Join(t.TempDir(), "store")
	configPath := writeTestConfig(t, storeRoot)

	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "hello"), []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := manifest.Generate(srcDir, manifest.SHA256New)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	hex, err := m.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	digestStr := "sha256new_" + hex

	addCmd := newAddCmd(&configPath)
	addCmd.SetArgs([]string{digestStr, srcDir})
	if err := addCmd.Execute(); err != nil {
		t.Fatalf("add: %v", err)
	}

	findCmd := newFindCmd(&configPath)
	findCmd.SetArgs([]string{digestStr})
	if err := findCmd.Execute(); err != nil {
		t.Fatalf("find: %v", err)
	}

	verifyCmd := newVerifyCmd(&configPath)
	verifyCmd.SetArgs([]string{digestStr})
	if err := verifyCmd.Execute(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestFindUnknownDigestErrors(t *testing.T) {
	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "store"))
	findCmd := newFindCmd(&configPath)
	findCmd.SetArgs([]string{"sha256new_" + sampleAllZeroHex()})
	if err := findCmd.Execute(); err == nil {
		t.Error("expected an error for a digest not present in the store")
	}
}

func TestListAndOptimiseOnEmptyStore(t *testing.T) {
	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "store"))

	listCmd := newListCmd(&configPath)
	if err := listCmd.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}

	optimiseCmd := newOptimiseCmd(&configPath)
	if err := optimiseCmd.Execute(); err != nil {
		t.Fatalf("optimise: %v", err)
	}
}

func sampleAllZeroHex() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

package manifest

import "testing"

func TestSplitDigestString(t *testing.T) {
	algo, hex, err := SplitDigestString("sha256new_abcd1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if algo != SHA256New || hex != "abcd1234" {
		t.Errorf("got (%q, %q)", algo, hex)
	}

	bad := []string{"", "noUnderscore", "_abcd", "sha256new_", "sha256new_NOTHEX", "bogus_abcd"}
	for _, s := range bad {
		if _, _, err := SplitDigestString(s); err == nil {
			t.Errorf("SplitDigestString(%q) succeeded, want error", s)
		}
	}
}

func TestDigestBestPreference(t *testing.T) {
	var d Digest
	d.Set(SHA1New, "aaaa")
	if d.Best() != "sha1new_aaaa" {
		t.Fatalf("Best() = %q", d.Best())
	}

	d.Set(SHA256, "bbbb")
	if d.Best() != "sha256_bbbb" {
		t.Fatalf("Best() = %q, want sha256 to win over sha1new", d.Best())
	}

	d.Set(SHA256New, "cccc")
	if d.Best() != "sha256new_cccc" {
		t.Fatalf("Best() = %q, want sha256new to win", d.Best())
	}
}

func TestDigestMatches(t *testing.T) {
	a, err := NewDigest("sha1new_aaaa", "sha256new_cccc")
	if err != nil {
		t.Fatalf("NewDigest: %v", err)
	}
	b, err := NewDigest("sha256new_cccc")
	if err != nil {
		t.Fatalf("NewDigest: %v", err)
	}
	if !a.Matches(b) {
		t.Error("expected digests sharing sha256new to match")
	}

	c, err := NewDigest("sha256new_dddd")
	if err != nil {
		t.Fatalf("NewDigest: %v", err)
	}
	if a.Matches(c) {
		t.Error("expected digests with differing sha256new to not match")
	}

	var empty Digest
	if !empty.Empty() {
		t.Error("zero-value Digest should be Empty")
	}
}

package builder

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a/b/c", "a/b/c", false},
		{"./a/b", "a/b", false},
		{"/a/b", "a/b", false},
		{"a/./b", "a/b", false},
		{"", "", true},
		{".", "", true},
		{"..", "", true},
		{"../escape", "", true},
		{"a/../../escape", "", true},
		{"C:/windows", "", true},
	}
	for _, c := range cases {
		got, err := NormalizePath(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizePath(%q) = %q, want error", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePath(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package media

import (
	"regexp"
	"strings"
	"testing"
)

func TestStorageKey(t *testing.T) {
	keyShape := regexp.MustCompile(`^media/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.png$`)

	key := storageKey("/tmp/avatar-123.png")
	if !keyShape.MatchString(key) {
		t.Errorf("storageKey() = %q, want media/YYYY/MM/DD/<uuid>.png", key)
	}

	if other := storageKey("/tmp/avatar-123.png"); other == key {
		t.Error("storageKey() returned the same key twice, want unique keys")
	}

	if key := storageKey("/tmp/noext"); strings.Contains(key, ".") {
		t.Errorf("storageKey() = %q, want no extension for an extensionless file", key)
	}
}

func TestKeyFromURL(t *testing.T) {
	s := &S3Storage{bucket: "userhub-media", endpoint: "http://localhost:9000"}

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "own URL",
			url:  "http://localhost:9000/userhub-media/media/2026/09/01/abc.png",
			want: "media/2026/09/01/abc.png",
		},
		{
			name: "foreign host",
			url:  "http://elsewhere.example/userhub-media/media/2026/09/01/abc.png",
			want: "",
		},
		{
			name: "wrong bucket",
			url:  "http://localhost:9000/other-bucket/media/2026/09/01/abc.png",
			want: "",
		},
		{
			name: "empty URL",
			url:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.keyFromURL(tt.url); got != tt.want {
				t.Errorf("keyFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

package blob

import "testing"

func TestCleanKey(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"measurements/c1/20240101_000000_0.jpg": "measurements/c1/20240101_000000_0.jpg",
		"/measurements//c1/a.jpg":               "measurements/c1/a.jpg",
		`measurements\c1\a.jpg`:                 "measurements/c1/a.jpg",
	}
	for in, want := range valid {
		got, err := CleanKey(in)
		if err != nil {
			t.Fatalf("CleanKey(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("CleanKey(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "   ", "/", "../etc/passwd", "measurements/../../x.jpg"} {
		if _, err := CleanKey(in); err == nil {
			t.Fatalf("CleanKey(%q) expected error", in)
		}
	}
}

func TestJoinURL(t *testing.T) {
	t.Parallel()

	if got := JoinURL("http://localhost:8551/media/", "/a/b.jpg"); got != "http://localhost:8551/media/a/b.jpg" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := JoinURL("https://cdn.example.com", "a.jpg"); got != "https://cdn.example.com/a.jpg" {
		t.Fatalf("unexpected url %s", got)
	}
}

package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("GALLERY_TEST_INT", "12")
	if got := Int("GALLERY_TEST_INT", 3); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
	t.Setenv("GALLERY_TEST_INT", "nope")
	if got := Int("GALLERY_TEST_INT", 3); got != 3 {
		t.Fatalf("Int fallback: want=3 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"yes": true, "off": false, "": true, "maybe": true}
	for raw, want := range cases {
		t.Setenv("GALLERY_TEST_BOOL", raw)
		if got := Bool("GALLERY_TEST_BOOL", true); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("GALLERY_TEST_DUR", "250ms")
	if got := Duration("GALLERY_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("Duration: want=250ms got=%s", got)
	}
	t.Setenv("GALLERY_TEST_DUR", "7")
	if got := Duration("GALLERY_TEST_DUR", time.Second); got != 7*time.Second {
		t.Fatalf("Duration seconds: want=7s got=%s", got)
	}
}

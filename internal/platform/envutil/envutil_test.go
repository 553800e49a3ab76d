package envutil

import "testing"

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "nope")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 7 {
		t.Fatalf("want=7 got=%d", got)
	}
	t.Setenv("ENVUTIL_TEST_INT", " 42 ")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 42 {
		t.Fatalf("want=42 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_BOOL", "on")
	if !Bool("ENVUTIL_TEST_BOOL", false) {
		t.Fatalf("want=true")
	}
	t.Setenv("ENVUTIL_TEST_BOOL", "maybe")
	if Bool("ENVUTIL_TEST_BOOL", false) {
		t.Fatalf("want default false")
	}
}

func TestFloatAndString(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_FLOAT", "0.25")
	if got := Float("ENVUTIL_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("want=0.25 got=%v", got)
	}
	if got := String("ENVUTIL_TEST_MISSING", "dflt"); got != "dflt" {
		t.Fatalf("want=dflt got=%s", got)
	}
}

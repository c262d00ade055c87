package instance

import "testing"

func TestGetID(t *testing.T) {
	t.Setenv("ZYCART_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	if got := GetID("api-0"); got != "api-0" {
		t.Fatalf("expected fallback, got %q", got)
	}

	t.Setenv("DYNO", "web.1")
	if got := GetID("api-0"); got != "web.1" {
		t.Fatalf("expected dyno id, got %q", got)
	}

	t.Setenv("ZYCART_INSTANCE_ID", " api-7 ")
	if got := GetID("api-0"); got != "api-7" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}

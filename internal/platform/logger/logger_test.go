package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]any{
		"password", "hunter2",
		"access_token", "abc",
		"reset_code", "123456",
		"tenant_id", 7,
	})
	if len(out) != 8 {
		t.Fatalf("len=%d want 8", len(out))
	}
	for _, i := range []int{1, 3, 5} {
		if out[i] != "[REDACTED]" {
			t.Fatalf("value for %v not redacted: %v", out[i-1], out[i])
		}
	}
	if out[7] != 7 {
		t.Fatalf("tenant_id should pass through, got %v", out[7])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	out := sanitizeKVs([]any{"user_id", uint(42), "sender_user_id", "42"})
	a, _ := out[1].(string)
	b, _ := out[3].(string)
	if len(a) != len("hash:")+12 {
		t.Fatalf("unexpected hash %q", a)
	}
	if a != b {
		t.Fatalf("same id hashed differently: %q vs %q", a, b)
	}
}

func TestSanitizeKVsRedactsJWTValues(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIiwicm9sZSI6ImFkbWluIn0.sig"
	out := sanitizeKVs([]any{"header", jwt, "dangling"})
	if out[1] != "[REDACTED]" {
		t.Fatalf("jwt-looking value not redacted: %v", out[1])
	}
	if out[2] != "dangling" {
		t.Fatalf("odd trailing key should be kept, got %v", out[2])
	}
}

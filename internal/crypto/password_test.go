package crypto

import (
	"strings"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("longenough1")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "longenough1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if err := CheckPassword(hash, "longenough1"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestRandomTokens(t *testing.T) {
	a, b := NewVerificationToken(), NewVerificationToken()
	if a == "" || a == b {
		t.Fatalf("expected distinct verification tokens, got %q and %q", a, b)
	}

	state, err := NewState()
	if err != nil {
		t.Fatalf("state error: %v", err)
	}
	if len(state) != 43 {
		t.Fatalf("expected 43 char state, got %d", len(state))
	}
}

package auth

import "testing"

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("Password123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Password123" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := VerifyPassword(hash, "Password123"); err != nil {
		t.Fatalf("verify failed for correct password: %v", err)
	}
	if err := VerifyPassword(hash, "WrongPassword"); err == nil {
		t.Fatalf("expected verify to fail for wrong password")
	}
}

func TestGenerateActivationToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		token, err := GenerateActivationToken()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(token) != 32 {
			t.Fatalf("expected 32 chars, got %d", len(token))
		}
		for _, c := range token {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
				t.Fatalf("unexpected character %q in token", c)
			}
		}
		if seen[token] {
			t.Fatalf("duplicate token generated")
		}
		seen[token] = true
	}
}

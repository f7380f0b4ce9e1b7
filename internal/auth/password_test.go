package auth

import "testing"

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	first, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct hashes for the same plaintext, got %q twice", first)
	}
}

func TestCheckPasswordMatchesOwnHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword("secret123", hash) {
		t.Fatal("expected password to verify against its own hash")
	}
	if CheckPassword("secret124", hash) {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not-a-bcrypt-hash",
		"$2a$xx$garbage",
	}
	for _, stored := range cases {
		if CheckPassword("anything", stored) {
			t.Errorf("expected verification failure for stored hash %q", stored)
		}
	}
}

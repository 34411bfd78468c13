package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_ProducesVerifiableHash(t *testing.T) {
	hash, err := HashPassword("27s1")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("expected bcrypt hash prefix, got %q", hash)
	}

	if err := ComparePassword(hash, "27s1"); err != nil {
		t.Errorf("expected hash to verify against original password: %v", err)
	}
}

func TestHashPassword_RejectsEmptyPassword(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestComparePassword_RejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("correct-secret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if err := ComparePassword(hash, "wrong-secret"); err == nil {
		t.Error("expected mismatch error for wrong password")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("same-secret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("same-secret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if first == second {
		t.Error("expected different hashes for same password (random salt)")
	}
}

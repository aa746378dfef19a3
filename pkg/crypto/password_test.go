package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Testing123!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if strings.Contains(string(hash), "Testing123!") {
		t.Fatalf("hash leaks plaintext")
	}
	if err := ComparePassword(hash, "Testing123!"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := ComparePassword(hash, "wrong-password"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	hash, err := HashPassword("Testing123!", 99)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cost, err := bcrypt.Cost(hash)
	if err != nil {
		t.Fatalf("read cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost %d, got %d", bcrypt.DefaultCost, cost)
	}
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	first, err := HashPassword("Testing123!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	second, err := HashPassword("Testing123!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if string(first) == string(second) {
		t.Fatalf("expected distinct hashes for the same password")
	}
}

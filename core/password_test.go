package core

import "testing"

// Low cost keeps the tests fast; the property holds for any cost.
const testHashCost = 4

func TestVerifyPasswordRoundTrip(t *testing.T) {
	salt := NewSalt()
	hash := HashPassword("s3cret", salt, testHashCost)

	if !VerifyPassword("s3cret", salt, testHashCost, hash) {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword("other", salt, testHashCost, hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashPasswordDeterministic(t *testing.T) {
	salt := NewSalt()
	a := HashPassword("s3cret", salt, testHashCost)
	b := HashPassword("s3cret", salt, testHashCost)
	if a != b {
		t.Fatalf("same inputs hashed differently: %q vs %q", a, b)
	}
}

func TestHashPasswordSaltMatters(t *testing.T) {
	s1, s2 := NewSalt(), NewSalt()
	if s1 == s2 {
		t.Fatalf("two salts are identical")
	}
	if HashPassword("s3cret", s1, testHashCost) == HashPassword("s3cret", s2, testHashCost) {
		t.Fatalf("different salts produced the same hash")
	}
}

func TestHashPasswordCostMatters(t *testing.T) {
	salt := NewSalt()
	if HashPassword("s3cret", salt, 4) == HashPassword("s3cret", salt, 5) {
		t.Fatalf("different costs produced the same hash")
	}
}

package password

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	digest, err := hasher.Hash("secret-123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !IsBcrypt(digest) {
		t.Fatalf("expected bcrypt prefix, got %s", digest)
	}

	if ok, err := hasher.Verify("secret-123", digest); err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	if ok, err := hasher.Verify("secret-124", digest); err != nil || ok {
		t.Fatalf("expected mismatch without error, ok=%v err=%v", ok, err)
	}
	if _, err := hasher.Verify("secret-123", "not-a-hash"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}

func TestBcryptCostBounds(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected cost above max to be rejected")
	}
	h, err := NewBcrypt(0)
	if err != nil {
		t.Fatalf("default cost: %v", err)
	}
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	low, _ := NewBcrypt(bcrypt.MinCost)
	digest, _ := low.Hash("password-1")

	high, _ := NewBcrypt(bcrypt.MinCost + 1)
	if up, err := high.NeedsUpgrade(digest); err != nil || !up {
		t.Fatalf("expected upgrade, up=%v err=%v", up, err)
	}
}

func TestMultiVerifiesBothAlgorithms(t *testing.T) {
	argon, _ := NewArgon2(fastConfig())
	legacy, _ := NewBcrypt(bcrypt.MinCost)
	multi := NewMulti(AlgorithmArgon2id, argon, legacy)

	legacyDigest, _ := legacy.Hash("imported-pw")
	if ok, err := multi.Verify("imported-pw", legacyDigest); err != nil || !ok {
		t.Fatalf("expected bcrypt digest to verify, ok=%v err=%v", ok, err)
	}
	if up, _ := multi.NeedsUpgrade(legacyDigest); !up {
		t.Fatal("expected legacy digest to need upgrade")
	}

	fresh, err := multi.Hash("fresh-pw1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !IsArgon2(fresh) {
		t.Fatal("new hashes must use argon2")
	}
	if ok, err := multi.Verify("fresh-pw1", fresh); err != nil || !ok {
		t.Fatalf("expected argon2 digest to verify, ok=%v err=%v", ok, err)
	}
}

func TestMultiBcryptPrimary(t *testing.T) {
	argon, _ := NewArgon2(fastConfig())
	bc, _ := NewBcrypt(bcrypt.MinCost)
	multi := NewMulti(AlgorithmBcrypt, argon, bc)

	fresh, err := multi.Hash("fresh-pw1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !IsBcrypt(fresh) {
		t.Fatal("new hashes must use bcrypt")
	}

	argonDigest, _ := argon.Hash("older-pw1")
	if ok, err := multi.Verify("older-pw1", argonDigest); err != nil || !ok {
		t.Fatalf("expected argon2 digest to verify, ok=%v err=%v", ok, err)
	}
	if up, _ := multi.NeedsUpgrade(argonDigest); !up {
		t.Fatal("expected argon2 digest to need upgrade under bcrypt primary")
	}
	if _, err := multi.Verify("x", "plain-text"); err != ErrMalformedHash {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}

package marketdata

import (
	"testing"

	"github.com/fernet/fernet-go"
)

func testKey(t *testing.T) string {
	t.Helper()

	key := new(fernet.Key)
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	return key.Encode()
}

// TestTokenVault tests provider token encryption at rest.
//
// WHY: the provider token is stored in the settings table; it must round-trip
// through the vault and any tampering with the stored value must be detected.
func TestTokenVault(t *testing.T) {
	t.Run("round-trips a token", func(t *testing.T) {
		vault, err := NewTokenVault(testKey(t))
		if err != nil {
			t.Fatalf("NewTokenVault() returned unexpected error: %v", err)
		}

		sealed, err := vault.Seal("api-token-123")
		if err != nil {
			t.Fatalf("Seal() returned unexpected error: %v", err)
		}
		if sealed == "api-token-123" {
			t.Error("Expected sealed value to differ from plaintext")
		}

		opened, err := vault.Open(sealed)
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		if opened != "api-token-123" {
			t.Errorf("Expected round-tripped token, got %q", opened)
		}
	})

	t.Run("rejects a tampered value", func(t *testing.T) {
		vault, err := NewTokenVault(testKey(t))
		if err != nil {
			t.Fatalf("NewTokenVault() returned unexpected error: %v", err)
		}

		sealed, err := vault.Seal("api-token-123")
		if err != nil {
			t.Fatalf("Seal() returned unexpected error: %v", err)
		}

		tampered := []byte(sealed)
		if tampered[len(tampered)-1] == 'A' {
			tampered[len(tampered)-1] = 'B'
		} else {
			tampered[len(tampered)-1] = 'A'
		}
		if _, err := vault.Open(string(tampered)); err == nil {
			t.Error("Expected tampered value to be rejected")
		}
	})

	t.Run("rejects a value sealed with a different key", func(t *testing.T) {
		vaultA, err := NewTokenVault(testKey(t))
		if err != nil {
			t.Fatalf("NewTokenVault() returned unexpected error: %v", err)
		}
		vaultB, err := NewTokenVault(testKey(t))
		if err != nil {
			t.Fatalf("NewTokenVault() returned unexpected error: %v", err)
		}

		sealed, err := vaultA.Seal("api-token-123")
		if err != nil {
			t.Fatalf("Seal() returned unexpected error: %v", err)
		}
		if _, err := vaultB.Open(sealed); err == nil {
			t.Error("Expected foreign-key value to be rejected")
		}
	})

	t.Run("rejects a malformed key", func(t *testing.T) {
		if _, err := NewTokenVault("not-a-key"); err == nil {
			t.Error("Expected error for malformed key")
		}
	})
}

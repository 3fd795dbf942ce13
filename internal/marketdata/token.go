package marketdata

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// TokenVault encrypts the provider API token before it is stored in the
// system_setting table and decrypts it on the way out. Tokens never hit disk
// in plaintext.
type TokenVault struct {
	key *fernet.Key
}

// NewTokenVault creates a vault from a base64-encoded fernet key.
func NewTokenVault(encodedKey string) (*TokenVault, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fernet key: %w", err)
	}
	return &TokenVault{key: key}, nil
}

// Seal encrypts and signs a plaintext token for storage.
func (v *TokenVault) Seal(token string) (string, error) {
	sealed, err := fernet.EncryptAndSign([]byte(token), v.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return string(sealed), nil
}

// Open verifies and decrypts a stored token. TTL is zero: stored tokens do
// not expire, rotation happens by overwriting the setting.
func (v *TokenVault) Open(sealed string) (string, error) {
	token := fernet.VerifyAndDecrypt([]byte(sealed), 0, []*fernet.Key{v.key})
	if token == nil {
		return "", fmt.Errorf("failed to decrypt token: invalid or tampered value")
	}
	return string(token), nil
}

package config

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// resolveAPIKey returns the provider API key.
// A plain key wins; otherwise an encrypted key is decrypted with the fernet SECRET_KEY.
// No key at all is valid: the public provider tier works without one.
func resolveAPIKey(plain, encrypted, secretKey string) (string, error) {
	if plain != "" {
		return plain, nil
	}
	if encrypted == "" {
		return "", nil
	}
	if secretKey == "" {
		return "", fmt.Errorf("PROVIDER_API_KEY_ENCRYPTED is set but SECRET_KEY is missing")
	}
	return DecryptSecret(encrypted, secretKey)
}

// DecryptSecret decrypts a fernet token with the given base64 key.
func DecryptSecret(token, secretKey string) (string, error) {
	key, err := fernet.DecodeKey(secretKey)
	if err != nil {
		return "", fmt.Errorf("invalid SECRET_KEY: %w", err)
	}
	// ttl 0: stored secrets do not expire
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{key})
	if msg == nil {
		return "", fmt.Errorf("failed to decrypt provider API key")
	}
	return string(msg), nil
}

// EncryptSecret produces a fernet token for value. Used to prepare PROVIDER_API_KEY_ENCRYPTED.
func EncryptSecret(value, secretKey string) (string, error) {
	key, err := fernet.DecodeKey(secretKey)
	if err != nil {
		return "", fmt.Errorf("invalid SECRET_KEY: %w", err)
	}
	tok, err := fernet.EncryptAndSign([]byte(value), key)
	if err != nil {
		return "", fmt.Errorf("encrypt secret: %w", err)
	}
	return string(tok), nil
}

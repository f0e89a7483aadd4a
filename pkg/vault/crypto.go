package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// defaultPassphrase is the fixed application-level passphrase for key
// derivation. Per-write random salts keep derived keys distinct; the
// passphrase itself is not a secret against a local attacker, only against
// casual storage inspection.
const defaultPassphrase = "fieldops-device-trust-v1"

const (
	pbkdf2Iterations = 100000
	keyLength        = 32
	saltLength       = 16
)

// seal encrypts plaintext with AES-256-GCM under a PBKDF2-derived key using a
// freshly generated random salt and nonce.
func seal(passphrase, plaintext string) (envelope, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return envelope{}, fmt.Errorf("generate salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return envelope{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return envelope{}, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, []byte(plaintext), nil)

	return envelope{
		Tier:      TierCrypto,
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		IV:        base64.StdEncoding.EncodeToString(nonce),
		Salt:      base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// open decrypts a TierCrypto envelope. Any decoding or authentication failure
// returns an error and no plaintext.
func open(passphrase string, env envelope) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}

	if len(nonce) != aead.NonceSize() {
		return "", errors.New("invalid nonce length")
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("authenticate ciphertext: %w", err)
	}
	return string(plaintext), nil
}

func newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

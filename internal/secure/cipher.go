// Package secure implements the transport cipher used between the back
// office and station devices: PBKDF2 key derivation plus AES-CTR stream
// encryption of UTF-8 payloads into a hex transport string.
//
// This scheme provides confidentiality only. There is no authentication
// tag, so corruption that still decodes as valid UTF-8 is not detected.
// That is a constraint of the station protocol being spoken here, not an
// oversight; do not add a MAC without revving the protocol on both sides.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

// Cipher errors.
var (
	// ErrMalformedInput is returned when a transport string is not
	// "<nonceHex>:<cipherHex>" or either half fails hex decoding.
	ErrMalformedInput = errors.New("malformed transport string")

	// ErrDecryptionFailed is returned when the decrypted bytes are not
	// valid UTF-8, which is the only corruption this scheme can detect.
	ErrDecryptionFailed = errors.New("decryption failed")
)

const (
	// Derivation parameters. Station firmware derives the same key from
	// the same passphrase, so none of these may change independently.
	kdfSalt       = "salt"
	kdfIterations = 10000
	keyLength     = 32

	nonceLength = aes.BlockSize
)

// DeriveKey derives a fixed-length binary key from a low-entropy
// passphrase using PBKDF2-SHA256. Deterministic: the key is re-derived
// on every call rather than cached.
func DeriveKey(passphrase string, salt []byte, length int) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, kdfIterations, length, sha256.New)
}

// Encrypt encrypts plaintext with a key derived from passphrase and
// returns the transport string "<nonceHex>:<cipherHex>". A fresh random
// nonce is generated per call, so encrypting the same plaintext twice
// yields different output.
func Encrypt(plaintext, passphrase string) (string, error) {
	key := DeriveKey(passphrase, []byte(kdfSalt), keyLength)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, nonce).XORKeyStream(ciphertext, []byte(plaintext))

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It splits the transport string on the first
// ':', hex-decodes both halves, derives the same key and decrypts.
func Decrypt(transport, passphrase string) (string, error) {
	nonceHex, cipherHex, ok := strings.Cut(transport, ":")
	if !ok {
		return "", ErrMalformedInput
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != nonceLength {
		return "", ErrMalformedInput
	}

	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", ErrMalformedInput
	}

	key := DeriveKey(passphrase, []byte(kdfSalt), keyLength)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, nonce).XORKeyStream(plaintext, ciphertext)

	if !utf8.Valid(plaintext) {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

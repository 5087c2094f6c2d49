// Package cryptox wraps the cryptographic primitives used by the photovault
// client: argon2id key derivation with explicit cost parameters, NaCl
// secretbox for authenticated symmetric encryption (ciphertext + detached
// nonce), NaCl sealed boxes for anonymous public-key encryption, and
// XChaCha20-Poly1305 for large encrypted blobs carried with a detached
// decryption header.
//
// Every decryption here is authenticated. Tamper, corruption, or a wrong
// key surfaces as common.ErrDecryptionFailed, never as silently wrong
// bytes.
package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/dmitrijs2005/photovault/internal/common"
)

const (
	// KeySize is the size of all symmetric keys in the hierarchy.
	KeySize = 32

	// SaltSize is the size of the KDF salt.
	SaltSize = 16

	// NonceSize is the secretbox nonce size.
	NonceSize = 24

	// BlobHeaderSize is the size of the decryption header accompanying
	// file and thumbnail payloads (the XChaCha20-Poly1305 nonce).
	BlobHeaderSize = chacha20poly1305.NonceSizeX

	// argon2Threads is fixed; cost tuning happens via ops/mem limits.
	argon2Threads = 4
)

// DeriveKey derives a 32-byte key-encryption key from a passphrase and
// salt using argon2id. opsLimit is the pass count and memLimit the memory
// limit in bytes, mirroring how the server stores per-user cost
// parameters. Deterministic for identical inputs.
func DeriveKey(passphrase, salt []byte, opsLimit, memLimit int) []byte {
	return argon2.IDKey(passphrase, salt, uint32(opsLimit), uint32(memLimit/1024), argon2Threads, KeySize)
}

// GenerateKey returns a fresh random symmetric key.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// GenerateSalt returns a fresh random KDF salt.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// GenerateKeyPair returns a fresh public/secret key pair for sealed-box
// sharing.
func GenerateKeyPair() (publicKey, secretKey []byte, err error) {
	pub, sec, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key pair: %w", err)
	}
	return pub[:], sec[:], nil
}

// SecretboxSeal encrypts plaintext with key, returning the ciphertext and
// the freshly generated nonce separately.
func SecretboxSeal(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	k, err := toKey(key)
	if err != nil {
		return nil, nil, err
	}
	var n [NonceSize]byte
	copy(n[:], common.GenerateRandByteArray(NonceSize))
	return secretbox.Seal(nil, plaintext, &n, k), n[:], nil
}

// SecretboxOpen authenticates and decrypts ciphertext produced by
// SecretboxSeal. Fails with common.ErrDecryptionFailed on tamper or a
// wrong key.
func SecretboxOpen(ciphertext, nonce, key []byte) ([]byte, error) {
	k, err := toKey(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: bad nonce size %d", common.ErrDecryptionFailed, len(nonce))
	}
	var n [NonceSize]byte
	copy(n[:], nonce)
	plaintext, ok := secretbox.Open(nil, ciphertext, &n, k)
	if !ok {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}

// SealedBoxSeal encrypts plaintext anonymously to the recipient's public
// key. Only the holder of the matching secret key can open it.
func SealedBoxSeal(plaintext, publicKey []byte) ([]byte, error) {
	pk, err := toKey(publicKey)
	if err != nil {
		return nil, err
	}
	out, err := box.SealAnonymous(nil, plaintext, pk, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("sealed box seal: %w", err)
	}
	return out, nil
}

// SealedBoxOpen opens an anonymous sealed box with the recipient's key
// pair. Fails with common.ErrDecryptionFailed when the secret key does
// not match; it never returns garbage key material.
func SealedBoxOpen(ciphertext, publicKey, secretKey []byte) ([]byte, error) {
	pk, err := toKey(publicKey)
	if err != nil {
		return nil, err
	}
	sk, err := toKey(secretKey)
	if err != nil {
		return nil, err
	}
	plaintext, ok := box.OpenAnonymous(nil, ciphertext, pk, sk)
	if !ok {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}

// BlobSeal encrypts a large payload (original or thumbnail bytes) with
// XChaCha20-Poly1305, returning the ciphertext and the detached
// decryption header.
func BlobSeal(plaintext, key []byte) (ciphertext, header []byte, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("blob seal: %w", err)
	}
	header = common.GenerateRandByteArray(BlobHeaderSize)
	return aead.Seal(nil, header, plaintext, nil), header, nil
}

// BlobOpen authenticates and decrypts a payload produced by BlobSeal
// using its decryption header. Fails with common.ErrDecryptionFailed on
// tamper, corruption, or a wrong key.
func BlobOpen(ciphertext, header, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	if len(header) != BlobHeaderSize {
		return nil, fmt.Errorf("%w: bad header size %d", common.ErrDecryptionFailed, len(header))
	}
	plaintext, err := aead.Open(nil, header, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}

// ToB64 encodes bytes using the standard base64 alphabet, the wire
// encoding for all key material and nonces.
func ToB64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// FromB64 decodes a standard base64 string.
func FromB64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return b, nil
}

// ToHex encodes bytes as lowercase hex (used for the recovery key shown
// to the user).
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FromHex decodes a hex string.
func FromHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hex decode: %w", err)
	}
	return b, nil
}

func toKey(b []byte) (*[KeySize]byte, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("%w: bad key size %d", common.ErrDecryptionFailed, len(b))
	}
	var k [KeySize]byte
	copy(k[:], b)
	return &k, nil
}

// Package common defines shared constants and sentinel errors used across
// the photovault client core. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Crypto errors. ErrDecryptionFailed covers any authenticated
	// decryption that fails verification: tampered ciphertext, a wrong
	// key, or a corrupted nonce/header. ErrWrongPassphrase is the same
	// condition observed while unwrapping the master key with a
	// passphrase-derived key.
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrWrongPassphrase  = errors.New("wrong passphrase")

	// ErrKeyLocked is returned when key material is requested before the
	// session has been unlocked.
	ErrKeyLocked = errors.New("key material locked")

	// ErrMissingKey is returned when an operation needs a file's
	// unwrapped key but the record carries none, e.g. the owning
	// collection is no longer present locally.
	ErrMissingKey = errors.New("missing key material")

	// Remote resource errors. A referenced collection or file that no
	// longer exists remotely is treated as an implicit tombstone on the
	// next sync.
	ErrNotFound = errors.New("not found")

	// ErrStorageFull signals a cache-write failure (e.g. quota). It is
	// swallowed for preview caching and fatal nowhere.
	ErrStorageFull = errors.New("storage full")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)

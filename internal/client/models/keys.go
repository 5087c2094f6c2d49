package models

// KeyAttributes is the user's persisted key material as stored remotely.
// The master key itself never appears here in plaintext: only its
// passphrase-wrapped and recovery-key-wrapped ciphertexts are kept, plus
// the wrapped asymmetric key pair used for sharing.
type KeyAttributes struct {
	KekSalt            string `json:"kekSalt"`
	OpsLimit           int    `json:"opsLimit"`
	MemLimit           int    `json:"memLimit"`
	EncryptedKey       string `json:"encryptedKey"`
	KeyDecryptionNonce string `json:"keyDecryptionNonce"`

	PublicKey                string `json:"publicKey"`
	EncryptedSecretKey       string `json:"encryptedSecretKey"`
	SecretKeyDecryptionNonce string `json:"secretKeyDecryptionNonce"`

	MasterKeyEncryptedWithRecoveryKey string `json:"masterKeyEncryptedWithRecoveryKey,omitempty"`
	MasterKeyDecryptionNonce          string `json:"masterKeyDecryptionNonce,omitempty"`
	RecoveryKeyEncryptedWithMasterKey string `json:"recoveryKeyEncryptedWithMasterKey,omitempty"`
	RecoveryKeyDecryptionNonce        string `json:"recoveryKeyDecryptionNonce,omitempty"`
}

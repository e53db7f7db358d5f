// Package domain defines the durable record format of the encrypted store.
package domain

import (
	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// StoredRecord is one encrypted value. Key is bound to the ciphertext as associated data,
// so a record copied under a different key fails to decrypt.
type StoredRecord struct {
	Key        string
	IV         []byte
	Ciphertext []byte
}

// Encode returns the durable representation iv || ciphertext.
func (r *StoredRecord) Encode() []byte {
	out := make([]byte, 0, len(r.IV)+len(r.Ciphertext))
	out = append(out, r.IV...)
	return append(out, r.Ciphertext...)
}

// DecodeRecord splits a durable value into nonce and ciphertext.
func DecodeRecord(key string, data []byte) (*StoredRecord, error) {
	if len(data) < cryptoDomain.NonceSize {
		return nil, ErrMalformedRecord
	}

	iv := make([]byte, cryptoDomain.NonceSize)
	copy(iv, data[:cryptoDomain.NonceSize])
	ciphertext := make([]byte, len(data)-cryptoDomain.NonceSize)
	copy(ciphertext, data[cryptoDomain.NonceSize:])

	return &StoredRecord{Key: key, IV: iv, Ciphertext: ciphertext}, nil
}

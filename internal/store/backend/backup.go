package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"filippo.io/age"
)

const backupVersion = 1

// archive is the JSON document inside the age envelope. Record values stay encrypted
// with the installation key; age adds a second layer for transport.
type archive struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Backend   string            `json:"backend"`
	Records   map[string][]byte `json:"records"`
}

// ParseRecipients parses X25519 recipients ("age1...").
func ParseRecipients(values []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(values))
	for _, value := range values {
		recipient, err := age.ParseX25519Recipient(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", value, err)
		}
		recipients = append(recipients, recipient)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	return recipients, nil
}

// ParseIdentities reads age identities in the standard key-file format.
func ParseIdentities(r io.Reader) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("invalid identity file: %w", err)
	}
	return identities, nil
}

// WriteBackup writes every durable record of b to w as an age-encrypted archive and
// returns the number of records written.
func WriteBackup(
	ctx context.Context,
	b Backend,
	w io.Writer,
	recipients []age.Recipient,
	now time.Time,
) (int, error) {
	doc := archive{
		Version:   backupVersion,
		CreatedAt: now.UTC(),
		Backend:   b.Name(),
		Records:   make(map[string][]byte),
	}

	if err := b.ForEach(ctx, func(key string, value []byte) error {
		doc.Records[key] = value
		return nil
	}); err != nil {
		return 0, fmt.Errorf("read records: %w", err)
	}

	encrypted, err := age.Encrypt(w, recipients...)
	if err != nil {
		return 0, fmt.Errorf("open age writer: %w", err)
	}
	if err := json.NewEncoder(encrypted).Encode(doc); err != nil {
		return 0, fmt.Errorf("encode archive: %w", err)
	}
	if err := encrypted.Close(); err != nil {
		return 0, fmt.Errorf("finish age stream: %w", err)
	}

	return len(doc.Records), nil
}

// RestoreBackup decrypts an archive from r and writes its records into b with PutMany.
func RestoreBackup(ctx context.Context, b Backend, r io.Reader, identities []age.Identity) (int, error) {
	decrypted, err := age.Decrypt(r, identities...)
	if err != nil {
		return 0, fmt.Errorf("decrypt archive: %w", err)
	}

	var doc archive
	if err := json.NewDecoder(decrypted).Decode(&doc); err != nil {
		return 0, fmt.Errorf("decode archive: %w", err)
	}
	if doc.Version != backupVersion {
		return 0, fmt.Errorf("unsupported archive version %d", doc.Version)
	}

	if len(doc.Records) == 0 {
		return 0, nil
	}
	if err := b.PutMany(ctx, doc.Records); err != nil {
		return 0, fmt.Errorf("write records: %w", err)
	}
	return len(doc.Records), nil
}

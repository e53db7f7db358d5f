package service

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

// recoveryCodeBytes yields a 16 character base32 code.
const recoveryCodeBytes = 10

var recoveryEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

type recoveryCodeService struct {
	hasher *pwdhash.PasswordHasher
}

// NewRecoveryCodeService creates a RecoveryCodeService hashing codes with Argon2id.
func NewRecoveryCodeService() (RecoveryCodeService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create recovery code hasher")
	}
	return &recoveryCodeService{hasher: hasher}, nil
}

// Generate formats codes as four dash-separated groups of four lowercase characters.
func (r *recoveryCodeService) Generate(count int) ([]string, []string, error) {
	if count <= 0 {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "recovery code count must be positive")
	}

	codes := make([]string, 0, count)
	hashes := make([]string, 0, count)
	buf := make([]byte, recoveryCodeBytes)
	for range count {
		if _, err := rand.Read(buf); err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to generate recovery code")
		}
		raw := strings.ToLower(recoveryEncoding.EncodeToString(buf))

		hash, err := r.hasher.Hash([]byte(raw))
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to hash recovery code")
		}

		codes = append(codes, raw[0:4]+"-"+raw[4:8]+"-"+raw[8:12]+"-"+raw[12:16])
		hashes = append(hashes, hash)
	}
	return codes, hashes, nil
}

// Match ignores case, dashes and spaces in code.
func (r *recoveryCodeService) Match(code string, hashes []string) (int, bool) {
	normalized := normalizeRecoveryCode(code)
	if len(normalized) != 16 {
		return -1, false
	}
	for i, hash := range hashes {
		ok, err := r.hasher.Verify([]byte(normalized), hash)
		if err == nil && ok {
			return i, true
		}
	}
	return -1, false
}

func normalizeRecoveryCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == ' ':
			return -1
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return r
	}, strings.TrimSpace(code))
}

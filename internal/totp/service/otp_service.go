package service

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	apperrors "github.com/allisson/trustcore/internal/errors"
	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
)

const (
	period     = 30
	secretSize = 20
	skew       = 1
)

type otpService struct{}

// NewOTPService creates an OTPService for six-digit SHA1 codes with a 30 second period.
func NewOTPService() OTPService {
	return &otpService{}
}

func (o *otpService) Generate(issuer, accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		Period:      period,
		SecretSize:  secretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate totp secret")
	}
	return key.Secret(), key.URL(), nil
}

func (o *otpService) Validate(code, secret string, at time.Time) bool {
	if !totpDomain.IsWellFormedCode(code) {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at.UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

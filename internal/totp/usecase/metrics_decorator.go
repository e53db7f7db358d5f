package usecase

import (
	"context"
	"time"

	"github.com/allisson/trustcore/internal/metrics"
	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
)

// secretLifecycleWithMetrics decorates SecretLifecycle with metrics instrumentation.
// A rejected code counts as an error so dashboards show failed proofs.
type secretLifecycleWithMetrics struct {
	next    SecretLifecycle
	metrics metrics.BusinessMetrics
}

// NewSecretLifecycleWithMetrics wraps a SecretLifecycle with metrics recording.
func NewSecretLifecycleWithMetrics(lifecycle SecretLifecycle, m metrics.BusinessMetrics) SecretLifecycle {
	return &secretLifecycleWithMetrics{next: lifecycle, metrics: m}
}

func (s *secretLifecycleWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	s.metrics.RecordOperation(ctx, "totp", operation, status)
	s.metrics.RecordDuration(ctx, "totp", operation, time.Since(start), status)
}

func proofStatus(ok bool, err error) string {
	if err != nil || !ok {
		return metrics.StatusError
	}
	return metrics.StatusSuccess
}

func (s *secretLifecycleWithMetrics) StartSetup(
	ctx context.Context,
	principalID, accountLabel string,
) (*totpDomain.SetupOutput, error) {
	start := time.Now()
	output, err := s.next.StartSetup(ctx, principalID, accountLabel)
	s.record(ctx, "setup", start, metrics.Status(err))
	return output, err
}

func (s *secretLifecycleWithMetrics) VerifyCode(ctx context.Context, principalID, code string) (bool, error) {
	start := time.Now()
	ok, err := s.next.VerifyCode(ctx, principalID, code)
	s.record(ctx, "verify", start, proofStatus(ok, err))
	return ok, err
}

func (s *secretLifecycleWithMetrics) ConfirmEnable(ctx context.Context, principalID, code string) (bool, error) {
	start := time.Now()
	ok, err := s.next.ConfirmEnable(ctx, principalID, code)
	s.record(ctx, "enable", start, proofStatus(ok, err))
	return ok, err
}

func (s *secretLifecycleWithMetrics) Disable(ctx context.Context, principalID, code string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Disable(ctx, principalID, code)
	s.record(ctx, "disable", start, proofStatus(ok, err))
	return ok, err
}

func (s *secretLifecycleWithMetrics) IsEnabled(ctx context.Context, principalID string) (bool, error) {
	start := time.Now()
	enabled, err := s.next.IsEnabled(ctx, principalID)
	s.record(ctx, "status", start, metrics.Status(err))
	return enabled, err
}

func (s *secretLifecycleWithMetrics) GenerateRecoveryCodes(
	ctx context.Context,
	principalID, code string,
) ([]string, error) {
	start := time.Now()
	codes, err := s.next.GenerateRecoveryCodes(ctx, principalID, code)
	s.record(ctx, "recovery_codes", start, metrics.Status(err))
	return codes, err
}

func (s *secretLifecycleWithMetrics) DisableWithRecoveryCode(
	ctx context.Context,
	principalID, recoveryCode string,
) (bool, error) {
	start := time.Now()
	ok, err := s.next.DisableWithRecoveryCode(ctx, principalID, recoveryCode)
	s.record(ctx, "recovery_disable", start, proofStatus(ok, err))
	return ok, err
}

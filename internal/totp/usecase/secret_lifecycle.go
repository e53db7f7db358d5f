package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	auditDomain "github.com/allisson/trustcore/internal/audit/domain"
	auditUseCase "github.com/allisson/trustcore/internal/audit/usecase"
	"github.com/allisson/trustcore/internal/lockutil"
	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
	totpService "github.com/allisson/trustcore/internal/totp/service"
)

// Config holds the lifecycle settings.
type Config struct {
	Issuer            string
	RecoveryCodeCount int
}

type secretLifecycle struct {
	repo     SecretRepository
	otp      totpService.OTPService
	recovery totpService.RecoveryCodeService
	audit    auditUseCase.Recorder
	clock    clockwork.Clock
	locks    *lockutil.KeyedMutex
	cfg      Config
	logger   *slog.Logger
}

// NewSecretLifecycle creates a SecretLifecycle.
func NewSecretLifecycle(
	repo SecretRepository,
	otp totpService.OTPService,
	recovery totpService.RecoveryCodeService,
	audit auditUseCase.Recorder,
	clock clockwork.Clock,
	cfg Config,
	logger *slog.Logger,
) SecretLifecycle {
	return &secretLifecycle{
		repo:     repo,
		otp:      otp,
		recovery: recovery,
		audit:    audit,
		clock:    clock,
		locks:    lockutil.NewKeyedMutex(),
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *secretLifecycle) StartSetup(
	ctx context.Context,
	principalID, accountLabel string,
) (*totpDomain.SetupOutput, error) {
	if principalID == "" {
		return nil, totpDomain.ErrPrincipalIDRequired
	}
	if accountLabel == "" {
		accountLabel = principalID
	}

	unlock := s.locks.Lock(principalID)
	defer unlock()

	existing, err := s.find(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if existing.IsEnabled() {
		s.record(ctx, auditDomain.KindTOTPSetup, principalID, false, "already_enabled")
		return nil, totpDomain.ErrAlreadyEnabled
	}

	secret, uri, err := s.otp.Generate(s.cfg.Issuer, accountLabel)
	if err != nil {
		return nil, err
	}

	err = s.repo.Save(ctx, &totpDomain.Secret{
		PrincipalID:  principalID,
		SecretBase32: secret,
		State:        totpDomain.StateProvisional,
		AccountLabel: accountLabel,
		CreatedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, auditDomain.KindTOTPSetup, principalID, true, "")
	return &totpDomain.SetupOutput{Secret: secret, ProvisioningURI: uri}, nil
}

func (s *secretLifecycle) VerifyCode(ctx context.Context, principalID, code string) (bool, error) {
	if principalID == "" {
		return false, totpDomain.ErrPrincipalIDRequired
	}
	if !totpDomain.IsWellFormedCode(code) {
		s.record(ctx, auditDomain.KindTOTPVerify, principalID, false, "malformed_code")
		return false, nil
	}

	unlock := s.locks.Lock(principalID)
	defer unlock()

	secret, err := s.find(ctx, principalID)
	if err != nil {
		return false, err
	}
	if secret == nil {
		s.record(ctx, auditDomain.KindTOTPVerify, principalID, false, "no_secret")
		return false, nil
	}

	ok := s.otp.Validate(code, secret.SecretBase32, s.clock.Now())
	s.record(ctx, auditDomain.KindTOTPVerify, principalID, ok, reasonFor(ok))
	return ok, nil
}

func (s *secretLifecycle) ConfirmEnable(ctx context.Context, principalID, code string) (bool, error) {
	if principalID == "" {
		return false, totpDomain.ErrPrincipalIDRequired
	}
	if !totpDomain.IsWellFormedCode(code) {
		s.record(ctx, auditDomain.KindTOTPEnable, principalID, false, "malformed_code")
		return false, nil
	}

	unlock := s.locks.Lock(principalID)
	defer unlock()

	secret, err := s.find(ctx, principalID)
	if err != nil {
		return false, err
	}
	if secret == nil {
		s.record(ctx, auditDomain.KindTOTPEnable, principalID, false, "no_secret")
		return false, nil
	}

	now := s.clock.Now()
	if !s.otp.Validate(code, secret.SecretBase32, now) {
		s.record(ctx, auditDomain.KindTOTPEnable, principalID, false, "invalid_code")
		return false, nil
	}
	if secret.IsEnabled() {
		s.record(ctx, auditDomain.KindTOTPEnable, principalID, true, "already_enabled")
		return true, nil
	}

	previous := *secret
	enabledAt := now.UTC()
	secret.State = totpDomain.StateEnabled
	secret.EnabledAt = &enabledAt
	if err := s.saveAndFlush(ctx, secret, &previous); err != nil {
		s.record(ctx, auditDomain.KindTOTPEnable, principalID, false, "persistence_failure")
		return false, err
	}

	s.record(ctx, auditDomain.KindTOTPEnable, principalID, true, "")
	return true, nil
}

func (s *secretLifecycle) Disable(ctx context.Context, principalID, code string) (bool, error) {
	if principalID == "" {
		return false, totpDomain.ErrPrincipalIDRequired
	}
	if !totpDomain.IsWellFormedCode(code) {
		s.record(ctx, auditDomain.KindTOTPDisable, principalID, false, "malformed_code")
		return false, nil
	}

	unlock := s.locks.Lock(principalID)
	defer unlock()

	secret, err := s.find(ctx, principalID)
	if err != nil {
		return false, err
	}
	if !secret.IsEnabled() {
		s.record(ctx, auditDomain.KindTOTPDisable, principalID, false, "not_enabled")
		return false, nil
	}
	if !s.otp.Validate(code, secret.SecretBase32, s.clock.Now()) {
		s.record(ctx, auditDomain.KindTOTPDisable, principalID, false, "invalid_code")
		return false, nil
	}

	if err := s.deleteAndFlush(ctx, secret); err != nil {
		s.record(ctx, auditDomain.KindTOTPDisable, principalID, false, "persistence_failure")
		return false, err
	}

	s.record(ctx, auditDomain.KindTOTPDisable, principalID, true, "")
	return true, nil
}

func (s *secretLifecycle) IsEnabled(ctx context.Context, principalID string) (bool, error) {
	if principalID == "" {
		return false, totpDomain.ErrPrincipalIDRequired
	}

	unlock := s.locks.Lock(principalID)
	defer unlock()

	secret, err := s.find(ctx, principalID)
	if err != nil {
		return false, err
	}
	return secret.IsEnabled(), nil
}

func (s *secretLifecycle) GenerateRecoveryCodes(ctx context.Context, principalID, code string) ([]string, error) {
	if principalID == "" {
		return nil, totpDomain.ErrPrincipalIDRequired
	}

	unlock := s.locks.Lock(principalID)
	defer unlock()

	secret, err := s.find(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if !secret.IsEnabled() {
		s.record(ctx, auditDomain.KindTOTPRecoveryCodes, principalID, false, "not_enabled")
		return nil, totpDomain.ErrNotEnabled
	}
	if !s.otp.Validate(code, secret.SecretBase32, s.clock.Now()) {
		s.record(ctx, auditDomain.KindTOTPRecoveryCodes, principalID, false, "invalid_code")
		return nil, totpDomain.ErrInvalidCode
	}

	codes, hashes, err := s.recovery.Generate(s.cfg.RecoveryCodeCount)
	if err != nil {
		return nil, err
	}
	previous := *secret
	secret.RecoveryCodeHashes = hashes
	if err := s.saveAndFlush(ctx, secret, &previous); err != nil {
		s.record(ctx, auditDomain.KindTOTPRecoveryCodes, principalID, false, "persistence_failure")
		return nil, err
	}

	s.record(ctx, auditDomain.KindTOTPRecoveryCodes, principalID, true, "")
	return codes, nil
}

// DisableWithRecoveryCode consumes the matching code by removing the whole secret.
func (s *secretLifecycle) DisableWithRecoveryCode(
	ctx context.Context,
	principalID, recoveryCode string,
) (bool, error) {
	if principalID == "" {
		return false, totpDomain.ErrPrincipalIDRequired
	}

	unlock := s.locks.Lock(principalID)
	defer unlock()

	secret, err := s.find(ctx, principalID)
	if err != nil {
		return false, err
	}
	if !secret.IsEnabled() {
		s.record(ctx, auditDomain.KindTOTPRecoveryDisable, principalID, false, "not_enabled")
		return false, nil
	}
	if _, ok := s.recovery.Match(recoveryCode, secret.RecoveryCodeHashes); !ok {
		s.record(ctx, auditDomain.KindTOTPRecoveryDisable, principalID, false, "invalid_recovery_code")
		return false, nil
	}

	if err := s.deleteAndFlush(ctx, secret); err != nil {
		s.record(ctx, auditDomain.KindTOTPRecoveryDisable, principalID, false, "persistence_failure")
		return false, err
	}

	s.record(ctx, auditDomain.KindTOTPRecoveryDisable, principalID, true, "")
	return true, nil
}

// find returns nil without error when the principal has no secret.
func (s *secretLifecycle) find(ctx context.Context, principalID string) (*totpDomain.Secret, error) {
	secret, err := s.repo.Get(ctx, principalID)
	if errors.Is(err, totpDomain.ErrSecretNotFound) {
		return nil, nil
	}
	return secret, err
}

// saveAndFlush persists secret. A failed flush leaves the change in the store buffer, where
// reads would see it, so previous is staged again before the error is returned.
func (s *secretLifecycle) saveAndFlush(ctx context.Context, secret, previous *totpDomain.Secret) error {
	if err := s.repo.Save(ctx, secret); err != nil {
		return err
	}
	if err := s.repo.Flush(ctx); err != nil {
		return s.restore(ctx, previous, err)
	}
	return nil
}

// deleteAndFlush removes previous and restores it when the removal cannot be made durable.
func (s *secretLifecycle) deleteAndFlush(ctx context.Context, previous *totpDomain.Secret) error {
	if err := s.repo.Delete(ctx, previous.PrincipalID); err != nil {
		return err
	}
	if err := s.repo.Flush(ctx); err != nil {
		return s.restore(ctx, previous, err)
	}
	return nil
}

func (s *secretLifecycle) restore(ctx context.Context, previous *totpDomain.Secret, cause error) error {
	if err := s.repo.Save(context.WithoutCancel(ctx), previous); err != nil {
		s.logger.Error("failed to restore totp secret after flush failure",
			slog.String("principal_id", previous.PrincipalID),
			slog.Any("error", err))
		return errors.Join(cause, err)
	}
	return cause
}

// record emits an audit event. Audit failures are logged and never fail the operation.
func (s *secretLifecycle) record(ctx context.Context, kind, principalID string, ok bool, reason string) {
	event := &auditDomain.Event{
		Kind:        kind,
		Category:    auditDomain.CategoryTOTP,
		PrincipalID: principalID,
		Outcome:     auditDomain.OutcomeOf(ok),
		Message:     messages[kind],
		CreatedAt:   s.clock.Now().UTC(),
	}
	if reason != "" {
		event.Metadata = map[string]any{"reason": reason}
	}

	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record totp audit event",
			slog.String("kind", kind),
			slog.String("principal_id", principalID),
			slog.Any("error", err))
	}
}

func reasonFor(ok bool) string {
	if ok {
		return ""
	}
	return "invalid_code"
}

var messages = map[string]string{
	auditDomain.KindTOTPSetup:           "second factor setup started",
	auditDomain.KindTOTPVerify:          "second factor code verification",
	auditDomain.KindTOTPEnable:          "second factor enable",
	auditDomain.KindTOTPDisable:         "second factor disable",
	auditDomain.KindTOTPRecoveryCodes:   "recovery codes generated",
	auditDomain.KindTOTPRecoveryDisable: "second factor disabled with recovery code",
}

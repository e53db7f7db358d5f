package app

import (
	"fmt"

	totpHTTP "github.com/allisson/trustcore/internal/totp/http"
	totpRepository "github.com/allisson/trustcore/internal/totp/repository"
	totpService "github.com/allisson/trustcore/internal/totp/service"
	totpUseCase "github.com/allisson/trustcore/internal/totp/usecase"
)

// SecretRepository returns the TOTP secret repository. Secrets always live in the
// encrypted store.
func (c *Container) SecretRepository() (totpUseCase.SecretRepository, error) {
	var err error
	c.secretRepositoryInit.Do(func() {
		store, storeErr := c.EncryptedStore()
		if storeErr != nil {
			err = fmt.Errorf("failed to get encrypted store for secret repository: %w", storeErr)
			c.setInitError("secretRepository", err)
			return
		}
		c.secretRepository = totpRepository.NewStoreSecretRepository(store)
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("secretRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.secretRepository, nil
}

// OTPService returns the TOTP generator and validator.
func (c *Container) OTPService() totpService.OTPService {
	c.otpServiceInit.Do(func() {
		c.otpService = totpService.NewOTPService()
	})
	return c.otpService
}

// RecoveryCodeService returns the recovery code generator and hasher.
func (c *Container) RecoveryCodeService() (totpService.RecoveryCodeService, error) {
	var err error
	c.recoveryCodeServiceInit.Do(func() {
		c.recoveryCodeService, err = totpService.NewRecoveryCodeService()
		if err != nil {
			c.setInitError("recoveryCodeService", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("recoveryCodeService"); storedErr != nil {
		return nil, storedErr
	}
	return c.recoveryCodeService, nil
}

// SecretLifecycle returns the TOTP lifecycle use case.
func (c *Container) SecretLifecycle() (totpUseCase.SecretLifecycle, error) {
	var err error
	c.secretLifecycleInit.Do(func() {
		c.secretLifecycle, err = c.initSecretLifecycle()
		if err != nil {
			c.setInitError("secretLifecycle", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("secretLifecycle"); storedErr != nil {
		return nil, storedErr
	}
	return c.secretLifecycle, nil
}

// TOTPHandler returns the /v1/totp handler.
func (c *Container) TOTPHandler() (*totpHTTP.TOTPHandler, error) {
	lifecycle, err := c.SecretLifecycle()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret lifecycle for totp handler: %w", err)
	}
	return totpHTTP.NewTOTPHandler(lifecycle, c.Logger()), nil
}

func (c *Container) initSecretLifecycle() (totpUseCase.SecretLifecycle, error) {
	repo, err := c.SecretRepository()
	if err != nil {
		return nil, err
	}

	recovery, err := c.RecoveryCodeService()
	if err != nil {
		return nil, fmt.Errorf("failed to get recovery code service for secret lifecycle: %w", err)
	}

	audit, err := c.AuditRecorder()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit recorder for secret lifecycle: %w", err)
	}

	baseUseCase := totpUseCase.NewSecretLifecycle(
		repo,
		c.OTPService(),
		recovery,
		audit,
		c.Clock(),
		totpUseCase.Config{
			Issuer:            c.config.TOTPIssuer,
			RecoveryCodeCount: c.config.TOTPRecoveryCodes,
		},
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for secret lifecycle: %w", err)
		}
		return totpUseCase.NewSecretLifecycleWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

package app

import (
	"fmt"

	auditHTTP "github.com/allisson/trustcore/internal/audit/http"
	auditRepository "github.com/allisson/trustcore/internal/audit/repository"
	auditUseCase "github.com/allisson/trustcore/internal/audit/usecase"
)

// AuditLogRepository returns the audit log repository for the configured driver.
func (c *Container) AuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepositoryInit.Do(func() {
		c.auditLogRepository, err = c.initAuditLogRepository()
		if err != nil {
			c.setInitError("auditLogRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("auditLogRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditLogRepository, nil
}

// AuditLogUseCase returns the repository-backed audit use case. It requires a database.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.setInitError("auditLogUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("auditLogUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// AuditRecorder returns the sink for audit events: the audit_logs table in database
// mode, the structured log otherwise.
func (c *Container) AuditRecorder() (auditUseCase.Recorder, error) {
	var err error
	c.auditRecorderInit.Do(func() {
		c.auditRecorder, err = c.initAuditRecorder()
		if err != nil {
			c.setInitError("auditRecorder", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("auditRecorder"); storedErr != nil {
		return nil, storedErr
	}
	return c.auditRecorder, nil
}

// AuditLogHandler returns the audit listing handler, or nil in store mode.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	if !c.config.HasDatabase() {
		return nil, nil
	}

	useCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for audit log handler: %w", err)
	}
	return auditHTTP.NewAuditLogHandler(useCase, c.Logger()), nil
}

func (c *Container) initAuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLAuditLogRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initAuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	repo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	baseUseCase := auditUseCase.NewAuditLogUseCase(repo, c.Clock())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for audit log use case: %w", err)
		}
		return auditUseCase.NewAuditLogUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initAuditRecorder() (auditUseCase.Recorder, error) {
	if !c.config.HasDatabase() {
		return auditUseCase.NewLogRecorder(c.Logger(), c.Clock()), nil
	}
	return c.AuditLogUseCase()
}

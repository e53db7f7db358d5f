package app

import (
	"fmt"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
	permissionHTTP "github.com/allisson/trustcore/internal/permission/http"
	permissionRepository "github.com/allisson/trustcore/internal/permission/repository"
	permissionService "github.com/allisson/trustcore/internal/permission/service"
	permissionUseCase "github.com/allisson/trustcore/internal/permission/usecase"
)

// PermissionRequestRepository returns the SQL repository in database mode and the
// encrypted-store repository otherwise.
func (c *Container) PermissionRequestRepository() (permissionUseCase.PermissionRequestRepository, error) {
	var err error
	c.permissionRequestRepositoryInit.Do(func() {
		c.permissionRequestRepository, err = c.initPermissionRequestRepository()
		if err != nil {
			c.setInitError("permissionRequestRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("permissionRequestRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.permissionRequestRepository, nil
}

// ReviewerAuthorizer returns the reviewer allow-list.
func (c *Container) ReviewerAuthorizer() permissionService.ReviewerAuthorizer {
	c.reviewerAuthorizerInit.Do(func() {
		c.reviewerAuthorizer = permissionService.NewStaticReviewerAuthorizer(c.config.ReviewerIDs())
	})
	return c.reviewerAuthorizer
}

// CapabilityResolver returns the resolver for standing rights built from the policy
// document.
func (c *Container) CapabilityResolver() (permissionService.CapabilityResolver, error) {
	var err error
	c.capabilityResolverInit.Do(func() {
		var doc permissionDomain.PolicyDocument
		doc, err = permissionDomain.ParsePolicyDocument([]byte(c.config.PermissionPolicies))
		if err != nil {
			err = fmt.Errorf("failed to parse permission policies: %w", err)
			c.setInitError("capabilityResolver", err)
			return
		}
		c.capabilityResolver = permissionService.NewPolicyCapabilityResolver(doc)
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("capabilityResolver"); storedErr != nil {
		return nil, storedErr
	}
	return c.capabilityResolver, nil
}

// Workflow returns the authorization workflow use case.
func (c *Container) Workflow() (permissionUseCase.Workflow, error) {
	var err error
	c.workflowInit.Do(func() {
		c.workflow, err = c.initWorkflow()
		if err != nil {
			c.setInitError("workflow", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("workflow"); storedErr != nil {
		return nil, storedErr
	}
	return c.workflow, nil
}

// PermissionRequestHandler returns the /v1/permission-requests handler.
func (c *Container) PermissionRequestHandler() (*permissionHTTP.PermissionRequestHandler, error) {
	workflow, err := c.Workflow()
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow for permission handler: %w", err)
	}

	capabilities, err := c.CapabilityResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get capability resolver for permission handler: %w", err)
	}

	return permissionHTTP.NewPermissionRequestHandler(workflow, capabilities, c.Logger()), nil
}

func (c *Container) initPermissionRequestRepository() (permissionUseCase.PermissionRequestRepository, error) {
	if !c.config.HasDatabase() {
		store, err := c.EncryptedStore()
		if err != nil {
			return nil, fmt.Errorf("failed to get encrypted store for permission repository: %w", err)
		}
		return permissionRepository.NewStorePermissionRequestRepository(store), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for permission repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return permissionRepository.NewPostgreSQLPermissionRequestRepository(db), nil
	case "mysql":
		return permissionRepository.NewMySQLPermissionRequestRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initWorkflow() (permissionUseCase.Workflow, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for workflow: %w", err)
	}

	repo, err := c.PermissionRequestRepository()
	if err != nil {
		return nil, err
	}

	audit, err := c.AuditRecorder()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit recorder for workflow: %w", err)
	}

	baseUseCase := permissionUseCase.NewWorkflow(
		txManager,
		repo,
		c.ReviewerAuthorizer(),
		audit,
		c.Clock(),
		c.config.PermissionGrantTTL,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for workflow: %w", err)
		}
		return permissionUseCase.NewWorkflowWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

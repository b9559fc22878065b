package container

import (
	"github.com/lumacast/showrunner/cmd/showrunner/repository"
	"github.com/lumacast/showrunner/cmd/showrunner/service"
	"github.com/lumacast/showrunner/common/bootstrap"
	"github.com/lumacast/showrunner/common/graphics"
	"github.com/lumacast/showrunner/common/ratelimit"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components *bootstrap.Components

	// Repositories
	RundownRepo   *repository.RundownRepository
	ExecutionRepo *repository.ExecutionStateRepository

	// Services
	RundownService   *service.RundownService
	ExecutionService *service.ExecutionService
	CatalogService   *service.CatalogService
	Reconciler       *service.ReconcilerService
	Composer         *service.ComposerService
	GraphicsBus      *graphics.Bus
	RateLimiter      *ratelimit.Limiter
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	rundownRepo := repository.NewRundownRepository(components.DB)
	executionRepo := repository.NewExecutionStateRepository(components.DB)

	switcherCfg := components.Config.Switcher

	c := &Container{
		Components:    components,
		RundownRepo:   rundownRepo,
		ExecutionRepo: executionRepo,

		RundownService:   service.NewRundownService(rundownRepo, components.Logger),
		ExecutionService: service.NewExecutionService(executionRepo, components.Queue, components.Logger),
		CatalogService:   service.NewCatalogService(components.Switcher, switcherCfg, components.Cache, components.Config.Cache.DefaultTTL, components.Logger),
		Reconciler:       service.NewReconcilerService(components.Switcher, switcherCfg, components.Logger),
		Composer:         service.NewComposerService(components.Switcher, switcherCfg, components.Logger),
		GraphicsBus:      graphics.NewBus(components.Redis, components.Logger),
		RateLimiter:      ratelimit.NewLimiter(components.Redis.GetUnderlying(), components.Logger),
	}

	return c, nil
}

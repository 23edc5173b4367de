package bundle

import (
	"github.com/smallbiznis/leadhub/internal/bundle/repository"
	"github.com/smallbiznis/leadhub/internal/bundle/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bundle.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

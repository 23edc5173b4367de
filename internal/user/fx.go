package user

import (
	"context"
	"errors"

	"github.com/smallbiznis/leadhub/internal/config"
	"github.com/smallbiznis/leadhub/internal/user/domain"
	"github.com/smallbiznis/leadhub/internal/user/repository"
	"github.com/smallbiznis/leadhub/internal/user/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(bootstrapAdmin),
)

func bootstrapAdmin(lc fx.Lifecycle, cfg config.Config, svc domain.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := svc.EnsureAdmin(ctx, domain.BootstrapAdminRequest{
				Name:     cfg.Bootstrap.AdminName,
				Email:    cfg.Bootstrap.AdminEmail,
				Password: cfg.Bootstrap.AdminPassword,
			})
			if errors.Is(err, domain.ErrBootstrapIncomplete) {
				log.Info("bootstrap admin not configured")
				return nil
			}
			return err
		},
	})
}

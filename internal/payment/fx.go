package payment

import (
	"github.com/smallbiznis/leadhub/internal/payment/gateway"
	"github.com/smallbiznis/leadhub/internal/payment/repository"
	paymentservice "github.com/smallbiznis/leadhub/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(gateway.Provide),
	fx.Provide(paymentservice.NewService),
)

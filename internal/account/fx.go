package account

import (
	"github.com/smallbiznis/payrelay/internal/account/repository"
	accountservice "github.com/smallbiznis/payrelay/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(accountservice.New),
)

package deletelog

import (
	"github.com/smallbiznis/invoicedesk/internal/deletelog/repository"
	"github.com/smallbiznis/invoicedesk/internal/deletelog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("deletelog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

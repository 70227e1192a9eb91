package invoice

import (
	"github.com/smallbiznis/invoicedesk/internal/invoice/numbering"
	"github.com/smallbiznis/invoicedesk/internal/invoice/repository"
	"github.com/smallbiznis/invoicedesk/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(numbering.New),
	fx.Provide(service.NewService),
)

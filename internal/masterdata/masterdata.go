// Package masterdata bundles the reference entities the procurement and
// dispatch flows look up: vendors, customers, milk types, vehicles,
// drivers and transporters.
package masterdata

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/milkline/milkline/internal/masterdata/customers"
	"github.com/milkline/milkline/internal/masterdata/drivers"
	"github.com/milkline/milkline/internal/masterdata/milktypes"
	"github.com/milkline/milkline/internal/masterdata/transporters"
	"github.com/milkline/milkline/internal/masterdata/vehicles"
	"github.com/milkline/milkline/internal/masterdata/vendors"
)

// Services exposes the entity services so other modules (appstate,
// procurement, dispatch) can resolve references without going through HTTP.
type Services struct {
	Vendors      *vendors.Service
	Customers    *customers.Service
	MilkTypes    *milktypes.Service
	Vehicles     *vehicles.Service
	Drivers      *drivers.Service
	Transporters *transporters.Service
}

func NewServices(db *pgxpool.Pool) *Services {
	return &Services{
		Vendors:      vendors.NewService(vendors.NewRepository(db)),
		Customers:    customers.NewService(customers.NewRepository(db)),
		MilkTypes:    milktypes.NewService(milktypes.NewRepository(db)),
		Vehicles:     vehicles.NewService(vehicles.NewRepository(db)),
		Drivers:      drivers.NewService(drivers.NewRepository(db)),
		Transporters: transporters.NewService(transporters.NewRepository(db)),
	}
}

type Handler struct {
	vendors      *vendors.Handler
	customers    *customers.Handler
	milkTypes    *milktypes.Handler
	vehicles     *vehicles.Handler
	drivers      *drivers.Handler
	transporters *transporters.Handler
}

func NewHandler(logger *slog.Logger, svc *Services) *Handler {
	return &Handler{
		vendors:      vendors.NewHandler(logger, svc.Vendors),
		customers:    customers.NewHandler(logger, svc.Customers),
		milkTypes:    milktypes.NewHandler(logger, svc.MilkTypes),
		vehicles:     vehicles.NewHandler(logger, svc.Vehicles),
		drivers:      drivers.NewHandler(logger, svc.Drivers),
		transporters: transporters.NewHandler(logger, svc.Transporters),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/vendors", h.vendors.MountRoutes)
	r.Route("/customers", h.customers.MountRoutes)
	r.Route("/milk-types", h.milkTypes.MountRoutes)
	r.Route("/vehicles", h.vehicles.MountRoutes)
	r.Route("/drivers", h.drivers.MountRoutes)
	r.Route("/transporters", h.transporters.MountRoutes)
}

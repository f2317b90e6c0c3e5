package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/shop-admin-core/internal/audit"
	"github.com/vasiliy-maslov/shop-admin-core/internal/catalog"
	"github.com/vasiliy-maslov/shop-admin-core/internal/discount"
	adminhttp "github.com/vasiliy-maslov/shop-admin-core/internal/handler/http"
	"github.com/vasiliy-maslov/shop-admin-core/internal/inventory"
	"github.com/vasiliy-maslov/shop-admin-core/internal/manifest"
	"github.com/vasiliy-maslov/shop-admin-core/internal/order"
)

func NewRouter(pool *pgxpool.Pool) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	recorder := audit.NewRecorder(pool)
	reconciler := inventory.NewReconciler()

	catalogRepo := catalog.NewRepository(pool)
	orderRepo := order.NewRepository(pool, reconciler)

	orderSvc := order.NewService(orderRepo, recorder)
	discountSvc := discount.NewService(catalogRepo, recorder)
	manifestBuilder := manifest.NewBuilder(orderRepo, catalogRepo)

	adminhttp.NewOrderHandler(orderSvc).RegisterRoutes(r)
	adminhttp.NewDiscountHandler(discountSvc).RegisterRoutes(r)
	adminhttp.NewManifestHandler(manifestBuilder).RegisterRoutes(r)
	adminhttp.NewInventoryHandler(catalogRepo).RegisterRoutes(r)

	return r
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/massaviva/massaviva-backend/api/controllers"
	cartcontrollers "github.com/massaviva/massaviva-backend/api/controllers/cart"
	"github.com/massaviva/massaviva-backend/api/middleware"
	"github.com/massaviva/massaviva-backend/internal/cart"
	"github.com/massaviva/massaviva-backend/internal/identity"
	"github.com/massaviva/massaviva-backend/pkg/config"
	"github.com/massaviva/massaviva-backend/pkg/db"
	"github.com/massaviva/massaviva-backend/pkg/logger"
	"github.com/massaviva/massaviva-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	ids *identity.MemoryProvider,
	store *cart.Store,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", controllers.SessionCurrent(ids, logg))
		r.Post("/", controllers.SessionStart(ids, logg))
		r.Delete("/", controllers.SessionEnd(ids, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", cartcontrollers.Fetch(store, logg))
		r.Delete("/", cartcontrollers.Clear(store, logg))
		r.Get("/stream", cartcontrollers.Stream(store, logg))
		r.Post("/items", cartcontrollers.AddItem(store, logg))
		r.Patch("/items/{lineId}", cartcontrollers.UpdateQuantity(store, logg))
		r.Delete("/items/{lineId}", cartcontrollers.RemoveItem(store, logg))
	})

	return r
}

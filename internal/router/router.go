package router

import (
	"net/http"

	"github.com/comanda-live/api/internal/catalog"
	"github.com/comanda-live/api/internal/config"
	"github.com/comanda-live/api/internal/handler"
	mw "github.com/comanda-live/api/internal/middleware"
	"github.com/comanda-live/api/internal/store"
	"github.com/comanda-live/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// Deps carries everything the routes need.
type Deps struct {
	Registry  *store.Registry
	Menu      *catalog.Catalog
	MenuStore handler.MenuStore
	Users     handler.UserStore
	Hub       *ws.Hub
}

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(deps.Users, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param). A
	// freshly connected client gets the current list before live pushes.
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(deps.Hub, cfg.JWTSecret, func(ownerID uuid.UUID) (ws.Event, bool) {
			st, err := deps.Registry.ForOwner(ownerID)
			if err != nil {
				return ws.Event{}, false
			}
			event, err := ws.OrdersListEvent(st.Orders())
			if err != nil {
				return ws.Event{}, false
			}
			return event, true
		}, w, r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler := handler.NewOrderHandler(deps.Registry, deps.Menu)
		r.Route("/orders", orderHandler.RegisterRoutes)

		menuHandler := handler.NewMenuHandler(deps.MenuStore, deps.Menu)
		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				menuHandler.RegisterAdminRoutes(r)
			})
		})
	})

	return r
}

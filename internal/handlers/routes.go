package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/event-registration-api/internal/apierror"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(r chi.Router, authHandler *auth.AuthHandler, eventHandler *EventHandler, registrationHandler *RegistrationHandler) huma.API {
	apierror.Install()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	config := huma.DefaultConfig("Event Registration API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(r, config)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	admin := gated(authHandler.RequireRoles(api, models.RoleAdmin))
	student := gated(authHandler.RequireRoles(api, models.RoleStudent))

	// Auth
	huma.Post(api, "/auth/register", authHandler.HandleRegister, created)
	huma.Post(api, "/auth/login", authHandler.HandleLogin)
	huma.Post(api, "/auth/logout", authHandler.HandleLogout)
	huma.Get(api, "/auth/me", authHandler.HandleMe)

	// Events
	huma.Get(api, "/events", eventHandler.HandleList)
	huma.Get(api, "/events/with-count", eventHandler.HandleListWithCount)
	huma.Get(api, "/events/searchByDate", eventHandler.HandleSearchByDate)
	huma.Get(api, "/events/{id}", eventHandler.HandleGet)
	huma.Post(api, "/events", eventHandler.HandleCreate, admin, created)
	huma.Put(api, "/events/{id}", eventHandler.HandleUpdate, admin)
	huma.Delete(api, "/events/{id}", eventHandler.HandleDelete, admin)

	// Registrations
	huma.Post(api, "/registrations", registrationHandler.HandleRegister, student, created)
	huma.Delete(api, "/registrations/{id}", registrationHandler.HandleCancel, student)
	huma.Get(api, "/registrations/my-registrations", registrationHandler.HandleMyRegistrations, student)
	huma.Get(api, "/registrations/listRegistrations", registrationHandler.HandleListAll, admin)
	huma.Get(api, "/registrations/getRegistrationsByDate", registrationHandler.HandleSearchByDate, admin)
	huma.Get(api, "/registrations/stats", registrationHandler.HandleStats, admin)

	return api
}

// gated marks the operation as requiring a bearer token and runs mw before it.
func gated(mw func(huma.Context, func(huma.Context))) func(o *huma.Operation) {
	return func(o *huma.Operation) {
		o.Security = []map[string][]string{{"bearerAuth": {}}}
		o.Middlewares = append(o.Middlewares, mw)
	}
}

func created(o *huma.Operation) {
	o.DefaultStatus = http.StatusCreated
}

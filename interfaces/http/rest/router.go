package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/infrastructure/config"
	"idp-backend/interfaces/http/rest/handlers"
	"idp-backend/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	repos  *ports.Repositories
	cfg    *config.Config
	logger *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(repos *ports.Repositories, cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{repos: repos, cfg: cfg, logger: logger}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.idp.internal"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		authenticator := middleware.NewAuthenticator(rt.repos.APIKeys, rt.logger)
		r.Use(authenticator.Authenticate)

		// Stack endpoints
		r.Route("/stacks", func(r chi.Router) {
			stackHandler := handlers.NewStackHandler(rt.repos.Stacks, rt.logger)
			r.Post("/", stackHandler.CreateStack)
			r.Get("/", stackHandler.ListStacks)
			r.Get("/{stackID}", stackHandler.GetStack)
			r.Put("/{stackID}", stackHandler.UpdateStack)
			r.Delete("/{stackID}", stackHandler.DeleteStack)
		})

		// Blueprint endpoints, including declared resources
		r.Route("/blueprints", func(r chi.Router) {
			blueprintHandler := handlers.NewBlueprintHandler(rt.repos.Blueprints, rt.repos.BlueprintResources, rt.logger)
			r.Post("/", blueprintHandler.CreateBlueprint)
			r.Get("/", blueprintHandler.ListBlueprints)
			r.Get("/{blueprintID}", blueprintHandler.GetBlueprint)
			r.Put("/{blueprintID}", blueprintHandler.UpdateBlueprint)
			r.Delete("/{blueprintID}", blueprintHandler.DeleteBlueprint)
			r.Get("/{blueprintID}/resources", blueprintHandler.ListResources)
			r.Post("/{blueprintID}/resources", blueprintHandler.CreateResource)
			r.Delete("/{blueprintID}/resources/{resourceID}", blueprintHandler.DeleteResource)
		})

		// API key endpoints
		r.Route("/api-keys", func(r chi.Router) {
			keyHandler := handlers.NewAPIKeyHandler(rt.repos.APIKeys, rt.logger)
			r.Post("/", keyHandler.CreateAPIKey)
			r.Get("/", keyHandler.ListAPIKeys)
			r.Get("/{keyID}", keyHandler.GetAPIKey)
			r.Delete("/{keyID}", keyHandler.RevokeAPIKey)
			r.Post("/{keyID}/rotate", keyHandler.RotateAPIKey)
		})

		// Team endpoints
		r.Route("/teams", func(r chi.Router) {
			teamHandler := handlers.NewTeamHandler(rt.repos.Teams, rt.logger)
			r.Post("/", teamHandler.CreateTeam)
			r.Get("/", teamHandler.ListTeams)
			r.Get("/{teamID}", teamHandler.GetTeam)
			r.Put("/{teamID}", teamHandler.UpdateTeam)
			r.Delete("/{teamID}", teamHandler.DeleteTeam)
		})

		// Admin catalog endpoints
		catalogHandler := handlers.NewCatalogHandler(rt.repos, rt.logger)
		r.Route("/cloud-providers", func(r chi.Router) {
			r.Post("/", catalogHandler.CreateCloudProvider)
			r.Get("/", catalogHandler.ListCloudProviders)
			r.Get("/{providerID}", catalogHandler.GetCloudProvider)
			r.Put("/{providerID}", catalogHandler.UpdateCloudProvider)
			r.Delete("/{providerID}", catalogHandler.DeleteCloudProvider)
		})
		r.Route("/resource-types", func(r chi.Router) {
			r.Post("/", catalogHandler.CreateResourceType)
			r.Get("/", catalogHandler.ListResourceTypes)
			r.Get("/{typeID}", catalogHandler.GetResourceType)
			r.Put("/{typeID}", catalogHandler.UpdateResourceType)
			r.Delete("/{typeID}", catalogHandler.DeleteResourceType)
		})
		r.Route("/mappings", func(r chi.Router) {
			r.Post("/", catalogHandler.CreateMapping)
			r.Get("/", catalogHandler.ListMappings)
			r.Get("/{mappingID}", catalogHandler.GetMapping)
			r.Put("/{mappingID}", catalogHandler.UpdateMapping)
			r.Delete("/{mappingID}", catalogHandler.DeleteMapping)
			r.Get("/{mappingID}/property-schemas", catalogHandler.ListPropertySchemas)
			r.Post("/{mappingID}/property-schemas", catalogHandler.CreatePropertySchema)
			r.Delete("/{mappingID}/property-schemas/{schemaID}", catalogHandler.DeletePropertySchema)
		})

		// Audit trail endpoints
		r.Route("/audit-logs", func(r chi.Router) {
			auditHandler := handlers.NewAuditHandler(rt.repos.AuditLogs, rt.logger)
			r.Get("/", auditHandler.ListAuditLogs)
			r.Get("/{logID}", auditHandler.GetAuditLog)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gogarantia/internal/api/client"
	"gogarantia/internal/api/dashboard"
	"gogarantia/internal/api/email"
	"gogarantia/internal/api/product"
	"gogarantia/internal/api/user"
	"gogarantia/internal/api/warranty"
	"gogarantia/internal/domain"
	"gogarantia/internal/pkg/cache"
	"gogarantia/internal/pkg/logger"
	"gogarantia/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	User      *user.Handler
	Client    *client.Handler
	Product   *product.Handler
	Warranty  *warranty.Handler
	Dashboard *dashboard.Handler
	Email     *email.Handler
}

// Options são os parâmetros de borda do roteador.
type Options struct {
	AllowedOrigins  []string
	RateLimitMax    int
	RateLimitPeriod time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, cacheClient cache.Client, log logger.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	// Middlewares globais
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if opts.RateLimitMax > 0 {
		r.Use(middleware.RateLimiter(cacheClient, opts.RateLimitMax, opts.RateLimitPeriod, log))
	}

	// --- Health Check ---
	r.Get("/ping", PingHandler)

	// --- Documentação ---
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/v1", func(r chi.Router) {
		// Rotas públicas
		r.Post("/register", h.User.RegisterUserHandler)
		r.Post("/login", h.User.LoginUserHandler)

		// Rotas autenticadas
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(tokenSvc))

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.Client.ListClientsHandler)
				r.Post("/", h.Client.CreateClientHandler)
				r.Get("/{id}", h.Client.GetClientHandler)
				r.Put("/{id}", h.Client.UpdateClientHandler)
				r.Delete("/{id}", h.Client.DeleteClientHandler)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Product.ListProductsHandler)
				r.Post("/", h.Product.CreateProductHandler)
				r.Get("/{id}", h.Product.GetProductByIDHandler)
				r.Put("/{id}", h.Product.UpdateProductHandler)
				r.Delete("/{id}", h.Product.DeleteProductHandler)
			})

			r.Route("/warranties", func(r chi.Router) {
				r.Get("/", h.Warranty.ListWarrantiesHandler)
				r.Post("/", h.Warranty.CreateWarrantyHandler)
				r.Get("/{id}", h.Warranty.GetWarrantyHandler)
				r.Put("/{id}", h.Warranty.UpdateWarrantyHandler)
				r.Delete("/{id}", h.Warranty.DeleteWarrantyHandler)
				r.Post("/{id}/resend-email", h.Warranty.ResendEmailHandler)
			})

			// Apenas administradores
			r.Group(func(r chi.Router) {
				r.Use(middleware.PermissionMiddleware(domain.RoleAdmin))

				r.Get("/analytics/dashboard", h.Dashboard.DashboardHandler)
				r.Post("/analytics/insights", h.Dashboard.InsightsHandler)
				r.Get("/email/verify", h.Email.VerifyHandler)
				r.Post("/email/test", h.Email.TestHandler)
			})
		})
	})

	return r
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

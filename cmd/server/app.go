package main

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/auth"
	"github.com/diewo77/literie-pos/httpx"
	"github.com/diewo77/literie-pos/internal/config"
	"github.com/diewo77/literie-pos/internal/handlers"
	"github.com/diewo77/literie-pos/internal/services"
	"github.com/diewo77/literie-pos/internal/wizard"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	db       *gorm.DB
	cfg      *config.Config
	Sessions *services.WizardSessions
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, cfg *config.Config) *App {
	app := &App{
		mux: http.NewServeMux(),
		db:  db,
		cfg: cfg,
		Sessions: services.NewWizardSessions(
			wizard.WithVATRate(cfg.Wizard.VATRate),
			wizard.WithMinDepositPercent(cfg.Wizard.MinDepositPercent),
		),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := withRecover(auth.Middleware(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	sellers := services.NewSellerService(a.db)
	products := services.NewProductService(a.db)
	clients := services.NewClientService(a.db)
	invoices := services.NewInvoiceService(a.db)

	ah := handlers.NewAuthHandler(sellers)
	ph := handlers.NewProductHandler(products, a.cfg.Wizard.VATRate)
	ch := handlers.NewClientHandler(clients)
	ih := handlers.NewInvoiceHandler(invoices)
	wh := handlers.NewWizardHandler(a.Sessions, invoices, products, clients, a.cfg.Wizard.EventLocation)

	// Public routes
	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("POST /logout", ah.Logout)

	// Catalog, clients and stored invoices
	a.handle("GET /api/products", ph.List)
	a.handle("GET /api/products/{code}", ph.Get)
	a.handle("GET /api/clients", ch.List)
	a.handle("GET /api/clients/{id}", ch.Get)
	a.handle("GET /api/invoices", ih.List)
	a.handle("GET /api/invoices/{id}", ih.Get)
	a.handle("GET /api/invoices/{id}/flat", ih.Flat)
	a.handle("POST /api/invoices/{id}/cancel", ih.Cancel)

	// Wizard sessions
	a.handle("GET /api/wizard", wh.List)
	a.handle("POST /api/wizard", wh.Create)
	a.handle("GET /api/wizard/{id}", wh.Get)
	a.handle("DELETE /api/wizard/{id}", wh.Delete)

	a.handle("PATCH /api/wizard/{id}/info", wh.UpdateInfo)
	a.handle("PATCH /api/wizard/{id}/client", wh.UpdateClient)
	a.handle("POST /api/wizard/{id}/client/{clientID}", wh.UseClient)
	a.handle("PATCH /api/wizard/{id}/payment", wh.UpdatePayment)
	a.handle("PATCH /api/wizard/{id}/delivery", wh.UpdateDelivery)
	a.handle("PATCH /api/wizard/{id}/signature", wh.UpdateSignature)
	a.handle("PUT /api/wizard/{id}/terms", wh.SetTerms)

	a.handle("POST /api/wizard/{id}/items", wh.AddItem)
	a.handle("PATCH /api/wizard/{id}/items/{itemID}", wh.UpdateItem)
	a.handle("DELETE /api/wizard/{id}/items/{itemID}", wh.RemoveItem)

	a.handle("POST /api/wizard/{id}/next", wh.Next)
	a.handle("POST /api/wizard/{id}/prev", wh.Prev)
	a.handle("PUT /api/wizard/{id}/step", wh.SetStep)
	a.handle("POST /api/wizard/{id}/reset", wh.Reset)

	a.handle("GET /api/wizard/{id}/cheques", wh.Cheques)
	a.handle("POST /api/wizard/{id}/cheques/apply", wh.ApplyCheques)
	a.handle("GET /api/wizard/{id}/suggestions", wh.Suggestions)
	a.handle("GET /api/wizard/{id}/alma", wh.Alma)

	a.handle("GET /api/wizard/{id}/flat", wh.Flat)
	a.handle("PUT /api/wizard/{id}/flat", wh.ReplaceFlat)
	a.handle("POST /api/wizard/{id}/save", wh.Save)
	a.handle("POST /api/wizard/{id}/finish", wh.Finish)
}

// handle registers an authenticated route.
func (a *App) handle(pattern string, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(h))
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "sessions": strconv.Itoa(a.Sessions.Len())})
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

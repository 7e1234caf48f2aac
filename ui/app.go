package ui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"invoicegen/internal"
	"invoicegen/internal/container"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App is the ops console: a small server-rendered site for browsing
// generated documents, reading their run reports, and downloading the
// workbooks. It reads the output directory and the audit trail; it never
// triggers generation itself.
type App struct {
	router    *chi.Mux
	container *container.Container
	templates *template.Template
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the console over an initialized container.
func NewApp(c *container.Container) (*App, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"kb": func(size int64) string {
			return fmt.Sprintf("%.1f KB", float64(size)/1024)
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		container: c,
		templates: templates,
		logger:    internal.DefaultLogger,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS := http.FileServer(http.FS(embeddedFiles))
	a.router.Handle("/static/*", staticFS)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/documents/{name}", a.handleReport)
	a.router.Get("/documents/{name}/download", a.handleDownload)
	a.router.Get("/sessions", a.handleSessions)
}

// Start runs the console on the given port.
func (a *App) Start(port string) error {
	addr := ":" + port
	a.logger.Info("Ops console listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Handler exposes the router for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"koafrail/adapters/svg"
	"koafrail/app"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// App is the clinician-facing web application: the assessment form, the
// result panel with its plots, and the model and history pages.
type App struct {
	router    *chi.Mux
	config    Config
	assess    *app.AssessService
	templates *template.Template
	force     *svg.ForcePlot
	bars      *svg.BarChart
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the web application around an assessment service
func NewApp(config Config, assess *app.AssessService) (*App, error) {
	// Parse templates (including fragments)
	funcMap := template.FuncMap{
		"mul": func(a, b float64) float64 { return a * b },
		"add": func(a, b int) int { return a + b },
		"max": func(a, b float64) float64 {
			if a > b {
				return a
			}
			return b
		},
		"until": func(n int) []int {
			res := make([]int, n)
			for i := range res {
				res[i] = i
			}
			return res
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		config:    config,
		assess:    assess,
		templates: templates,
		force:     svg.NewForcePlot(),
		bars:      svg.NewBarChart(),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	// Serve static files straight from the embedded tree; URL paths mirror
	// the on-disk layout, so no prefix stripping is needed.
	a.router.Handle("/static/*", http.FileServer(http.FS(embeddedFiles)))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	// Main pages
	a.router.Get("/", a.handleIndex)
	a.router.Post("/assess", a.handleAssess)
	a.router.Get("/model", a.handleModel)
	a.router.Get("/history", a.handleHistory)

	a.router.Get("/healthz", a.handleHealthz)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.config.Port
	log.Printf("Starting frailty assessment UI on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Template helpers
func (a *App) renderTemplate(w http.ResponseWriter, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// HTMX helpers
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (a *App) renderPartial(w http.ResponseWriter, templateName string, data interface{}) {
	a.renderTemplate(w, templateName, data)
}

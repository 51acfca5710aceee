package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"molview/internal/config"
	"molview/internal/dataset"
	"molview/internal/depict"
	"molview/internal/logging"
	"molview/internal/session"
	"molview/ports"
)

// Server is the molecule-viewer web UI: upload form, filterable record
// grid, and structure depictions, driven by HTMX fragments.
type Server struct {
	router    *gin.Engine
	templates *template.Template
	cfg       *config.Config
	loader    *dataset.Loader
	sessions  *session.Store
	renderer  *depict.Renderer
	catalog   ports.CatalogRepository // nil when no database is configured
	logger    *logging.Logger
}

// NewServer wires the UI against its collaborators and parses the
// embedded templates.
func NewServer(
	cfg *config.Config,
	loader *dataset.Loader,
	sessions *session.Store,
	renderer *depict.Renderer,
	catalog ports.CatalogRepository,
	logger *logging.Logger,
) (*Server, error) {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:   gin.New(),
		cfg:      cfg,
		loader:   loader,
		sessions: sessions,
		renderer: renderer,
		catalog:  catalog,
		logger:   logger,
	}

	if err := s.parseTemplates(); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) parseTemplates() error {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"seq": func(n int) []int {
			res := make([]int, n)
			for i := range res {
				res[i] = i + 1
			}
			return res
		},
		"formatBytes": formatBytes,
		"formatFloat": func(v float64) string {
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
		},
		"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
		"truncate": func(s string, n int) string {
			if len(s) <= n {
				return s
			}
			return s[:n] + "…"
		},
		"lower": strings.ToLower,
	}

	templatesFS, err := fs.Sub(embeddedFiles, "templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	s.templates = template.New("").Funcs(funcMap)
	for _, pattern := range []string{"*.html", "fragments/*.html"} {
		files, err := fs.Glob(templatesFS, pattern)
		if err != nil {
			return fmt.Errorf("failed to glob templates %s: %w", pattern, err)
		}
		for _, file := range files {
			content, err := fs.ReadFile(templatesFS, file)
			if err != nil {
				return fmt.Errorf("failed to read template %s: %w", file, err)
			}
			if _, err := s.templates.New(file).Parse(string(content)); err != nil {
				return fmt.Errorf("failed to parse template %s: %w", file, err)
			}
		}
	}
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLog())
	s.router.Use(s.sessionMiddleware())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		log.Printf("[setupMiddleware] Failed to create static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleFileUpload)
	s.router.GET("/grid", s.handleGrid)
	s.router.GET("/records/:idx", s.handleRecordDetail)
	s.router.GET("/depict/:idx", s.handleDepict)
	s.router.GET("/help", s.handleHelp)
	s.router.GET("/uploads", s.handleUploadHistory)

	api := s.router.Group("/api")
	{
		api.GET("/cache-stats", s.handleCacheStats)
		api.GET("/dataset", s.handleDatasetInfo)
	}
}

// Router exposes the gin engine for tests and for mounting.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP listener and blocks.
func (s *Server) Run(addr string) error {
	s.logger.Info("UI server listening on %s", addr)
	return s.router.Run(addr)
}

// renderTemplate executes a template into a buffer first so errors can
// still produce a clean 500 instead of a half-written page.
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		log.Printf("Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		log.Printf("Error writing template response: %v", err)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

package ui

import (
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// handleHelp renders the embedded user guide from markdown.
func (s *Server) handleHelp(c *gin.Context) {
	src, err := fs.ReadFile(embeddedFiles, "docs/help.md")
	if err != nil {
		log.Printf("[handleHelp] Failed to read help document: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Help document unavailable"})
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML(src, p, renderer)

	s.renderTemplate(c, "help.html", gin.H{
		"Content": template.HTML(rendered),
	})
}

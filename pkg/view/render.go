package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer dibuja las pantallas como páginas HTML
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer carga las plantillas embebidas
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error cargando plantillas: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render escribe la página completa de v en w
func (r *Renderer) Render(w io.Writer, v ScreenView) error {
	return r.tmpl.ExecuteTemplate(w, "page", v)
}

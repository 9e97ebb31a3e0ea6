package notify

import (
	"embed"
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateVerification         = "verification"
	TemplateWelcome              = "welcome"
	TemplatePasswordReset        = "password_reset"
	TemplatePasswordResetSuccess = "password_reset_success"
)

// Renderer compiles the embedded email templates once and renders
// them against a pongo2 context
type Renderer struct {
	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

func NewRenderer() *Renderer {
	return &Renderer{cache: map[string]*pongo2.Template{}}
}

// Render executes the named template with data
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	tpl, err := r.template(name)
	if err != nil {
		return "", err
	}

	out, err := tpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out, nil
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	tpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	raw, err := templateFS.ReadFile("templates/" + name + ".html")
	if err != nil {
		return nil, fmt.Errorf("template %s not found: %w", name, err)
	}

	tpl, err = pongo2.FromString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile template %s: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = tpl
	r.mu.Unlock()

	return tpl, nil
}

package notifx

import (
	"bytes"
	"html/template"
	"strings"
	"sync"
)

// TemplateRegistry guarda los templates HTML de email por nombre. El Client
// registra TemplateOTPCode al construirse; otros templates se agregan con
// Client.RegisterTemplate.
type TemplateRegistry struct {
	templates map[string]*template.Template
	mu        sync.RWMutex
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]*template.Template),
	}
}

// Register parsea y guarda el template. Un campo faltante al renderizar es
// error: un email de OTP sin código no debe salir.
func (r *TemplateRegistry) Register(name, tmplString string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return notifxErrors.New(ErrTemplateParse).WithDetail("reason", "empty template name")
	}

	t, err := template.New(name).Option("missingkey=error").Parse(tmplString)
	if err != nil {
		return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name)
	}

	r.mu.Lock()
	r.templates[name] = t
	r.mu.Unlock()

	return nil
}

// Render ejecuta el template name con data.
func (r *TemplateRegistry) Render(name string, data any) (string, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return "", notifxErrors.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}

	return buf.String(), nil
}

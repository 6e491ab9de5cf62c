package templatex

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	IndexTemplate   = "index"
	SeasonTemplate  = "season"
	ArticleTemplate = "article"
	PageTemplate    = "page"
)

var (
	// ErrTemplateNotFound is returned when executing a name the registry does not hold.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNoTemplates is returned when the glob matches no files.
	ErrNoTemplates = errors.New("no templates found")
)

// Registry holds the compiled template set. Execute may run concurrently;
// Reload swaps the set under the write lock.
type Registry struct {
	pattern string
	funcs   template.FuncMap

	mu        sync.RWMutex
	templates *template.Template
}

// Load compiles every file matched by pattern, plus a sibling partials/
// directory with the same extension when present.
func Load(pattern string, funcs ...template.FuncMap) (*Registry, error) {
	if pattern == "" {
		return nil, fmt.Errorf("template pattern not configured")
	}

	merged := template.FuncMap{}
	for _, fm := range funcs {
		for name, fn := range fm {
			merged[name] = fn
		}
	}

	reg := &Registry{pattern: pattern, funcs: merged}
	tpl, err := reg.compile()
	if err != nil {
		return nil, err
	}
	reg.templates = tpl
	return reg, nil
}

func (r *Registry) compile() (*template.Template, error) {
	files, err := filepath.Glob(r.pattern)
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	partialsDir := filepath.Join(filepath.Dir(r.pattern), "partials")
	if info, err := os.Stat(partialsDir); err == nil && info.IsDir() {
		partialPattern := filepath.Join(partialsDir, filepath.Base(r.pattern))
		partialFiles, err := filepath.Glob(partialPattern)
		if err != nil {
			return nil, fmt.Errorf("glob partial templates: %w", err)
		}
		files = append(files, partialFiles...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplates, r.pattern)
	}

	sort.Strings(files)

	tpl := template.New("root").Option("missingkey=error").Funcs(r.funcs)
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		if _, err := tpl.New(templateName(file)).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
	}
	return tpl, nil
}

// templateName strips directory and extension: templates/season.html -> season.
func templateName(file string) string {
	base := filepath.Base(file)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Reload recompiles the templates from disk. On failure the previous set
// stays active.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tpl, err := r.compile()
	if err != nil {
		return err
	}
	r.templates = tpl
	return nil
}

// Execute renders the named template into w.
func (r *Registry) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.templates == nil {
		return fmt.Errorf("template registry not initialized")
	}
	tpl := r.templates.Lookup(name)
	if tpl == nil {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return tpl.Execute(w, data)
}

// Names lists the compiled template names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0)
	for _, t := range r.templates.Templates() {
		if t.Name() == "root" {
			continue
		}
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}

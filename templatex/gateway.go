package templatex

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"

	"github.com/iedon/zine-go/fsutil"
)

// OutputFile is the file name written into every rendered directory.
const OutputFile = "index.html"

// Gateway renders a template into <dest>/index.html.
type Gateway struct {
	registry *Registry
	minifier *minify.M
}

// NewGateway wires a gateway to registry. With minifyHTML set, output is
// minified before it is written.
func NewGateway(registry *Registry, minifyHTML bool) *Gateway {
	g := &Gateway{registry: registry}
	if minifyHTML {
		m := minify.New()
		m.AddFunc("text/css", css.Minify)
		m.Add("text/html", &minhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		g.minifier = m
	}
	return g
}

// Render executes the named template against ctx and writes the result to
// <destDir>/index.html. Missing directories are created.
func (g *Gateway) Render(name string, ctx Context, destDir string) error {
	var buf bytes.Buffer
	if err := g.registry.Execute(&buf, name, ctx); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	out := buf.Bytes()
	if g.minifier != nil {
		minified, err := g.minifier.Bytes("text/html", out)
		if err != nil {
			return fmt.Errorf("minify %s: %w", name, err)
		}
		out = minified
	}

	target := filepath.Join(destDir, OutputFile)
	if err := fsutil.WriteFile(target, out); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

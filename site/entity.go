package site

import (
	"context"
	"log/slog"

	"github.com/iedon/zine-go/preview"
	"github.com/iedon/zine-go/renderer"
	"github.com/iedon/zine-go/templatex"
)

// Entity is any node of the content tree.
type Entity interface {
	// Parse loads the entity's content from the source directory.
	Parse(ctx context.Context, env *Env, source string) error
	// Render writes the entity's output under dest.
	Render(env *Env, scope templatex.Context, dest string) error
}

// PageWriter renders a named template into <dest>/index.html.
type PageWriter interface {
	Render(name string, ctx templatex.Context, dest string) error
}

// Env carries the shared handles entities need while parsing and rendering.
type Env struct {
	Pages    PageWriter
	Markdown *renderer.Renderer
	// Previews is optional; without it no link previews are resolved.
	Previews *preview.Resolver
	Logger   *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

var (
	_ Entity = (*Zine)(nil)
	_ Entity = (*Season)(nil)
	_ Entity = (*Article)(nil)
	_ Entity = (*Page)(nil)
)

package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/iedon/zine-go/templatex"
)

// ManifestFile is the manifest name at the project root and in every season directory.
const ManifestFile = "zine.toml"

// Site is the [site] table of the root manifest.
type Site struct {
	Name        string `toml:"name"`
	URL         string `toml:"url"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Logo        string `toml:"logo"`
}

// Zine is the root entity decoded from zine.toml.
type Zine struct {
	Site    Site      `toml:"site"`
	Seasons []*Season `toml:"season"`
	Pages   []*Page   `toml:"page"`
}

// Articles returns every article of every season, in season order.
func (z *Zine) Articles() []*Article {
	out := make([]*Article, 0)
	for _, season := range z.Seasons {
		out = append(out, season.Articles...)
	}
	return out
}

// Parse validates the site table and parses every season and page.
func (z *Zine) Parse(ctx context.Context, env *Env, source string) error {
	z.Site.Name = strings.TrimSpace(z.Site.Name)
	if z.Site.Name == "" {
		return fmt.Errorf("%w: site.name is required", ErrInvalidManifest)
	}
	if z.Site.Title == "" {
		z.Site.Title = z.Site.Name
	}

	slugs := make(map[string]string, len(z.Seasons)+len(z.Pages))
	claim := func(kind, slug string) error {
		if other, dup := slugs[slug]; dup {
			return fmt.Errorf("%w: %s %q collides with %s", ErrDuplicateSlug, kind, slug, other)
		}
		slugs[slug] = kind
		return nil
	}

	for _, season := range z.Seasons {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := season.Parse(ctx, env, source); err != nil {
			return err
		}
		if err := claim("season", season.Slug); err != nil {
			return err
		}
	}
	for _, page := range z.Pages {
		if err := page.Parse(ctx, env, source); err != nil {
			return err
		}
		if err := claim("page", page.Slug); err != nil {
			return err
		}
	}
	return nil
}

// Render writes every season and page, then the site index.
func (z *Zine) Render(env *Env, scope templatex.Context, dest string) error {
	scope = scope.Clone().
		Insert("site", &z.Site).
		Insert("seasons", z.Seasons).
		Insert("pages", z.Pages)

	for _, season := range z.Seasons {
		if err := season.Render(env, scope, filepath.Join(dest, season.Slug)); err != nil {
			return err
		}
	}
	for _, page := range z.Pages {
		if err := page.Render(env, scope, filepath.Join(dest, page.Slug)); err != nil {
			return err
		}
	}

	scope = scope.Clone().
		Insert("articles", z.Articles()).
		Insert("breadcrumbs", buildBreadcrumbs(z.Site.Name, nil, nil))
	if err := env.Pages.Render(templatex.IndexTemplate, scope, dest); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

// Page is a standalone markdown page such as "about".
type Page struct {
	File  string `toml:"file"`
	Slug  string `toml:"slug"`
	Title string `toml:"title"`

	URL  string        `toml:"-"`
	HTML template.HTML `toml:"-"`
}

// Parse reads the page markdown relative to the project root.
func (p *Page) Parse(_ context.Context, env *Env, source string) error {
	if strings.TrimSpace(p.File) == "" {
		return fmt.Errorf("%w: page without file", ErrInvalidManifest)
	}
	raw, err := os.ReadFile(filepath.Join(source, filepath.FromSlash(p.File)))
	if err != nil {
		return fmt.Errorf("read page %s: %w", p.File, err)
	}
	rendered, err := env.Markdown.Render(raw)
	if err != nil {
		return fmt.Errorf("render page %s: %w", p.File, err)
	}

	if p.Title == "" {
		p.Title = metaString(rendered.Meta, "title")
	}
	if p.Title == "" {
		p.Title = deriveTitle(p.File)
	}
	if p.Slug == "" {
		p.Slug = deriveSlug(p.File)
	}
	if err := checkSlug("page", p.Slug); err != nil {
		return err
	}
	p.URL = path.Join("/", p.Slug) + "/"
	p.HTML = template.HTML(rendered.HTML)
	return nil
}

// Render writes the page into dest.
func (p *Page) Render(env *Env, scope templatex.Context, dest string) error {
	scope = scope.Clone().Insert("page", p)
	if err := env.Pages.Render(templatex.PageTemplate, scope, dest); err != nil {
		return fmt.Errorf("page %s: %w", p.Slug, err)
	}
	return nil
}

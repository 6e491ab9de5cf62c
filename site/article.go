package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/iedon/zine-go/preview"
	"github.com/iedon/zine-go/renderer"
	"github.com/iedon/zine-go/templatex"
)

// DateLayout is the accepted pub_date format.
const DateLayout = "2006-01-02"

// Article is a single markdown document inside a season.
type Article struct {
	File     string `toml:"file"`
	Title    string `toml:"title"`
	Slug     string `toml:"slug"`
	Author   string `toml:"author"`
	Cover    string `toml:"cover"`
	PubDate  string `toml:"pub_date"`
	Featured bool   `toml:"featured"`

	URL         string             `toml:"-"`
	Published   time.Time          `toml:"-"`
	Markdown    string             `toml:"-"`
	HTML        template.HTML      `toml:"-"`
	Summary     string             `toml:"-"`
	Headings    []renderer.Heading `toml:"-"`
	Previews    []preview.Link     `toml:"-"`
	Breadcrumbs []Breadcrumb       `toml:"-"`
}

// Parse reads the markdown file relative to source (the season directory).
func (a *Article) Parse(ctx context.Context, env *Env, source string) error {
	if strings.TrimSpace(a.File) == "" {
		return fmt.Errorf("%w: article without file", ErrInvalidManifest)
	}

	file := filepath.Join(source, filepath.FromSlash(a.File))
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read article %s: %w", a.File, err)
	}

	rendered, err := env.Markdown.Render(raw)
	if err != nil {
		return fmt.Errorf("render article %s: %w", a.File, err)
	}

	if a.Title == "" {
		a.Title = metaString(rendered.Meta, "title")
	}
	if a.Title == "" && len(rendered.Headings) > 0 && rendered.Headings[0].Level == 1 {
		a.Title = rendered.Headings[0].Text
	}
	if a.Title == "" {
		a.Title = deriveTitle(a.File)
	}
	if a.Author == "" {
		a.Author = metaString(rendered.Meta, "author")
	}
	if a.Cover == "" {
		a.Cover = metaString(rendered.Meta, "cover")
	}
	if a.PubDate == "" {
		a.PubDate = metaDate(rendered.Meta, "pub_date")
	}
	a.Featured = a.Featured || metaBool(rendered.Meta, "featured")
	if a.Slug == "" {
		a.Slug = deriveSlug(a.File)
	}
	if err := checkSlug("article", a.Slug); err != nil {
		return err
	}
	if a.PubDate != "" {
		published, err := time.Parse(DateLayout, a.PubDate)
		if err != nil {
			return fmt.Errorf("%w: article %s: pub_date %q: %v", ErrInvalidManifest, a.File, a.PubDate, err)
		}
		a.Published = published
	}

	a.Markdown = string(raw)
	a.HTML = template.HTML(rendered.HTML)
	a.Summary = summarize(rendered.PlainText)
	a.Headings = rendered.Headings

	if env.Previews != nil && len(rendered.Links) > 0 {
		a.Previews = env.Previews.Resolve(ctx, rendered.Links)
	}
	return nil
}

// Render writes the article page into dest.
func (a *Article) Render(env *Env, scope templatex.Context, dest string) error {
	scope = scope.Clone().Insert("article", a)
	if err := env.Pages.Render(templatex.ArticleTemplate, scope, dest); err != nil {
		return fmt.Errorf("article %s: %w", a.Slug, err)
	}
	env.logger().Debug("rendered article", "slug", a.Slug, "dest", dest)
	return nil
}

func (a *Article) link(seasonSlug string) {
	a.URL = path.Join("/", seasonSlug, a.Slug) + "/"
}

func metaDate(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.Format(DateLayout)
	default:
		return ""
	}
}

package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/iedon/zine-go/templatex"
)

// Season groups articles published together. Its articles are listed in
// <source>/<path>/zine.toml.
type Season struct {
	Slug   string `toml:"slug"`
	Number int    `toml:"number"`
	Title  string `toml:"title"`
	Path   string `toml:"path"`
	// Intro is an optional markdown file inside the season directory.
	Intro string `toml:"intro"`

	URL       string        `toml:"-"`
	IntroHTML template.HTML `toml:"-"`
	Articles  []*Article    `toml:"-"`
}

type seasonManifest struct {
	Articles []*Article `toml:"article"`
}

// Parse loads the season manifest and every article it lists.
func (s *Season) Parse(ctx context.Context, env *Env, source string) error {
	if strings.TrimSpace(s.Slug) == "" {
		return fmt.Errorf("%w: season %d has no slug", ErrInvalidManifest, s.Number)
	}
	if err := checkSlug("season", s.Slug); err != nil {
		return err
	}
	if s.Title == "" {
		s.Title = fmt.Sprintf("Season %d", s.Number)
	}
	s.URL = path.Join("/", s.Slug) + "/"

	dir := filepath.Join(source, filepath.FromSlash(s.Path))
	manifest, err := readSeasonManifest(dir)
	if err != nil {
		return fmt.Errorf("season %s: %w", s.Slug, err)
	}

	if s.Intro != "" {
		raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(s.Intro)))
		if err != nil {
			return fmt.Errorf("season %s: read intro: %w", s.Slug, err)
		}
		html, err := env.Markdown.ToHTML(string(raw))
		if err != nil {
			return fmt.Errorf("season %s: render intro: %w", s.Slug, err)
		}
		s.IntroHTML = template.HTML(html)
	}

	seen := make(map[string]struct{}, len(manifest.Articles))
	for _, article := range manifest.Articles {
		if err := article.Parse(ctx, env, dir); err != nil {
			return fmt.Errorf("season %s: %w", s.Slug, err)
		}
		if _, dup := seen[article.Slug]; dup {
			return fmt.Errorf("season %s: %w: %s", s.Slug, ErrDuplicateSlug, article.Slug)
		}
		seen[article.Slug] = struct{}{}
		article.link(s.Slug)
	}

	sort.SliceStable(manifest.Articles, func(i, j int) bool {
		return manifest.Articles[i].Published.Before(manifest.Articles[j].Published)
	})
	s.Articles = manifest.Articles
	return nil
}

// Render writes the season index and each article under dest.
func (s *Season) Render(env *Env, scope templatex.Context, dest string) error {
	siteName := ""
	if site, ok := scope["site"].(*Site); ok {
		siteName = site.Name
	}

	scope = scope.Clone().
		Insert("season", s).
		Insert("articles", s.Articles).
		Insert("breadcrumbs", buildBreadcrumbs(siteName, s, nil))

	for i, article := range s.Articles {
		var prev, next *Article
		if i > 0 {
			prev = s.Articles[i-1]
		}
		if i < len(s.Articles)-1 {
			next = s.Articles[i+1]
		}
		article.Breadcrumbs = buildBreadcrumbs(siteName, s, article)

		articleScope := scope.Clone().
			Insert("previous", prev).
			Insert("next", next).
			Insert("breadcrumbs", article.Breadcrumbs)
		if err := article.Render(env, articleScope, filepath.Join(dest, article.Slug)); err != nil {
			return fmt.Errorf("season %s: %w", s.Slug, err)
		}
	}

	if err := env.Pages.Render(templatex.SeasonTemplate, scope, dest); err != nil {
		return fmt.Errorf("season %s: %w", s.Slug, err)
	}
	return nil
}

func readSeasonManifest(dir string) (*seasonManifest, error) {
	file := filepath.Join(dir, ManifestFile)
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	manifest := &seasonManifest{}
	if err := toml.Unmarshal(raw, manifest); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return manifest, nil
}

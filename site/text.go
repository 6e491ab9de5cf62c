package site

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/iedon/zine-go/renderer"
)

func deriveTitle(relPath string) string {
	name := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "Untitled"
	}
	return name
}

// deriveSlug folds accents (é -> e) before slugifying, so "Café Noir.md"
// becomes "cafe-noir".
func deriveSlug(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return renderer.Slugify(b.String())
}

// checkSlug rejects slugs that would not name exactly one directory below
// the output root.
func checkSlug(kind, slug string) error {
	if slug == "." || strings.ContainsAny(slug, `/\`) || !filepath.IsLocal(slug) {
		return fmt.Errorf("%w: %s slug %q must be a single path segment", ErrInvalidManifest, kind, slug)
	}
	return nil
}

func summarize(plain string) string {
	const limit = 200
	plain = strings.Join(strings.Fields(plain), " ")
	if plain == "" {
		return ""
	}
	runes := []rune(plain)
	if len(runes) <= limit {
		return plain
	}
	return string(runes[:limit]) + "..."
}

func metaString(meta map[string]any, key string) string {
	v, _ := meta[key].(string)
	return strings.TrimSpace(v)
}

func metaBool(meta map[string]any, key string) bool {
	v, ok := meta[key].(bool)
	return ok && v
}

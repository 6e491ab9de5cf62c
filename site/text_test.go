package site

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSlug(t *testing.T) {
	for _, slug := range []string{"s1", "cafe-noir", "2022"} {
		assert.NoError(t, checkSlug("page", slug), slug)
	}
	for _, slug := range []string{"../escape", "..", ".", "a/b", `a\b`, "/abs", ""} {
		assert.ErrorIs(t, checkSlug("page", slug), ErrInvalidManifest, slug)
	}
}

func TestDeriveSlug(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Café Noir.md", "cafe-noir"},
		{"content/2022/hello_world.md", "hello-world"},
		{"Ünïcödé", "unicode"},
		{"???.md", "section"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, deriveSlug(tc.input))
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "", summarize("   "))
	assert.Equal(t, "a b c", summarize("a\n b\t c"))

	long := strings.Repeat("é", 250)
	got := summarize(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 203, len([]rune(got)))
}

func TestBuildBreadcrumbs(t *testing.T) {
	season := &Season{Title: "S1", URL: "/s1/"}
	article := &Article{Title: "Post"}

	assert.Equal(t, []Breadcrumb{{Title: "Zine", Path: "/", Current: true}}, buildBreadcrumbs("Zine", nil, nil))
	assert.Equal(t, []Breadcrumb{
		{Title: "Zine", Path: "/"},
		{Title: "S1", Current: true},
	}, buildBreadcrumbs("Zine", season, nil))
	assert.Equal(t, []Breadcrumb{
		{Title: "Zine", Path: "/"},
		{Title: "S1", Path: "/s1/"},
		{Title: "Post", Current: true},
	}, buildBreadcrumbs("Zine", season, article))
}

package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTMLHeadingAndStrong(t *testing.T) {
	html, err := New().ToHTML("# Title\n\nSome **bold** text.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "Title</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestToHTMLExtensions(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n\n- [x] done\n\nNote[^1]\n\n[^1]: footnote body\n"
	html, err := New().ToHTML(src)
	require.NoError(t, err)

	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<del>gone</del>")
	assert.Contains(t, html, `type="checkbox"`)
	assert.Contains(t, html, "footnote body")
}

func TestRenderHeadingsGetUniqueIDs(t *testing.T) {
	res, err := New().Render([]byte("## Intro\n\ntext\n\n## Intro\n"))
	require.NoError(t, err)

	require.Len(t, res.Headings, 2)
	assert.Equal(t, "intro", res.Headings[0].ID)
	assert.Equal(t, "intro-1", res.Headings[1].ID)
	assert.Contains(t, string(res.HTML), `id="intro-1"`)
}

func TestRenderFrontMatter(t *testing.T) {
	src := "---\ntitle: Hello\nauthor: ann\n---\n\nBody text.\n"
	res, err := New().Render([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Hello", res.Meta["title"])
	assert.Equal(t, "ann", res.Meta["author"])
	assert.NotContains(t, string(res.HTML), "author")
	assert.Equal(t, "Body text.", res.PlainText)
}

func TestRenderStandaloneLinks(t *testing.T) {
	src := "Intro paragraph with [inline](https://inline.test) link.\n\n" +
		"[Card](https://card.test)\n\n" +
		"https://auto.test\n\n" +
		"[About](/about/)\n\n" +
		"[Notes](#notes)\n\n" +
		"[Mail](mailto:a@example.com)\n\n" +
		"<mail@example.com>\n"
	res, err := New().Render([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://card.test", "https://auto.test"}, res.Links)
}

func TestSlugify(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"  spaced  out ", "spaced-out"},
		{"a_b.c-d", "a-b-c-d"},
		{"!!!", "section"},
		{"", "section"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, Slugify(tc.input))
		})
	}
}

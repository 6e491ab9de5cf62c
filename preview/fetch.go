package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/iedon/zine-go/data"
)

const maxBodyBytes = 1 << 20

// ErrNoMetadata is returned when a page carries neither a title nor a description.
var ErrNoMetadata = errors.New("page has no preview metadata")

// Fetcher downloads pages and extracts their preview metadata.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher builds a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves url and extracts its title and description.
func (f *Fetcher) Fetch(ctx context.Context, url string) (data.Preview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return data.Preview{}, fmt.Errorf("construct request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return data.Preview{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return data.Preview{}, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	preview := Extract(io.LimitReader(resp.Body, maxBodyBytes))
	if preview.Title == "" && preview.Description == "" {
		return data.Preview{}, fmt.Errorf("%w: %s", ErrNoMetadata, url)
	}
	return preview, nil
}

// Extract scans an HTML document for preview metadata. OpenGraph tags win
// over Twitter cards, which win over <title> and <meta name="description">.
func Extract(r io.Reader) data.Preview {
	var og, twitter, plain data.Preview
	result := func() data.Preview {
		return data.Preview{
			Title:       firstNonEmpty(og.Title, twitter.Title, plain.Title),
			Description: firstNonEmpty(og.Description, twitter.Description, plain.Description),
		}
	}

	z := html.NewTokenizer(r)
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return result()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Title:
				inTitle = plain.Title == ""
			case atom.Meta:
				key, content := metaAttrs(tok)
				switch key {
				case "og:title":
					og.Title = content
				case "og:description":
					og.Description = content
				case "twitter:title":
					twitter.Title = content
				case "twitter:description":
					twitter.Description = content
				case "description":
					plain.Description = content
				}
			case atom.Body:
				// Metadata lives in the head.
				return result()
			}
		case html.TextToken:
			if inTitle {
				plain.Title = collapseSpace(string(z.Text()))
				inTitle = false
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}

func metaAttrs(tok html.Token) (key, content string) {
	for _, attr := range tok.Attr {
		switch strings.ToLower(attr.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(attr.Val))
			}
		case "content":
			content = collapseSpace(attr.Val)
		}
	}
	return key, content
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

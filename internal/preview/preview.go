package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/neocities-go/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB

	DefaultSiteURLTemplate = "https://%s.neocities.org/"
)

// Meta is the public-facing metadata of a site's homepage.
type Meta struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// Fetcher loads a site's homepage and extracts metadata from OG tags.
type Fetcher struct {
	client      httpclient.Client
	urlTemplate string
}

// NewFetcher constructs a fetcher. urlTemplate must contain one %s for the sitename.
func NewFetcher(client httpclient.Client, urlTemplate string) *Fetcher {
	if strings.TrimSpace(urlTemplate) == "" {
		urlTemplate = DefaultSiteURLTemplate
	}
	return &Fetcher{client: client, urlTemplate: urlTemplate}
}

// SiteURL returns the public URL of sitename.
func (f *Fetcher) SiteURL(sitename string) string {
	return fmt.Sprintf(f.urlTemplate, url.PathEscape(sitename))
}

// Fetch downloads the homepage of sitename and parses its metadata.
func (f *Fetcher) Fetch(ctx context.Context, sitename string) (Meta, error) {
	if f == nil || f.client == nil {
		return Meta{}, errors.New("preview fetcher is not initialized")
	}
	sitename = strings.TrimSpace(sitename)
	if sitename == "" {
		return Meta{}, errors.New("sitename is empty")
	}

	pageURL := f.SiteURL(sitename)
	resp, err := f.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return Meta{}, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return Meta{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return Meta{}, err
	}
	meta.URL = pageURL
	meta.ImageURL = resolveURL(meta.ImageURL, pageURL)
	return meta, nil
}

func parseMeta(body []byte) (Meta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Meta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return Meta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: extract(`meta[property="og:image"]`),
	}, nil
}

// resolveURL makes ref absolute against base; unparsable input is returned unchanged.
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Package catalog implements the source catalog client: gallery search,
// gallery page expansion and per-page media address resolution.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/exmirror/gallerysync/common"
	"github.com/exmirror/gallerysync/model"
)

// Client talks to the source catalog over HTTP with a session cookie.
type Client struct {
	baseURL    string
	keyword    string
	cookie     string
	userAgent  string
	httpClient *http.Client
}

// NewClient builds a catalog client from configuration.
func NewClient(cfg common.CatalogConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		keyword:   cfg.Keyword,
		cookie:    cfg.Cookie,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

func (c *Client) getDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status code %d for %s", resp.StatusCode, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// SearchRecent returns up to pageLimit listing pages of search hits, newest
// first, as the catalog orders them.
func (c *Client) SearchRecent(ctx context.Context, pageLimit int) ([]model.DiscoveredGallery, error) {
	var galleries []model.DiscoveredGallery

	for page := 0; page < pageLimit; page++ {
		searchURL := fmt.Sprintf("%s/?f_search=%s&page=%d",
			c.baseURL, url.QueryEscape(c.keyword), page)

		doc, err := c.getDocument(ctx, searchURL)
		if err != nil {
			return nil, err
		}

		found := parseSearchPage(doc)
		if len(found) == 0 {
			log.Debug().Int("page", page).Msg("empty search page, stopping")
			break
		}
		galleries = append(galleries, found...)
	}

	log.Info().Int("count", len(galleries)).Msg("search finished")
	return galleries, nil
}

// FetchByURL looks up a single gallery by its catalog URL.
func (c *Client) FetchByURL(ctx context.Context, galleryURL string) (model.DiscoveredGallery, error) {
	doc, err := c.getDocument(ctx, galleryURL)
	if err != nil {
		return model.DiscoveredGallery{}, err
	}

	title := doc.Find("#gn").Text()
	if title == "" {
		return model.DiscoveredGallery{}, fmt.Errorf("no gallery found at %s", galleryURL)
	}

	return model.DiscoveredGallery{
		URL:   galleryURL,
		Title: title,
		Limit: true,
	}, nil
}

// ExpandToFull fetches the gallery page (and its follow-up pages) and parses
// titles, the tag mapping and the ordered image page references.
func (c *Client) ExpandToFull(ctx context.Context, g model.DiscoveredGallery) (*model.FullGalleryInfo, error) {
	doc, err := c.getDocument(ctx, g.URL)
	if err != nil {
		return nil, err
	}

	info := parseGalleryPage(doc)
	info.URL = g.URL
	if info.Title == "" {
		info.Title = g.Title
	}

	// Image page references continue across listing pages of the gallery.
	for page := 1; page < galleryPageCount(doc); page++ {
		pageURL := fmt.Sprintf("%s?p=%d", g.URL, page)
		pdoc, err := c.getDocument(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		info.ImagePages = append(info.ImagePages, parseImagePages(pdoc)...)
	}

	log.Debug().
		Str("title", info.Title).
		Int("image_pages", len(info.ImagePages)).
		Msg("expanded gallery")
	return info, nil
}

// ResolveMediaAddress loads one image page and returns the address of the
// actual media file. Fails transiently on network or parse errors.
func (c *Client) ResolveMediaAddress(ctx context.Context, pageRef string) (string, error) {
	doc, err := c.getDocument(ctx, pageRef)
	if err != nil {
		return "", err
	}

	src, ok := doc.Find("#img").Attr("src")
	if !ok || src == "" {
		return "", fmt.Errorf("no media address on page %s", pageRef)
	}
	return src, nil
}

// FetchBytes downloads the media file at addr.
func (c *Client) FetchBytes(ctx context.Context, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status code %d for %s", resp.StatusCode, addr)
	}
	return io.ReadAll(resp.Body)
}

// galleryPageCount reads the listing paginator of a gallery page. A missing
// paginator means a single page.
func galleryPageCount(doc *goquery.Document) int {
	last := doc.Find("table.ptt td").Eq(-2).Text()
	n, err := strconv.Atoi(last)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Package telegraph is a minimal client for the article host: image uploads
// and page create/edit.
package telegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://telegra.ph"

// Page is the hosted article location returned by the page API.
type Page struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Client calls the article host API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given access token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

// Upload sends one image and returns its hosted URL.
func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "image")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	// The upload endpoint answers either an error object or a source list.
	var uploaded []struct {
		Src string `json:"src"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&uploaded); err != nil || len(uploaded) == 0 {
		return "", fmt.Errorf("upload rejected (status %d)", resp.StatusCode)
	}
	return c.baseURL + uploaded[0].Src, nil
}

// CreatePage publishes a new article from HTML content and returns its
// location.
func (c *Client) CreatePage(ctx context.Context, title, htmlContent string) (Page, error) {
	content, err := contentJSON(htmlContent)
	if err != nil {
		return Page{}, err
	}
	return c.pageCall(ctx, "/createPage", url.Values{
		"access_token": {c.token},
		"title":        {title},
		"content":      {content},
	})
}

// EditPage replaces the title and content of an existing article.
func (c *Client) EditPage(ctx context.Context, path, title, htmlContent string) (Page, error) {
	content, err := contentJSON(htmlContent)
	if err != nil {
		return Page{}, err
	}
	return c.pageCall(ctx, "/editPage/"+path, url.Values{
		"access_token": {c.token},
		"title":        {title},
		"content":      {content},
	})
}

func (c *Client) pageCall(ctx context.Context, method string, form url.Values) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api"+method, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("page call failed: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return Page{}, fmt.Errorf("failed to decode page response: %w", err)
	}
	if !api.OK {
		return Page{}, fmt.Errorf("page API error: %s", api.Error)
	}

	var page Page
	if err := json.Unmarshal(api.Result, &page); err != nil {
		return Page{}, fmt.Errorf("failed to decode page: %w", err)
	}
	return page, nil
}

func contentJSON(htmlContent string) (string, error) {
	nodes, err := HTMLToNodes(htmlContent)
	if err != nil {
		return "", fmt.Errorf("failed to convert content: %w", err)
	}
	raw, err := json.Marshal(nodes)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

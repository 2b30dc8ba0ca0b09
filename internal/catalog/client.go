package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"materiais/internal/config"
)

const (
	maxDownloadAttempts = 5
	maxDownloadBytes    = 64 << 20
)

// Client downloads vendor price-list documents published over HTTP.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type Download struct {
	URL         string
	Filename    string
	ContentType string
	Content     []byte
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.PriceListTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.PriceListRateLimitRPS),
	}
}

func (c *Client) Download(ctx context.Context, rawURL string) (Download, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Download{}, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Download{}, fmt.Errorf("unsupported price list url: %s", rawURL)
	}

	var lastErr error
	for attempt := 1; attempt <= maxDownloadAttempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return Download{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return Download{}, err
		}
		if token := strings.TrimSpace(c.cfg.PriceListToken); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return Download{}, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxDownloadAttempts {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				if err := sleepContext(ctx, backoff); err != nil {
					return Download{}, err
				}
				lastErr = fmt.Errorf("price list status %d", resp.StatusCode)
				continue
			}
			return Download{}, fmt.Errorf("price list download error: status=%d url=%s", resp.StatusCode, u.String())
		}

		return Download{
			URL:         u.String(),
			Filename:    downloadFilename(u, resp.Header),
			ContentType: resp.Header.Get("Content-Type"),
			Content:     body,
		}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("price list request failed")
	}
	return Download{}, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// downloadFilename prefers the Content-Disposition name, then the last path
// segment, then an extension guessed from the content type.
func downloadFilename(u *url.URL, header http.Header) string {
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return path.Base(name)
			}
		}
	}
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." && strings.Contains(base, ".") {
		return base
	}

	mediaType, _, _ := mime.ParseMediaType(header.Get("Content-Type"))
	switch mediaType {
	case "application/pdf":
		return "lista.pdf"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "lista.xlsx"
	case "text/html":
		return "lista.html"
	default:
		return "lista.txt"
	}
}

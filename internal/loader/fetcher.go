package loader

import (
	"embed"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

//go:embed defaults/*.csv
var defaults embed.FS

// Default dataset names served by EmbeddedFetcher.
const (
	DefaultAssets  = "assets.csv"
	DefaultWeights = "weights.csv"
)

// Fetcher retrieves a reference document by location.
type Fetcher interface {
	Fetch(location string) ([]byte, error)
	Name() string
}

// FileFetcher reads local files.
type FileFetcher struct{}

func (FileFetcher) Name() string { return "file" }

func (FileFetcher) Fetch(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// EmbeddedFetcher serves the bundled default dataset.
type EmbeddedFetcher struct{}

func (EmbeddedFetcher) Name() string { return "embedded" }

func (EmbeddedFetcher) Fetch(name string) ([]byte, error) {
	b, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("embedded %s: %w", name, err)
	}
	return b, nil
}

// HTTPFetcher downloads documents over HTTP with optional proxy support.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher with a 30s timeout.
func NewHTTPFetcher(proxyURL string) *HTTPFetcher {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(2)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &HTTPFetcher{client: client}
}

func (h *HTTPFetcher) Name() string { return "http" }

func (h *HTTPFetcher) Fetch(url string) ([]byte, error) {
	resp, err := h.client.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

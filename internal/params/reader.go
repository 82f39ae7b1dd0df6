package params

import (
	"fmt"
	"os"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"

	"CostOfCapital/internal/model"
)

// Fetcher retrieves a remote document.
type Fetcher interface {
	Fetch(url string) ([]byte, error)
}

// ReadAdjustment loads an adjustment from a local file, an http(s) URL or
// inline JSON text. An empty source is the empty adjustment. The document is
// parsed leniently, so comments and trailing commas are accepted.
func ReadAdjustment(src string, fetcher Fetcher) (Adjustment, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Adjustment{}, nil
	}

	var data []byte
	switch {
	case strings.HasPrefix(src, "{"):
		data = []byte(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		if fetcher == nil {
			return nil, fmt.Errorf("no fetcher configured for %s", src)
		}
		b, err := fetcher.Fetch(src)
		if err != nil {
			return nil, fmt.Errorf("fetch adjustment: %w", err)
		}
		data = b
	default:
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read adjustment: %w", err)
		}
		data = b
	}
	return ParseAdjustment(data)
}

// ParseAdjustment decodes an adjustment document. A section whose value is
// not an object is reported as a validation error.
func ParseAdjustment(data []byte) (Adjustment, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Adjustment{}, nil
	}
	var raw map[string]any
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse adjustment: %w", err)
	}

	adj := make(Adjustment, len(raw))
	var errs model.ValidationErrors
	for section, body := range raw {
		params, ok := body.(map[string]any)
		if !ok {
			errs = append(errs, model.ValidationError{Section: section, Reason: "section must be an object"})
			continue
		}
		adj[section] = params
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return adj, nil
}

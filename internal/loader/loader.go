// Package loader reads the asset table and capital-stock weights from local
// files, remote URLs or the bundled default dataset.
package loader

import (
	"fmt"
	"log"
	"strings"

	"CostOfCapital/internal/model"
)

// Dataset is the reference data for a run.
type Dataset struct {
	Assets   []model.Asset
	Weights  *Weights
	Warnings []*model.DataError
}

// Loader resolves data locations and parses the documents.
type Loader struct {
	Local  Fetcher
	Remote Fetcher
}

// NewLoader creates a Loader reading local files and fetching URLs with remote.
func NewLoader(remote Fetcher) *Loader {
	return &Loader{Local: FileFetcher{}, Remote: remote}
}

// Load reads both tables. An empty location selects the bundled default.
func (l *Loader) Load(assetsLoc, weightsLoc string) (*Dataset, error) {
	data, src, err := l.read(assetsLoc, DefaultAssets)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	assets, warnings, err := ParseAssets(src, data)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	for _, w := range warnings {
		log.Printf("[WARN] %v", w)
	}

	data, src, err = l.read(weightsLoc, DefaultWeights)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	weights, err := ParseWeights(src, data, assets)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}

	log.Printf("[INFO] loaded %d assets, %d industries from %s", len(assets), len(weights.Industries), src)
	return &Dataset{Assets: assets, Weights: weights, Warnings: warnings}, nil
}

func (l *Loader) read(location, fallback string) ([]byte, string, error) {
	var f Fetcher
	switch {
	case location == "":
		f, location = EmbeddedFetcher{}, fallback
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if l.Remote == nil {
			return nil, location, fmt.Errorf("no remote fetcher for %s", location)
		}
		f = l.Remote
	default:
		f = l.Local
		if f == nil {
			f = FileFetcher{}
		}
	}
	data, err := f.Fetch(location)
	if err != nil {
		return nil, location, err
	}
	return data, f.Name() + ":" + location, nil
}

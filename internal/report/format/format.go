// Package format names the report output formats.
package format

import (
	"fmt"
	"strings"
)

const (
	CSV  = "csv"
	XLSX = "xlsx"
	JSON = "json"
)

// Parse splits a comma-separated format list, dropping blanks and repeats.
func Parse(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		switch f {
		case CSV, XLSX, JSON:
		default:
			return nil, fmt.Errorf("unknown output format %q", f)
		}
		seen[f] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no output format in %q", s)
	}
	return out, nil
}

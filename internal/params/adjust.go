package params

import (
	"fmt"
	"math"
	"sort"

	"CostOfCapital/internal/model"
)

// Section names accepted at the top level of an adjustment.
const (
	SectionCCC      = "ccc"
	sectionBusiness = "Business Tax Parameters"
)

// shareTolerance bounds how far portfolio shares may drift from summing to 1.
const shareTolerance = 1e-9

// Adjustment maps section -> parameter -> value. A value is a scalar or a
// list of {"year": Y, "value": V} objects.
type Adjustment map[string]map[string]any

// Empty reports whether the adjustment changes nothing.
func (a Adjustment) Empty() bool {
	for _, params := range a {
		if len(params) > 0 {
			return false
		}
	}
	return true
}

// shareGroups lists parameters whose values must sum to one in every year.
var shareGroups = [][]string{
	{"alpha_c_e_ft", "alpha_c_e_td", "alpha_c_e_nt"},
	{"alpha_c_d_ft", "alpha_c_d_td", "alpha_c_d_nt"},
	{"alpha_nc_d_ft", "alpha_nc_d_td", "alpha_nc_d_nt"},
	{"alpha_h_d_ft", "alpha_h_d_td", "alpha_h_d_nt"},
	{"omega_scg", "omega_lcg", "omega_xcg"},
}

// ApplyAdjustment validates adj against base and returns the adjusted schema.
// Application is atomic: when any error is found the returned schema is base
// and every error is reported.
//
// A scalar value replaces the parameter for all years. A year entry sets the
// value from that year onward, replacing later baseline entries that the
// adjustment does not itself set.
func ApplyAdjustment(base *Schema, adj Adjustment) (*Schema, model.ValidationErrors) {
	var errs model.ValidationErrors
	next := base.clone()

	sections := make([]string, 0, len(adj))
	for section := range adj {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	for _, section := range sections {
		if section != SectionCCC && section != sectionBusiness {
			errs = append(errs, model.ValidationError{Section: section, Reason: "unknown section"})
			continue
		}
		names := make([]string, 0, len(adj[section]))
		for name := range adj[section] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			p, ok := next.params[name]
			if !ok {
				errs = append(errs, model.ValidationError{Section: section, Param: name, Reason: "unknown parameter"})
				continue
			}
			values, reason := p.normalize(adj[section][name])
			if reason != "" {
				errs = append(errs, model.ValidationError{Section: section, Param: name, Reason: reason})
				continue
			}
			if _, isList := adj[section][name].([]any); !isList {
				p.Values = values
				continue
			}
			p.Values = mergeYears(p.Values, values)
		}
	}

	for _, group := range shareGroups {
		if err := checkShares(next, group); err != nil {
			errs = append(errs, *err)
		}
	}

	if len(errs) > 0 {
		return base, errs
	}
	return next, nil
}

// mergeYears overlays adjusted year entries on the baseline schedule. Each
// adjusted entry clears baseline entries up to the next adjusted year.
func mergeYears(base, adjusted []YearValue) []YearValue {
	first := adjusted[0].Year
	out := make([]YearValue, 0, len(base)+len(adjusted))
	for _, yv := range base {
		if yv.Year < first {
			out = append(out, yv)
		}
	}
	if len(out) == 0 && first > StartYear {
		// keep the baseline value in effect before the first adjusted year
		prev := &Param{Values: base}
		out = append(out, YearValue{Year: StartYear, Value: prev.At(first - 1)})
	}
	return append(out, adjusted...)
}

func checkShares(s *Schema, group []string) *model.ValidationError {
	for year := StartYear; year <= EndYear; year++ {
		sum := 0.0
		for _, name := range group {
			p, ok := s.params[name]
			if !ok {
				return nil
			}
			f, _ := p.At(year).(float64)
			sum += f
		}
		if math.Abs(sum-1) > shareTolerance {
			return &model.ValidationError{
				Section: SectionCCC,
				Param:   group[0],
				Reason:  fmt.Sprintf("shares %v sum to %.12g in %d, want 1", group, sum, year),
			}
		}
	}
	return nil
}

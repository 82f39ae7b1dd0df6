// Package params holds the policy parameter schema, its year-indexed
// defaults and the validated application of reform adjustments.
package params

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Run years covered by the schema.
const (
	StartYear   = 2014
	EndYear     = 2035
	DefaultYear = 2026
)

//go:embed defaults.json
var defaultsJSON []byte

// Kind is the declared type of a parameter.
type Kind string

const (
	KindFloat Kind = "float"
	KindInt   Kind = "int"
	KindBool  Kind = "bool"
	KindStr   Kind = "str"
)

// RangeValidator bounds a numeric parameter, inclusive.
type RangeValidator struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ChoiceValidator restricts a string parameter to a fixed set.
type ChoiceValidator struct {
	Choices []string `json:"choices"`
}

// Validators attached to a parameter.
type Validators struct {
	Range  *RangeValidator  `json:"range,omitempty"`
	Choice *ChoiceValidator `json:"choice,omitempty"`
}

// YearValue is a value that takes effect in Year and extends forward.
type YearValue struct {
	Year  int `json:"year"`
	Value any `json:"value"`
}

// Param is one schema record. Values are sorted by year; the first entry
// also applies to years before it.
type Param struct {
	Name        string      `json:"-"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Section     string      `json:"section"`
	Type        Kind        `json:"type"`
	Values      []YearValue `json:"-"`
	Validators  Validators  `json:"validators"`
}

type paramJSON struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Section     string          `json:"section"`
	Type        Kind            `json:"type"`
	Value       json.RawMessage `json:"value"`
	Validators  Validators      `json:"validators"`
}

// At returns the value in effect for year.
func (p *Param) At(year int) any {
	v := p.Values[0].Value
	for _, yv := range p.Values {
		if yv.Year > year {
			break
		}
		v = yv.Value
	}
	return v
}

func (p *Param) clone() *Param {
	cp := *p
	cp.Values = append([]YearValue(nil), p.Values...)
	return &cp
}

// Schema is the full set of known parameters with their current values.
// A Schema is not modified after construction; adjustments produce a copy.
type Schema struct {
	params map[string]*Param
	names  []string
}

// LoadSchema returns the embedded baseline schema.
func LoadSchema() (*Schema, error) {
	return ParseSchema(defaultsJSON)
}

// ParseSchema decodes a schema document keyed by parameter name.
func ParseSchema(data []byte) (*Schema, error) {
	var raw map[string]paramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	s := &Schema{params: make(map[string]*Param, len(raw))}
	for name, pj := range raw {
		p := &Param{
			Name:        name,
			Title:       pj.Title,
			Description: pj.Description,
			Section:     pj.Section,
			Type:        pj.Type,
			Validators:  pj.Validators,
		}
		var decoded any
		if err := json.Unmarshal(pj.Value, &decoded); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", name, err)
		}
		values, reason := p.normalize(decoded)
		if reason != "" {
			return nil, fmt.Errorf("schema %s: %s", name, reason)
		}
		p.Values = values
		s.params[name] = p
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Names returns all parameter names in sorted order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Param returns the schema record for name.
func (s *Schema) Param(name string) (*Param, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Lookup returns the value of name in effect for year.
func (s *Schema) Lookup(name string, year int) (any, error) {
	p, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("unknown parameter %q", name)
	}
	return p.At(year), nil
}

// Dump returns every parameter value in effect for year.
func (s *Schema) Dump(year int) map[string]any {
	out := make(map[string]any, len(s.names))
	for _, name := range s.names {
		out[name] = s.params[name].At(year)
	}
	return out
}

func (s *Schema) clone() *Schema {
	cp := &Schema{params: make(map[string]*Param, len(s.params)), names: s.names}
	for name, p := range s.params {
		cp.params[name] = p.clone()
	}
	return cp
}

// normalize converts a decoded scalar or year list into sorted typed values.
// It returns a non-empty reason when the value is malformed or invalid.
func (p *Param) normalize(v any) ([]YearValue, string) {
	list, isList := v.([]any)
	if !isList {
		val, reason := p.coerce(v)
		if reason != "" {
			return nil, reason
		}
		return []YearValue{{Year: StartYear, Value: val}}, ""
	}
	if len(list) == 0 {
		return nil, "empty value list"
	}
	out := make([]YearValue, 0, len(list))
	seen := make(map[int]bool, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Sprintf("entry %d: expected {year, value} object", i)
		}
		rawYear, ok := entry["year"].(float64)
		if !ok || rawYear != math.Trunc(rawYear) {
			return nil, fmt.Sprintf("entry %d: year must be an integer", i)
		}
		year := int(rawYear)
		if year < StartYear || year > EndYear {
			return nil, fmt.Sprintf("entry %d: year %d outside %d-%d", i, year, StartYear, EndYear)
		}
		if seen[year] {
			return nil, fmt.Sprintf("entry %d: duplicate year %d", i, year)
		}
		seen[year] = true
		raw, ok := entry["value"]
		if !ok {
			return nil, fmt.Sprintf("entry %d: missing value", i)
		}
		val, reason := p.coerce(raw)
		if reason != "" {
			return nil, fmt.Sprintf("year %d: %s", year, reason)
		}
		out = append(out, YearValue{Year: year, Value: val})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, ""
}

// coerce checks a decoded JSON value against the parameter type and
// validators and returns it as float64, bool or string.
func (p *Param) coerce(v any) (any, string) {
	switch p.Type {
	case KindFloat, KindInt:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Sprintf("expected %s, got %T", p.Type, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, "value must be finite"
		}
		if p.Type == KindInt && f != math.Trunc(f) {
			return nil, fmt.Sprintf("expected integer, got %g", f)
		}
		if r := p.Validators.Range; r != nil && (f < r.Min || f > r.Max) {
			return nil, fmt.Sprintf("value %g outside range [%g, %g]", f, r.Min, r.Max)
		}
		return f, ""
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, ""
		case float64:
			if b == 0 || b == 1 {
				return b == 1, ""
			}
		case string:
			if b == "true" || b == "false" {
				return b == "true", ""
			}
		}
		return nil, fmt.Sprintf("expected bool, got %v", v)
	case KindStr:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Sprintf("expected string, got %T", v)
		}
		if c := p.Validators.Choice; c != nil {
			for _, choice := range c.Choices {
				if str == choice {
					return str, ""
				}
			}
			return nil, fmt.Sprintf("value %q not in %v", str, c.Choices)
		}
		return str, ""
	}
	return nil, fmt.Sprintf("unknown parameter type %q", p.Type)
}

package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"CostOfCapital/internal/model"
)

var (
	assetColumns  = []string{"bea_asset_code", "asset_name", "delta", "tax_method", "recovery_period", "convention", "bonus_fraction"}
	weightColumns = []string{"bea_asset_code", "industry_code", "capital_stock"}
)

// table is a parsed CSV document with named columns.
type table struct {
	source string
	cols   map[string]int
	rows   [][]string
}

func readTable(source string, data []byte, required []string) (*table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &model.DataError{Source: source, Msg: fmt.Sprintf("read header: %v", err)}
	}
	t := &table{source: source, cols: make(map[string]int, len(header))}
	for i, h := range header {
		t.cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range required {
		if _, ok := t.cols[c]; !ok {
			return nil, &model.DataError{Source: source, Msg: fmt.Sprintf("missing column %q", c)}
		}
	}

	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &model.DataError{Source: source, Row: row, Msg: err.Error()}
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) != len(header) {
			return nil, &model.DataError{Source: source, Row: row,
				Msg: fmt.Sprintf("expected %d columns, got %d", len(header), len(record))}
		}
		t.rows = append(t.rows, record)
	}
	if len(t.rows) == 0 {
		return nil, &model.DataError{Source: source, Msg: "no data rows"}
	}
	return t, nil
}

// get returns the trimmed value of column name, or "" if the column is absent.
func (t *table) get(rec []string, name string) string {
	i, ok := t.cols[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (t *table) float(rec []string, row int, name string, optional bool) (float64, error) {
	s := t.get(rec, name)
	if s == "" && optional {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &model.DataError{Source: t.source, Row: row, Msg: fmt.Sprintf("parse %s %q", name, s)}
	}
	return v, nil
}

// ParseAssets decodes the asset table. Fatal problems are returned as a
// *model.DataError; recoverable ones are returned as warnings.
func ParseAssets(source string, data []byte) ([]model.Asset, []*model.DataError, error) {
	t, err := readTable(source, data, assetColumns)
	if err != nil {
		return nil, nil, err
	}

	var (
		assets   = make([]model.Asset, 0, len(t.rows))
		warnings []*model.DataError
		seen     = make(map[string]bool, len(t.rows))
	)
	for i, rec := range t.rows {
		row := i + 1
		a := model.Asset{
			Code:       t.get(rec, "bea_asset_code"),
			Name:       t.get(rec, "asset_name"),
			Method:     model.TaxMethod(t.get(rec, "tax_method")),
			Convention: model.Convention(strings.ToUpper(t.get(rec, "convention"))),
			MajorGroup: t.get(rec, "major_asset_group"),
		}
		if a.Code == "" {
			return nil, nil, &model.DataError{Source: source, Row: row, Msg: "empty bea_asset_code"}
		}
		if seen[a.Code] {
			return nil, nil, &model.DataError{Source: source, Row: row, Msg: fmt.Sprintf("duplicate asset %s", a.Code)}
		}
		seen[a.Code] = true

		if a.Delta, err = t.float(rec, row, "delta", false); err != nil {
			return nil, nil, err
		}
		if a.Life, err = t.float(rec, row, "recovery_period", false); err != nil {
			return nil, nil, err
		}
		if a.Bonus, err = t.float(rec, row, "bonus_fraction", true); err != nil {
			return nil, nil, err
		}
		if a.ADSLife, err = t.float(rec, row, "ads_life", true); err != nil {
			return nil, nil, err
		}
		period, err := t.float(rec, row, "placement_period", true)
		if err != nil {
			return nil, nil, err
		}
		a.Period = int(period)
		if s := t.get(rec, "real_property"); s != "" {
			if a.RealProperty, err = strconv.ParseBool(s); err != nil {
				return nil, nil, &model.DataError{Source: source, Row: row, Msg: fmt.Sprintf("parse real_property %q", s)}
			}
		}
		if a.MajorGroup == "" {
			a.MajorGroup = "Other"
		}

		if msg := validateAsset(a); msg != "" {
			return nil, nil, &model.DataError{Source: source, Row: row, Msg: fmt.Sprintf("asset %s: %s", a.Code, msg)}
		}
		if a.Convention == model.MidMonth && !a.RealProperty {
			warnings = append(warnings, &model.DataError{Source: source, Row: row, Warning: true,
				Msg: fmt.Sprintf("asset %s: mid-month convention requires real property, using half-year", a.Code)})
			a.Convention, a.Period = model.HalfYear, 0
		}
		assets = append(assets, a)
	}
	return assets, warnings, nil
}

func validateAsset(a model.Asset) string {
	if a.Delta < 0 || a.Delta > 1 {
		return fmt.Sprintf("delta %g outside [0, 1]", a.Delta)
	}
	if a.Bonus < 0 || a.Bonus > 1 {
		return fmt.Sprintf("bonus_fraction %g outside [0, 1]", a.Bonus)
	}
	known := false
	for _, m := range model.TaxMethods {
		if a.Method == m {
			known = true
			break
		}
	}
	if !known {
		return fmt.Sprintf("unknown tax_method %q", a.Method)
	}
	switch a.Method {
	case model.MethodExpensing, model.MethodLand, model.MethodInventory, model.MethodEconomic:
		if a.Life < 0 {
			return fmt.Sprintf("recovery_period %g is negative", a.Life)
		}
	default:
		if a.Life <= 0 {
			return fmt.Sprintf("recovery_period %g must be positive", a.Life)
		}
	}
	switch a.Convention {
	case model.HalfYear:
	case model.MidQuarter:
		if a.Period < 0 || a.Period > 4 {
			return fmt.Sprintf("placement quarter %d outside 0-4", a.Period)
		}
	case model.MidMonth:
		if a.Period < 0 || a.Period > 12 {
			return fmt.Sprintf("placement month %d outside 0-12", a.Period)
		}
	default:
		return fmt.Sprintf("unknown convention %q", a.Convention)
	}
	return ""
}

package pipeline

import (
	"fmt"
	"math"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/loader"
	"CostOfCapital/internal/model"
)

// coverageTol is the relative tolerance between a table weight and the
// capital stock it should carry.
const coverageTol = 1e-9

// checkCoverage verifies that the mix-financed aggregate rows carry exactly
// the capital stock in w: each entity total and every asset and industry
// subtotal.
func checkCoverage(t aggregate.Tables, w *loader.Weights) error {
	for _, e := range model.Entities {
		total := w.Total(e)
		if total == 0 {
			continue
		}
		if err := covers(t[aggregate.ByEntity], model.OverallKey, e, total); err != nil {
			return err
		}
		for i, stock := range w.RowSums(e) {
			if stock > 0 {
				if err := covers(t[aggregate.ByAsset], w.Assets[i], e, stock); err != nil {
					return err
				}
			}
		}
		for j, stock := range w.ColSums(e) {
			if stock > 0 {
				if err := covers(t[aggregate.ByIndustry], w.Industries[j], e, stock); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func covers(t aggregate.Table, key string, e model.Entity, stock float64) error {
	row, ok := t.Row(key, e, model.Mix)
	if !ok {
		return fmt.Errorf("%s table: no %s row %q for capital stock %g", t.Name, e, key, stock)
	}
	if math.Abs(row.Weight-stock) > coverageTol*stock {
		return fmt.Errorf("%s table: %s row %q weighs %g, capital stock is %g", t.Name, e, key, row.Weight, stock)
	}
	return nil
}

package report

import (
	"fmt"
	"math"
	"strings"

	"CostOfCapital/internal/aggregate"
	"CostOfCapital/internal/compare"
	"CostOfCapital/internal/model"
)

var summaryEntities = []model.Entity{model.Business, model.Corporate, model.NonCorporate, model.Housing}

// FormatSummary formats the overall change of variable for every entity and
// financing source.
func FormatSummary(c *compare.Comparison, variable string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Cost of capital comparison | %d | %s\n", c.Baseline.Year, c.ID))
	b.WriteString(fmt.Sprintf("Overall %s, baseline -> reform (change)\n", variable))

	for _, e := range summaryEntities {
		wrote := false
		for _, f := range model.Financings {
			d, ok := c.Find(aggregate.ByEntity, model.OverallKey, e, f, variable)
			if !ok {
				continue
			}
			if !wrote {
				b.WriteString(fmt.Sprintf("\n%s\n", e.Label()))
				wrote = true
			}
			b.WriteString(fmt.Sprintf("  %-20s %s -> %s (%s)\n",
				f.Label(), percent(d.Baseline), percent(d.Reform), points(d.ChangePP)))
		}
	}
	return b.String()
}

func percent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func points(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f pp", v)
}

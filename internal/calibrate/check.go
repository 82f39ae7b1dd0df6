package calibrate

import (
	"fmt"

	"CostOfCapital/internal/model"
	"CostOfCapital/internal/params"
)

// Check calibrates sp and reports the parameter combinations the calculator
// cannot evaluate: a negative firm discount rate or a saver return outside
// the log domain.
func Check(sp params.Specification) model.ValidationErrors {
	rates, err := Calibrate(sp)
	var errs model.ValidationErrors
	if err != nil || rates.Flag == model.FlagLogDomain {
		errs = append(errs, model.ValidationError{
			Section: params.SectionCCC,
			Reason:  fmt.Sprintf("year %d: holding-period tax rates leave an after-tax return undefined", sp.Year),
		})
	}
	for _, ent := range model.Entities {
		for _, fin := range model.Financings {
			if r := rates.R[Key{ent, fin}]; r < 0 {
				errs = append(errs, model.ValidationError{
					Section: params.SectionCCC,
					Reason:  fmt.Sprintf("year %d: discount rate for %s/%s is negative (%.4f)", sp.Year, ent, fin, r),
				})
			}
		}
	}
	return errs
}

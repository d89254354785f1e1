package demo

// industryMultipliers is the fixed marketing table behind the ROI widget.
var industryMultipliers = map[string]float64{
	"Finance":    1.4,
	"Healthcare": 1.2,
	"AI & ML":    1.5,
	"Energy":     1.3,
}

const defaultMultiplier = 1.0

// IndustryMultiplier returns the uplift factor for a named industry, or 1.0
// for anything not in the table.
func IndustryMultiplier(industry string) float64 {
	if m, ok := industryMultipliers[industry]; ok {
		return m
	}
	return defaultMultiplier
}

// EstimateROI is the hub screen's back-of-the-envelope savings estimate:
// budget × 15% × a company-size factor capped at 3 × the industry uplift.
// Pure arithmetic, no state.
func EstimateROI(annualBudget, companySize float64, industry string) float64 {
	sizeFactor := companySize / 50
	if sizeFactor > 3 {
		sizeFactor = 3
	}
	return annualBudget * 0.15 * sizeFactor * IndustryMultiplier(industry)
}

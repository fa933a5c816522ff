package recommend

import (
	"fmt"

	"github.com/marocz/wearguard/server/internal/features"
	"github.com/marocz/wearguard/server/internal/risk"
)

// Severity ranks how urgent a recommendation is.
type Severity string

// Severity values.
const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Add-on trigger thresholds. A value must exceed the threshold to fire.
const (
	ToolWearLimitMin = 200.0
	TorqueLimitNm    = 60.0
	TempDiffLimitK   = 12.0
)

// Recommendation is one suggested maintenance action.
type Recommendation struct {
	// ID is a stable machine-readable identifier.
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Features carries the raw readings the add-on rules look at.
// A zero field behaves like an absent reading and never fires a rule.
type Features struct {
	ToolWearMin float64
	TorqueNm    float64
	TempDiffK   float64
}

// FromReading extracts rule inputs from a sensor reading. The temperature
// difference is always recomputed from the two temperatures.
func FromReading(r features.Reading) Features {
	return Features{
		ToolWearMin: r.ToolWearMin,
		TorqueNm:    r.TorqueNm,
		TempDiffK:   r.TempDiff(),
	}
}

// baseline lists the fixed actions for each band, in output order.
var baseline = map[risk.Band][]Recommendation{
	risk.Green: {
		{
			ID:          "routine_monitoring",
			Title:       "Continue routine monitoring",
			Severity:    SeverityLow,
			Description: "Failure risk is low. Keep the regular monitoring schedule and review readings at the next planned check.",
		},
	},
	risk.Yellow: {
		{
			ID:          "plan_inspection",
			Title:       "Plan an inspection",
			Severity:    SeverityMedium,
			Description: "Failure risk is elevated. Schedule an inspection within the next maintenance window.",
		},
		{
			ID:          "increase_sampling",
			Title:       "Increase sensor sampling",
			Severity:    SeverityMedium,
			Description: "Sample this machine's sensors more often until the risk level drops back to Green.",
		},
	},
	risk.Red: {
		{
			ID:          "urgent_shutdown",
			Title:       "Schedule an urgent shutdown",
			Severity:    SeverityHigh,
			Description: "Failure is likely. Stop the machine at the earliest safe opportunity and inspect it before restarting.",
		},
		{
			ID:          "check_spare_parts",
			Title:       "Check spare parts",
			Severity:    SeverityHigh,
			Description: "Confirm replacement tools and parts are in stock so the repair is not delayed.",
		},
	},
}

// Recommend returns the baseline actions for the band of probability p,
// followed by any add-ons triggered by f.
func Recommend(f Features, p float64) []Recommendation {
	base := baseline[risk.BandOf(p)]
	out := make([]Recommendation, 0, len(base)+3)
	out = append(out, base...)

	if f.ToolWearMin > ToolWearLimitMin {
		out = append(out, Recommendation{
			ID:       "replace_tool",
			Title:    "Replace the cutting tool",
			Severity: SeverityMedium,
			Description: fmt.Sprintf(
				"Tool wear is %.1f min, above the %.0f min limit. Replace the tool before the next run.",
				f.ToolWearMin, ToolWearLimitMin),
		})
	}
	if f.TorqueNm > TorqueLimitNm {
		out = append(out, Recommendation{
			ID:       "review_load",
			Title:    "Review machine load",
			Severity: SeverityMedium,
			Description: fmt.Sprintf(
				"Torque is %.1f Nm, above the %.0f Nm limit. Check the workload and feed rate for overload.",
				f.TorqueNm, TorqueLimitNm),
		})
	}
	if f.TempDiffK > TempDiffLimitK {
		out = append(out, Recommendation{
			ID:       "cooling_check",
			Title:    "Check the cooling system",
			Severity: SeverityMedium,
			Description: fmt.Sprintf(
				"Process runs %.1f K above air temperature, more than the %.0f K limit. Inspect coolant flow and heat dissipation.",
				f.TempDiffK, TempDiffLimitK),
		})
	}

	return out
}

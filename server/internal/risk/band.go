package risk

// Band is a coarse risk level for operator consumption.
type Band string

// Band values, lowest risk first.
const (
	Green  Band = "Green"
	Yellow Band = "Yellow"
	Red    Band = "Red"
)

// Thresholds are inclusive lower bounds of the upper bands.
const (
	ThresholdYellow = 0.10
	ThresholdRed    = 0.50
)

// Bands lists every band in ascending order.
var Bands = []Band{Green, Yellow, Red}

// BandOf maps a failure probability to its band.
//
// NaN compares false against both thresholds and falls through to Red; the
// predict pipeline rejects non-finite probabilities before calling this.
func BandOf(p float64) Band {
	switch {
	case p < ThresholdYellow:
		return Green
	case p < ThresholdRed:
		return Yellow
	default:
		return Red
	}
}

// Rank returns the band's position in the total order (Green = 0).
// Unknown bands rank -1.
func (b Band) Rank() int {
	for i, x := range Bands {
		if x == b {
			return i
		}
	}
	return -1
}

// AtLeast reports whether b is the same as or riskier than other.
func (b Band) AtLeast(other Band) bool {
	return b.Rank() >= other.Rank()
}

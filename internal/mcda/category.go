package mcda

// Category is the suitability band of a composite score.
type Category string

// Suitability bands, best first.
const (
	CategoryExcellent Category = "A - Excellent"
	CategoryGood      Category = "B - Good"
	CategoryFair      Category = "C - Fair"
	CategoryPoor      Category = "D - Poor"
)

// Band lower bounds on the [0,100] composite scale (inclusive).
const (
	excellentThreshold = 80.0
	goodThreshold      = 60.0
	fairThreshold      = 40.0
)

// Categories lists every band in order.
var Categories = []Category{CategoryExcellent, CategoryGood, CategoryFair, CategoryPoor}

// Categorize returns the band for a composite score.
// Rules:
//   - A: score >= 80
//   - B: score >= 60
//   - C: score >= 40
//   - D: otherwise
func Categorize(score float64) Category {
	switch {
	case score >= excellentThreshold:
		return CategoryExcellent
	case score >= goodThreshold:
		return CategoryGood
	case score >= fairThreshold:
		return CategoryFair
	default:
		return CategoryPoor
	}
}

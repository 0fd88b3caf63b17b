package results

// Grade labels follow the scale the reporting frontend displays.
const (
	GradeExcellent = "ممتاز"
	GradeVeryGood  = "جيد جداً"
	GradeGood      = "جيد"
	GradePass      = "مقبول"
	GradeWeak      = "ضعيف"
)

// PassThreshold is the minimum average counted as a pass in rollups.
const PassThreshold = 60.0

// gradeOrder fixes the display order of distribution buckets.
var gradeOrder = []string{GradeExcellent, GradeVeryGood, GradeGood, GradePass, GradeWeak}

// GradeFor derives the grade label for an average on the 0-100 scale.
func GradeFor(average float64) string {
	switch {
	case average >= 85:
		return GradeExcellent
	case average >= 75:
		return GradeVeryGood
	case average >= 65:
		return GradeGood
	case average >= 50:
		return GradePass
	default:
		return GradeWeak
	}
}

// gradeRank returns the position of a grade label in the canonical
// order; unknown labels sort after the known ones.
func gradeRank(grade string) int {
	for i, g := range gradeOrder {
		if g == grade {
			return i
		}
	}
	return len(gradeOrder)
}

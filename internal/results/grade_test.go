package results

import "testing"

func TestGradeFor(t *testing.T) {
	tests := []struct {
		average float64
		want    string
	}{
		{100, GradeExcellent},
		{85, GradeExcellent},
		{84.9, GradeVeryGood},
		{75, GradeVeryGood},
		{74.9, GradeGood},
		{65, GradeGood},
		{64.9, GradePass},
		{50, GradePass},
		{49.9, GradeWeak},
		{0, GradeWeak},
	}

	for _, tt := range tests {
		if got := GradeFor(tt.average); got != tt.want {
			t.Errorf("GradeFor(%v) = %q, want %q", tt.average, got, tt.want)
		}
	}
}

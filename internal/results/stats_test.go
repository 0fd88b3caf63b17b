package results

import (
	"testing"
)

func record(id, name string, average float64) StudentRecord {
	return StudentRecord{
		StudentID: id,
		Name:      name,
		Average:   average,
		Grade:     GradeFor(average),
	}
}

func TestOverview(t *testing.T) {
	records := []StudentRecord{
		record("1", "Ali", 90.4),
		record("2", "Sara", 70.6),
		record("3", "Omar", 50),
	}

	got := Overview(records)

	if got.TotalStudents != 3 {
		t.Errorf("total = %d, want 3", got.TotalStudents)
	}
	if got.HighestScore != 90 {
		t.Errorf("highest = %d, want 90", got.HighestScore)
	}
	if got.LowestScore != 50 {
		t.Errorf("lowest = %d, want 50", got.LowestScore)
	}
	// (90.4 + 70.6 + 50) / 3 = 70.33... rounds to 70
	if got.AverageScore != 70 {
		t.Errorf("average = %d, want 70", got.AverageScore)
	}
}

func TestOverview_Empty(t *testing.T) {
	got := Overview(nil)
	if got != (OverviewStats{}) {
		t.Errorf("empty overview = %+v, want zeros", got)
	}
}

func TestGradeDistribution(t *testing.T) {
	records := []StudentRecord{
		record("1", "Ali", 90),
		record("2", "Sara", 88),
		record("3", "Omar", 70),
		record("4", "Mona", 40),
	}

	buckets := GradeDistribution(records)

	if len(buckets) != 3 {
		t.Fatalf("buckets = %+v, want 3", buckets)
	}
	// Canonical order: excellent first, weak last.
	if buckets[0].Grade != GradeExcellent || buckets[0].Count != 2 {
		t.Errorf("bucket[0] = %+v", buckets[0])
	}
	if buckets[0].Percentage != 50 {
		t.Errorf("percentage = %v, want 50", buckets[0].Percentage)
	}
	if buckets[2].Grade != GradeWeak || buckets[2].Count != 1 {
		t.Errorf("bucket[2] = %+v", buckets[2])
	}
}

func TestGradeDistribution_Empty(t *testing.T) {
	if got := GradeDistribution(nil); len(got) != 0 {
		t.Errorf("empty distribution = %+v, want []", got)
	}
}

func TestTopN_StableTies(t *testing.T) {
	records := []StudentRecord{
		record("1", "Ali", 95),
		record("2", "Sara", 98),
		record("3", "Omar", 95),
		record("4", "Mona", 80),
	}

	top := TopN(records, 2)

	if len(top) != 2 {
		t.Fatalf("top = %+v, want 2 entries", top)
	}
	if top[0].StudentID != "2" {
		t.Errorf("top[0] = %s, want 2", top[0].StudentID)
	}
	// Ali and Omar tie at 95; insertion order breaks the tie.
	if top[1].StudentID != "1" {
		t.Errorf("top[1] = %s, want 1", top[1].StudentID)
	}

	// The input slice is never reordered.
	if records[0].StudentID != "1" || records[1].StudentID != "2" {
		t.Error("TopN mutated its input")
	}
}

func TestTopN_Bounds(t *testing.T) {
	records := []StudentRecord{record("1", "Ali", 95)}

	if got := TopN(records, 0); len(got) != 0 {
		t.Errorf("n=0 returned %d records", len(got))
	}
	if got := TopN(records, 10); len(got) != 1 {
		t.Errorf("n>len returned %d records, want 1", len(got))
	}
	if got := TopN(nil, 5); len(got) != 0 {
		t.Errorf("empty input returned %d records", len(got))
	}
}

func TestSchoolSummaries(t *testing.T) {
	mk := func(id string, avg float64, school string) StudentRecord {
		r := record(id, "Student "+id, avg)
		r.SchoolName = school
		r.Region = "Cairo"
		return r
	}

	records := []StudentRecord{
		mk("1", 90, "Alpha"),
		mk("2", 50, "Alpha"),
		mk("3", 70, "Beta"),
	}

	summaries := SchoolSummaries(records)

	if len(summaries) != 2 {
		t.Fatalf("summaries = %+v, want 2", summaries)
	}
	// Larger school first.
	alpha := summaries[0]
	if alpha.SchoolName != "Alpha" || alpha.Count != 2 {
		t.Fatalf("summary[0] = %+v", alpha)
	}
	if alpha.Average != 70 {
		t.Errorf("alpha average = %v, want 70", alpha.Average)
	}
	// One of two students passes the 60 threshold.
	if alpha.PassRate != 0.5 {
		t.Errorf("alpha pass rate = %v, want 0.5", alpha.PassRate)
	}
	if alpha.Lowest != 50 || alpha.Highest != 90 {
		t.Errorf("alpha extremes = %v..%v", alpha.Lowest, alpha.Highest)
	}
}

func TestSubjectSummaries(t *testing.T) {
	records := []StudentRecord{
		{StudentID: "1", Name: "Ali", Subjects: []Subject{{Name: "math", Score: 90}, {Name: "science", Score: 80}}},
		{StudentID: "2", Name: "Sara", Subjects: []Subject{{Name: "math", Score: 70}}},
	}

	summaries := SubjectSummaries(records)

	if len(summaries) != 2 {
		t.Fatalf("summaries = %+v, want 2", summaries)
	}
	// First-seen order is preserved.
	if summaries[0].Name != "math" {
		t.Errorf("summary[0] = %q, want math", summaries[0].Name)
	}
	if summaries[0].Count != 2 || summaries[0].Average != 80 {
		t.Errorf("math summary = %+v", summaries[0])
	}
	if summaries[0].Lowest != 70 || summaries[0].Highest != 90 {
		t.Errorf("math extremes = %v..%v", summaries[0].Lowest, summaries[0].Highest)
	}
	if summaries[1].Name != "science" || summaries[1].Count != 1 {
		t.Errorf("science summary = %+v", summaries[1])
	}
}

func TestAggregate_EmptyStore(t *testing.T) {
	stats := Aggregate(nil, 10)

	if stats.Overview != (OverviewStats{}) {
		t.Errorf("overview = %+v, want zeros", stats.Overview)
	}
	if len(stats.GradeDistribution) != 0 {
		t.Errorf("distribution = %+v, want empty", stats.GradeDistribution)
	}
	if len(stats.TopStudents) != 0 || len(stats.Schools) != 0 || len(stats.Subjects) != 0 {
		t.Error("expected all empty slices for an empty store")
	}
}

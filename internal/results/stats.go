package results

// stats.go computes derived statistics over the current store contents.
// Every function is pure over the record slice it receives, tolerates an
// empty input without producing NaN, and rounds display values to the
// nearest integer where the reporting UI expects integers.

import (
	"math"
	"sort"
)

// Overview computes the headline numbers. An empty slice yields zeros.
func Overview(records []StudentRecord) OverviewStats {
	if len(records) == 0 {
		return OverviewStats{}
	}

	min := records[0].Average
	max := records[0].Average
	sum := 0.0
	for _, r := range records {
		if r.Average < min {
			min = r.Average
		}
		if r.Average > max {
			max = r.Average
		}
		sum += r.Average
	}

	return OverviewStats{
		TotalStudents: len(records),
		HighestScore:  int(math.Round(max)),
		AverageScore:  int(math.Round(sum / float64(len(records)))),
		LowestScore:   int(math.Round(min)),
	}
}

// GradeDistribution counts students per grade label present, with the
// percentage of the total. Buckets follow the canonical grade order.
func GradeDistribution(records []StudentRecord) []GradeBucket {
	if len(records) == 0 {
		return []GradeBucket{}
	}

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Grade]++
	}

	grades := make([]string, 0, len(counts))
	for g := range counts {
		grades = append(grades, g)
	}
	sort.Slice(grades, func(i, j int) bool {
		ri, rj := gradeRank(grades[i]), gradeRank(grades[j])
		if ri != rj {
			return ri < rj
		}
		return grades[i] < grades[j]
	})

	total := float64(len(records))
	buckets := make([]GradeBucket, 0, len(grades))
	for _, g := range grades {
		buckets = append(buckets, GradeBucket{
			Grade:      g,
			Count:      counts[g],
			Percentage: math.Round(float64(counts[g])/total*10000) / 100,
		})
	}
	return buckets
}

// TopN returns the n highest-averaging students. The sort is stable:
// ties keep their original insertion order, so repeated queries are
// deterministic.
func TopN(records []StudentRecord, n int) []StudentRecord {
	if n <= 0 || len(records) == 0 {
		return []StudentRecord{}
	}

	ranked := make([]StudentRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Average > ranked[j].Average
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// schoolKey groups records for the per-school rollup.
type schoolKey struct {
	school         string
	region         string
	administration string
}

// SchoolSummaries groups records by school+region+administration and
// reports count, average, pass rate, and extremes per group. Groups are
// ordered by count descending, then school name for determinism.
func SchoolSummaries(records []StudentRecord) []SchoolSummary {
	if len(records) == 0 {
		return []SchoolSummary{}
	}

	type agg struct {
		count int
		sum   float64
		pass  int
		min   float64
		max   float64
	}

	groups := make(map[schoolKey]*agg)
	var order []schoolKey

	for _, r := range records {
		key := schoolKey{r.SchoolName, r.Region, r.Administration}
		g, ok := groups[key]
		if !ok {
			g = &agg{min: r.Average, max: r.Average}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		g.sum += r.Average
		if r.Average >= PassThreshold {
			g.pass++
		}
		if r.Average < g.min {
			g.min = r.Average
		}
		if r.Average > g.max {
			g.max = r.Average
		}
	}

	summaries := make([]SchoolSummary, 0, len(order))
	for _, key := range order {
		g := groups[key]
		summaries = append(summaries, SchoolSummary{
			SchoolName:     key.school,
			Region:         key.region,
			Administration: key.administration,
			Count:          g.count,
			Average:        round2(g.sum / float64(g.count)),
			PassRate:       round2(float64(g.pass) / float64(g.count)),
			Lowest:         g.min,
			Highest:        g.max,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].SchoolName < summaries[j].SchoolName
	})

	return summaries
}

// SubjectSummaries groups every subject entry across all students by
// subject name, preserving first-seen subject order.
func SubjectSummaries(records []StudentRecord) []SubjectSummary {
	if len(records) == 0 {
		return []SubjectSummary{}
	}

	type agg struct {
		count int
		sum   float64
		min   float64
		max   float64
	}

	groups := make(map[string]*agg)
	var order []string

	for _, r := range records {
		for _, s := range r.Subjects {
			g, ok := groups[s.Name]
			if !ok {
				g = &agg{min: s.Score, max: s.Score}
				groups[s.Name] = g
				order = append(order, s.Name)
			}
			g.count++
			g.sum += s.Score
			if s.Score < g.min {
				g.min = s.Score
			}
			if s.Score > g.max {
				g.max = s.Score
			}
		}
	}

	summaries := make([]SubjectSummary, 0, len(order))
	for _, name := range order {
		g := groups[name]
		summaries = append(summaries, SubjectSummary{
			Name:    name,
			Count:   g.count,
			Average: round2(g.sum / float64(g.count)),
			Lowest:  g.min,
			Highest: g.max,
		})
	}

	return summaries
}

// Aggregate bundles every statistic for one stats request.
func Aggregate(records []StudentRecord, topN int) *AggregateStats {
	return &AggregateStats{
		Overview:          Overview(records),
		GradeDistribution: GradeDistribution(records),
		TopStudents:       TopN(records, topN),
		Schools:           SchoolSummaries(records),
		Subjects:          SubjectSummaries(records),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package results

// validate.go inspects a resolved candidate batch and produces a
// ValidationResult: blocking errors, non-blocking warnings, heuristic
// suggestions, and a 0-100 quality score.
//
// Blocking (errors):
//   - zero rows
//   - duplicate student_id within the batch
//   - rows missing student_id or name after resolution
//   - cells that should be numeric but are not (never coerced to 0)
//
// Non-blocking (warnings):
//   - subject scores outside [0,100]
//   - inconsistent subject counts across rows
//   - an optional field left unmapped while a source column plausibly
//     carries it
//
// Suggestions are non-binding hints about unused columns.

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// quality score weights. Completeness dominates; errors hurt more than
// warnings. The score is 100 only for a clean, fully complete batch and
// never increases when errors or warnings are added.
const (
	weightCompleteness = 0.5
	weightErrors       = 0.35
	weightWarnings     = 0.15
)

// fieldHints associates optional mapping fields with header fragments
// that suggest a source column carries that field. Both the English and
// Arabic spellings seen in real exam sheets are covered.
var fieldHints = map[string][]string{
	"school_column":         {"school", "مدرسة", "المدرسة"},
	"administration_column": {"administration", "إدارة", "ادارة", "الإدارة"},
	"class_column":          {"class", "فصل", "الفصل", "صف"},
	"section_column":        {"section", "شعبة", "الشعبة"},
	"school_code_column":    {"code", "كود", "رمز"},
	"total_column":          {"total", "مجموع", "المجموع"},
}

// ValidateBatch checks a resolved batch against all rules. Pure: it
// inspects only its arguments and never touches storage.
func ValidateBatch(candidates []Candidate, table *SourceTable, mapping ColumnMapping) *ValidationResult {
	res := &ValidationResult{
		Statistics: ValidationStatistics{
			TotalRows:    len(candidates),
			TotalColumns: len(table.Columns),
		},
	}

	if len(candidates) == 0 {
		res.Errors = append(res.Errors, ValidationIssue{
			Message: "the source contains no data rows",
		})
		res.IsValid = false
		return res
	}

	checkRequiredFields(candidates, res)
	checkDuplicateIDs(candidates, res)
	checkBadCells(candidates, res)

	checkScoreRange(candidates, res)
	checkSubjectConsistency(candidates, res)
	checkUnmappedFields(table, mapping, res)

	suggestUnusedColumns(table, mapping, res)

	res.IsValid = len(res.Errors) == 0
	res.Statistics.QualityScore = qualityScore(candidates, res)
	return res
}

// checkRequiredFields flags rows whose student_id or name resolved empty.
func checkRequiredFields(candidates []Candidate, res *ValidationResult) {
	missingID := 0
	missingName := 0
	for _, c := range candidates {
		if c.Record.StudentID == "" {
			missingID++
		}
		if c.Record.Name == "" {
			missingName++
		}
	}

	if missingID > 0 {
		res.Errors = append(res.Errors, ValidationIssue{
			Message: fmt.Sprintf("%d row(s) are missing a student identifier", missingID),
			Column:  "student_id",
			Count:   missingID,
		})
	}
	if missingName > 0 {
		res.Errors = append(res.Errors, ValidationIssue{
			Message: fmt.Sprintf("%d row(s) are missing a student name", missingName),
			Column:  "name",
			Count:   missingName,
		})
	}
}

// checkDuplicateIDs flags student ids appearing more than once in the
// batch. Count reports the number of duplicate groups, not rows.
func checkDuplicateIDs(candidates []Candidate, res *ValidationResult) {
	byID := make(map[string]int)
	for _, c := range candidates {
		if c.Record.StudentID != "" {
			byID[c.Record.StudentID]++
		}
	}

	var dups []string
	for id, n := range byID {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	if len(dups) == 0 {
		return
	}
	sort.Strings(dups)

	sample := dups
	if len(sample) > 5 {
		sample = sample[:5]
	}
	res.Errors = append(res.Errors, ValidationIssue{
		Message: fmt.Sprintf("duplicate student identifiers in batch: %s", strings.Join(sample, ", ")),
		Column:  "student_id",
		Count:   len(dups),
	})
}

// checkBadCells turns unparseable numeric cells into blocking errors,
// grouped per column.
func checkBadCells(candidates []Candidate, res *ValidationResult) {
	byColumn := make(map[string]int)
	example := make(map[string]BadCell)
	for _, c := range candidates {
		for _, bc := range c.BadCells {
			byColumn[bc.Column]++
			if _, ok := example[bc.Column]; !ok {
				example[bc.Column] = bc
			}
		}
	}

	cols := make([]string, 0, len(byColumn))
	for col := range byColumn {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		res.Errors = append(res.Errors, ValidationIssue{
			Message: fmt.Sprintf("%s (%d cell(s) affected)", describeBadCell(example[col]), byColumn[col]),
			Column:  col,
			Count:   byColumn[col],
		})
	}
}

// checkScoreRange warns about subject scores outside [0,100].
func checkScoreRange(candidates []Candidate, res *ValidationResult) {
	byColumn := make(map[string]int)
	for _, c := range candidates {
		for _, s := range c.Record.Subjects {
			if s.Score < 0 || s.Score > 100 {
				byColumn[s.Name]++
			}
		}
	}

	cols := make([]string, 0, len(byColumn))
	for col := range byColumn {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		res.Warnings = append(res.Warnings, ValidationIssue{
			Message: fmt.Sprintf("column %q has %d score(s) outside the 0-100 range", col, byColumn[col]),
			Column:  col,
			Count:   byColumn[col],
		})
	}
}

// checkSubjectConsistency warns when some rows are missing subjects that
// other rows have.
func checkSubjectConsistency(candidates []Candidate, res *ValidationResult) {
	affected := 0
	for _, c := range candidates {
		if c.MissingSubjects > 0 {
			affected++
		}
	}
	if affected == 0 || affected == len(candidates) {
		// Either every row is complete, or every row misses the same
		// columns; the latter is a mapping problem, not inconsistency.
		return
	}

	res.Warnings = append(res.Warnings, ValidationIssue{
		Message: fmt.Sprintf("%d row(s) have empty subject scores that other rows provide", affected),
		Count:   affected,
	})
}

// checkUnmappedFields warns when an optional field is unmapped but a
// source column name suggests the data exists.
func checkUnmappedFields(table *SourceTable, mapping ColumnMapping, res *ValidationResult) {
	used := usedColumns(mapping)

	fields := make([]string, 0, len(fieldHints))
	for f := range fieldHints {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if mappedColumnFor(field, mapping) != "" {
			continue
		}
		if col := matchingColumn(table, used, fieldHints[field]); col != "" {
			res.Warnings = append(res.Warnings, ValidationIssue{
				Message: fmt.Sprintf("column %q looks like it could map to %s, which is unmapped", col, field),
				Column:  col,
			})
		}
	}
}

// suggestUnusedColumns emits hints about columns the mapping ignores.
func suggestUnusedColumns(table *SourceTable, mapping ColumnMapping, res *ValidationResult) {
	used := usedColumns(mapping)

	for _, col := range table.Columns {
		if used[strings.ToLower(col)] {
			continue
		}
		res.Suggestions = append(res.Suggestions, ValidationIssue{
			Message: fmt.Sprintf("column %q is not used by the mapping", col),
			Column:  col,
		})
	}
}

// usedColumns builds a lowercase set of every column the mapping touches.
func usedColumns(mapping ColumnMapping) map[string]bool {
	used := make(map[string]bool)
	add := func(c string) {
		if c != "" {
			used[strings.ToLower(c)] = true
		}
	}
	add(mapping.StudentIDColumn)
	add(mapping.NameColumn)
	add(mapping.TotalColumn)
	for _, c := range mapping.SubjectColumns {
		add(c)
	}
	for _, c := range mapping.optionalColumns() {
		add(c)
	}
	return used
}

// mappedColumnFor returns the column mapped to a field hint key.
func mappedColumnFor(field string, mapping ColumnMapping) string {
	if field == "total_column" {
		return mapping.TotalColumn
	}
	return mapping.optionalColumns()[field]
}

// matchingColumn finds the first unused column whose header contains one
// of the hint fragments.
func matchingColumn(table *SourceTable, used map[string]bool, hints []string) string {
	for _, col := range table.Columns {
		if used[strings.ToLower(col)] {
			continue
		}
		lower := strings.ToLower(col)
		for _, hint := range hints {
			if strings.Contains(lower, hint) {
				return col
			}
		}
	}
	return ""
}

// qualityScore combines completeness, error density, and warning
// density into a 0-100 value. It is 100 only for a clean, complete
// batch and never increases as error or warning counts grow.
func qualityScore(candidates []Candidate, res *ValidationResult) int {
	rows := len(candidates)
	if rows == 0 {
		return 0
	}

	complete := 0
	for _, c := range candidates {
		if c.Record.StudentID != "" && c.Record.Name != "" {
			complete++
		}
	}
	completeness := float64(complete) / float64(rows)

	errDensity := issueDensity(res.Errors, rows)
	warnDensity := issueDensity(res.Warnings, rows)

	score := 100 * (weightCompleteness*completeness +
		weightErrors*(1-errDensity) +
		weightWarnings*(1-warnDensity))

	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// issueDensity weighs issues by their affected-row counts, capped at 1.
func issueDensity(issues []ValidationIssue, rows int) float64 {
	weight := 0
	for _, issue := range issues {
		n := issue.Count
		if n < 1 {
			n = 1
		}
		weight += n
	}
	d := float64(weight) / float64(rows)
	if d > 1 {
		return 1
	}
	return d
}

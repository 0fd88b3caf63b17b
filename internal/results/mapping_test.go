package results

import (
	"errors"
	"math"
	"testing"
)

func testTable(header []string, rows ...[]string) *SourceTable {
	table := &SourceTable{Columns: header}
	for _, r := range rows {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(r) {
				row[col] = r[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func TestColumnMappingValidate(t *testing.T) {
	table := testTable([]string{"id", "name", "math", "science"})

	tests := []struct {
		name      string
		mapping   ColumnMapping
		wantField string
	}{
		{
			name: "valid",
			mapping: ColumnMapping{
				StudentIDColumn: "id",
				NameColumn:      "name",
				SubjectColumns:  []string{"math", "science"},
			},
		},
		{
			name: "missing student id column",
			mapping: ColumnMapping{
				NameColumn:     "name",
				SubjectColumns: []string{"math"},
			},
			wantField: "student_id_column",
		},
		{
			name: "missing name column",
			mapping: ColumnMapping{
				StudentIDColumn: "id",
				SubjectColumns:  []string{"math"},
			},
			wantField: "name_column",
		},
		{
			name: "no subjects",
			mapping: ColumnMapping{
				StudentIDColumn: "id",
				NameColumn:      "name",
			},
			wantField: "subject_columns",
		},
		{
			name: "unknown subject column",
			mapping: ColumnMapping{
				StudentIDColumn: "id",
				NameColumn:      "name",
				SubjectColumns:  []string{"history"},
			},
			wantField: "subject_columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate(table)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var me *MappingError
			if !errors.As(err, &me) {
				t.Fatalf("expected *MappingError, got %v", err)
			}
			if me.Field != tt.wantField {
				t.Errorf("field = %q, want %q", me.Field, tt.wantField)
			}
		})
	}
}

func TestResolve_AverageIsMeanOfSubjects(t *testing.T) {
	table := testTable(
		[]string{"id", "name", "math", "science", "arabic"},
		[]string{"1", "Ali", "90", "85", "80"},
	)
	mapping := ColumnMapping{
		StudentIDColumn: "id",
		NameColumn:      "name",
		SubjectColumns:  []string{"math", "science", "arabic"},
	}

	candidates, err := Resolve(table, mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}

	rec := candidates[0].Record
	if math.Abs(rec.Average-85.0) > 1e-6 {
		t.Errorf("average = %v, want 85", rec.Average)
	}
	if rec.Grade != GradeExcellent {
		t.Errorf("grade = %q, want %q", rec.Grade, GradeExcellent)
	}
	if len(rec.Subjects) != 3 {
		t.Fatalf("subjects = %d, want 3", len(rec.Subjects))
	}
	if rec.Subjects[0].Name != "math" || rec.Subjects[0].Score != 90 {
		t.Errorf("subject[0] = %+v", rec.Subjects[0])
	}
}

func TestResolve_TotalColumnOverridesMean(t *testing.T) {
	table := testTable(
		[]string{"id", "name", "math", "total"},
		[]string{"1", "Ali", "90", "77.5"},
		[]string{"2", "Sara", "60", ""},
		[]string{"3", "Omar", "50", "abc"},
	)
	mapping := ColumnMapping{
		StudentIDColumn: "id",
		NameColumn:      "name",
		SubjectColumns:  []string{"math"},
		TotalColumn:     "total",
	}

	candidates, err := Resolve(table, mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Row 1: parseable total wins over the subject mean.
	if got := candidates[0].Record.Average; got != 77.5 {
		t.Errorf("row 1 average = %v, want 77.5", got)
	}
	if !candidates[0].TotalUsed {
		t.Error("row 1 should use the total column")
	}

	// Row 2: empty total falls back to the subject mean.
	if got := candidates[1].Record.Average; got != 60 {
		t.Errorf("row 2 average = %v, want 60", got)
	}
	if candidates[1].TotalUsed {
		t.Error("row 2 should not use the total column")
	}

	// Row 3: unparseable total falls back and is reported as a bad cell.
	if got := candidates[2].Record.Average; got != 50 {
		t.Errorf("row 3 average = %v, want 50", got)
	}
	if len(candidates[2].BadCells) != 1 || candidates[2].BadCells[0].Column != "total" {
		t.Errorf("row 3 bad cells = %+v, want one for total", candidates[2].BadCells)
	}
}

func TestResolve_NonNumericSubjectIsBadCell(t *testing.T) {
	table := testTable(
		[]string{"id", "name", "math", "science"},
		[]string{"1", "Ali", "N/A", "80"},
	)
	mapping := ColumnMapping{
		StudentIDColumn: "id",
		NameColumn:      "name",
		SubjectColumns:  []string{"math", "science"},
	}

	candidates, err := Resolve(table, mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cand := candidates[0]
	if len(cand.BadCells) != 1 {
		t.Fatalf("bad cells = %+v, want exactly one", cand.BadCells)
	}
	if cand.BadCells[0].Column != "math" || cand.BadCells[0].Value != "N/A" {
		t.Errorf("bad cell = %+v", cand.BadCells[0])
	}
	// The bad score contributes zero to the mean but is never dropped.
	if got := cand.Record.Average; got != 40 {
		t.Errorf("average = %v, want 40", got)
	}
}

func TestResolve_EmptySubjectCountsMissing(t *testing.T) {
	table := testTable(
		[]string{"id", "name", "math", "science"},
		[]string{"1", "Ali", "80", ""},
	)
	mapping := ColumnMapping{
		StudentIDColumn: "id",
		NameColumn:      "name",
		SubjectColumns:  []string{"math", "science"},
	}

	candidates, err := Resolve(table, mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cand := candidates[0]
	if cand.MissingSubjects != 1 {
		t.Errorf("missing subjects = %d, want 1", cand.MissingSubjects)
	}
	if len(cand.BadCells) != 0 {
		t.Errorf("bad cells = %+v, want none", cand.BadCells)
	}
	if got := cand.Record.Average; got != 40 {
		t.Errorf("average = %v, want 40", got)
	}
}

func TestResolve_TrimsAndMapsOptionalFields(t *testing.T) {
	table := testTable(
		[]string{"id", "name", "math", "school", "region code"},
		[]string{" 12345 ", "  Ali Hassan ", " 90 ", " Cairo High ", "CAI"},
	)
	mapping := ColumnMapping{
		StudentIDColumn:  "id",
		NameColumn:       "name",
		SubjectColumns:   []string{"math"},
		SchoolColumn:     "school",
		SchoolCodeColumn: "region code",
	}

	candidates, err := Resolve(table, mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := candidates[0].Record
	if rec.StudentID != "12345" {
		t.Errorf("student id = %q, want trimmed", rec.StudentID)
	}
	if rec.Name != "Ali Hassan" {
		t.Errorf("name = %q, want trimmed", rec.Name)
	}
	if rec.SchoolName != "Cairo High" {
		t.Errorf("school = %q", rec.SchoolName)
	}
	if rec.SchoolCode != "CAI" {
		t.Errorf("school code = %q", rec.SchoolCode)
	}
}

func TestResolve_CaseInsensitiveColumns(t *testing.T) {
	table := testTable(
		[]string{"ID", "Name", "Math"},
		[]string{"1", "Ali", "90"},
	)
	mapping := ColumnMapping{
		StudentIDColumn: "id",
		NameColumn:      "name",
		SubjectColumns:  []string{"math"},
	}

	candidates, err := Resolve(table, mapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := candidates[0].Record.StudentID; got != "1" {
		t.Errorf("student id = %q, want 1", got)
	}
	if got := candidates[0].Record.Average; got != 90 {
		t.Errorf("average = %v, want 90", got)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "integer", input: "90", want: 90, wantOK: true},
		{name: "decimal", input: "85.5", want: 85.5, wantOK: true},
		{name: "whitespace", input: " 70 ", want: 70, wantOK: true},
		{name: "percent suffix", input: "95%", want: 95, wantOK: true},
		{name: "thousands separator", input: "1,234", want: 1234, wantOK: true},
		{name: "arabic indic digits", input: "٩٥", want: 95, wantOK: true},
		{name: "extended arabic digits", input: "۸۷", want: 87, wantOK: true},
		{name: "arabic decimal separator", input: "٧٥٫٥", want: 75.5, wantOK: true},
		{name: "excel formula wrapper", input: `="88"`, want: 88, wantOK: true},
		{name: "negative", input: "-5", want: -5, wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "absent", wantOK: false},
		{name: "mixed", input: "90a", wantOK: false},
		{name: "double dot", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScore(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseScore(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseScore(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

package results

// mapping.go applies a ColumnMapping to a SourceTable, producing
// candidate StudentRecord values. This is the only place untyped source
// data crosses into the typed model.
//
// A cell that should be numeric but does not parse is never silently
// zeroed: the resolver records it as a bad cell and the validation
// engine turns it into a blocking error.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates a numeric cell after cleanup. Matches integers,
// decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// arabicDigits maps Arabic-Indic and Extended Arabic-Indic digits and the
// Arabic decimal separator to their ASCII forms. Exam sheets exported from
// Arabic-locale tools routinely mix both digit sets.
var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٫", ".", "٬", "",
)

// BadCell records a cell whose value could not be coerced to the type
// the mapping requires.
type BadCell struct {
	Column string
	Value  string
}

// Candidate is one resolved row: the record it would become plus any
// per-cell problems found on the way.
type Candidate struct {
	Record   StudentRecord
	Line     int // 1-based data row number
	BadCells []BadCell
	// MissingSubjects counts mapped subject columns whose cell was empty.
	MissingSubjects int
	// TotalUsed is true when the explicit total column supplied the average.
	TotalUsed bool
}

// Validate checks the mapping's structural invariants against the table:
// required fields must be present and must reference existing columns.
func (m ColumnMapping) Validate(table *SourceTable) error {
	if strings.TrimSpace(m.StudentIDColumn) == "" {
		return &MappingError{Field: "student_id_column", Msg: "required mapping field is empty"}
	}
	if strings.TrimSpace(m.NameColumn) == "" {
		return &MappingError{Field: "name_column", Msg: "required mapping field is empty"}
	}
	if len(m.SubjectColumns) == 0 {
		return &MappingError{Field: "subject_columns", Msg: "at least one subject column is required"}
	}

	if !table.HasColumn(m.StudentIDColumn) {
		return &MappingError{Field: "student_id_column", Column: m.StudentIDColumn, Msg: "column not found in source"}
	}
	if !table.HasColumn(m.NameColumn) {
		return &MappingError{Field: "name_column", Column: m.NameColumn, Msg: "column not found in source"}
	}
	for _, col := range m.SubjectColumns {
		if !table.HasColumn(col) {
			return &MappingError{Field: "subject_columns", Column: col, Msg: "column not found in source"}
		}
	}

	return nil
}

// optionalColumns lists the optional mapping fields and their targets,
// used by the resolver and by validation heuristics.
func (m ColumnMapping) optionalColumns() map[string]string {
	return map[string]string{
		"class_column":          m.ClassColumn,
		"section_column":        m.SectionColumn,
		"school_column":         m.SchoolColumn,
		"administration_column": m.AdministrationColumn,
		"school_code_column":    m.SchoolCodeColumn,
	}
}

// canonicalized rewrites every mapped column name to the exact header
// spelling the table uses, so lookups work when the mapping's casing
// differs from the file's.
func (m ColumnMapping) canonicalized(table *SourceTable) ColumnMapping {
	fix := func(name string) string {
		if name == "" {
			return ""
		}
		for _, c := range table.Columns {
			if strings.EqualFold(c, name) {
				return c
			}
		}
		return name
	}

	m.StudentIDColumn = fix(m.StudentIDColumn)
	m.NameColumn = fix(m.NameColumn)
	m.TotalColumn = fix(m.TotalColumn)
	m.ClassColumn = fix(m.ClassColumn)
	m.SectionColumn = fix(m.SectionColumn)
	m.SchoolColumn = fix(m.SchoolColumn)
	m.AdministrationColumn = fix(m.AdministrationColumn)
	m.SchoolCodeColumn = fix(m.SchoolCodeColumn)

	subjects := make([]string, len(m.SubjectColumns))
	for i, c := range m.SubjectColumns {
		subjects[i] = fix(c)
	}
	m.SubjectColumns = subjects

	return m
}

// Resolve applies the mapping to every row of the table.
//
// Averages come from the explicit total column when one is mapped and its
// cell parses; otherwise the average is the arithmetic mean of the
// resolved subject scores. An unparseable total falls back to the mean
// and is reported as a bad cell.
func Resolve(table *SourceTable, mapping ColumnMapping) ([]Candidate, error) {
	if err := mapping.Validate(table); err != nil {
		return nil, err
	}
	mapping = mapping.canonicalized(table)

	candidates := make([]Candidate, 0, len(table.Rows))

	for i, row := range table.Rows {
		cand := Candidate{Line: i + 1}

		rec := StudentRecord{
			StudentID:      row.Cell(mapping.StudentIDColumn),
			Name:           row.Cell(mapping.NameColumn),
			ClassName:      row.Cell(mapping.ClassColumn),
			Section:        row.Cell(mapping.SectionColumn),
			SchoolName:     row.Cell(mapping.SchoolColumn),
			Administration: row.Cell(mapping.AdministrationColumn),
			SchoolCode:     row.Cell(mapping.SchoolCodeColumn),
		}

		var sum float64
		for _, col := range mapping.SubjectColumns {
			raw := row.Cell(col)
			score := 0.0
			switch {
			case raw == "":
				cand.MissingSubjects++
			default:
				v, ok := ParseScore(raw)
				if !ok {
					cand.BadCells = append(cand.BadCells, BadCell{Column: col, Value: raw})
				} else {
					score = v
				}
			}
			sum += score
			rec.Subjects = append(rec.Subjects, Subject{Name: col, Score: score})
		}

		if len(rec.Subjects) > 0 {
			rec.Average = sum / float64(len(rec.Subjects))
		}

		if mapping.TotalColumn != "" {
			if raw := row.Cell(mapping.TotalColumn); raw != "" {
				if v, ok := ParseScore(raw); ok {
					rec.Average = v
					cand.TotalUsed = true
				} else {
					cand.BadCells = append(cand.BadCells, BadCell{Column: mapping.TotalColumn, Value: raw})
				}
			}
		}

		rec.Grade = GradeFor(rec.Average)
		cand.Record = rec
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

// ParseScore coerces a raw cell to a score value. It tolerates
// Arabic-Indic digits, thousands separators, and a trailing percent
// sign. Returns false for anything that does not parse to a finite
// number.
func ParseScore(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	s = arabicDigits.Replace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// describeBadCell renders a bad cell for a validation message.
func describeBadCell(c BadCell) string {
	return fmt.Sprintf("column %q has non-numeric value %q", c.Column, c.Value)
}

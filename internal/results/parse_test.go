package results

import (
	"errors"
	"testing"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCols []string
		wantRows int
		wantErr  bool
	}{
		{
			name:     "basic table",
			input:    "id,name,math\n1,Ali,90\n2,Sara,80\n",
			wantCols: []string{"id", "name", "math"},
			wantRows: 2,
		},
		{
			name:     "bom prefix stripped",
			input:    "\xef\xbb\xbfid,name\n1,Ali\n",
			wantCols: []string{"id", "name"},
			wantRows: 1,
		},
		{
			name:     "ragged rows tolerated",
			input:    "id,name,math\n1,Ali\n2,Sara,80,extra\n",
			wantCols: []string{"id", "name", "math"},
			wantRows: 2,
		},
		{
			name:     "all-empty row retained",
			input:    "id,name\n1,Ali\n,\n",
			wantCols: []string{"id", "name"},
			wantRows: 2,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "header only",
			input:   "id,name\n",
			wantErr: true,
		},
		{
			name:    "blank header cells only",
			input:   " , \n1,2\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseCSV([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected *ParseError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(table.Columns) != len(tt.wantCols) {
				t.Fatalf("columns = %v, want %v", table.Columns, tt.wantCols)
			}
			for i, c := range tt.wantCols {
				if table.Columns[i] != c {
					t.Errorf("column %d = %q, want %q", i, table.Columns[i], c)
				}
			}
			if len(table.Rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(table.Rows), tt.wantRows)
			}
		})
	}
}

func TestParseCSV_EmptyHeaderKeepsAlignment(t *testing.T) {
	// A blank header drops the column, but cells after it must still be
	// read from their original positions.
	table, err := ParseCSV([]byte("SeatNo,,Math\n1,Ali,80\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(table.Columns); got != 2 {
		t.Fatalf("columns = %v, want [SeatNo Math]", table.Columns)
	}
	if got := table.Rows[0].Cell("SeatNo"); got != "1" {
		t.Errorf("SeatNo = %q, want 1", got)
	}
	if got := table.Rows[0].Cell("Math"); got != "80" {
		t.Errorf("Math = %q, want 80", got)
	}
}

func TestParseCSV_ShortRowBackfill(t *testing.T) {
	table, err := ParseCSV([]byte("id,name,math\n1,Ali\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Rows[0].Cell("math"); got != "" {
		t.Errorf("missing cell = %q, want empty", got)
	}
	if got := table.Rows[0].Cell("name"); got != "Ali" {
		t.Errorf("name = %q, want Ali", got)
	}
}

func TestParseCSV_InvalidUTF8(t *testing.T) {
	// A lone 0xFF byte is not valid UTF-8; parsing should survive it.
	input := append([]byte("id,name\n1,A"), 0xFF, 'l', 'i', '\n')
	table, err := ParseCSV(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
}

func TestParseJSONRows(t *testing.T) {
	input := `[
		{"id": "1", "name": "Ali", "math": 90},
		{"id": "2", "name": "Sara", "math": 80.5},
		{"id": "3", "name": "Omar"}
	]`

	table, err := ParseJSONRows([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCols := []string{"id", "name", "math"}
	if len(table.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", table.Columns, wantCols)
	}
	for i, c := range wantCols {
		if table.Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, table.Columns[i], c)
		}
	}

	if got := table.Rows[1].Cell("math"); got != "80.5" {
		t.Errorf("numeric cell = %q, want 80.5", got)
	}
	if got := table.Rows[2].Cell("math"); got != "" {
		t.Errorf("omitted cell = %q, want empty", got)
	}
}

func TestParseJSONRows_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not an array", input: `{"id": "1"}`},
		{name: "empty array", input: `[]`},
		{name: "nested value", input: `[{"id": {"deep": 1}}]`},
		{name: "truncated", input: `[{"id": "1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJSONRows([]byte(tt.input)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Ali", want: "Ali"},
		{name: "whitespace trimmed", input: "  Ali  ", want: "Ali"},
		{name: "excel formula quote", input: `="12345"`, want: "12345"},
		{name: "surrounding quotes", input: `"Ali"`, want: "Ali"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHasColumn(t *testing.T) {
	table := &SourceTable{Columns: []string{"Student ID", "Name"}}

	if !table.HasColumn("student id") {
		t.Error("expected case-insensitive match for 'student id'")
	}
	if table.HasColumn("math") {
		t.Error("did not expect match for 'math'")
	}
}

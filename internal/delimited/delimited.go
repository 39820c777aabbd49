// Package delimited splits raw spreadsheet text into classified rows. The
// delimiter is inferred once from the header line and each cell is exposed
// both under its raw header name and under the semantic field(s) the header
// classified into.
package delimited

import (
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rfmelo/gestorpme/internal/classify"
	"github.com/rfmelo/gestorpme/internal/domain"
)

// ErrTooShort is returned when the input has fewer than two non-blank lines
// (a header plus at least one data row).
var ErrTooShort = errors.New("delimited: precisa de cabeçalho e ao menos uma linha de dados")

// Row is one data line: raw values keyed by header plus the classified record.
type Row struct {
	Raw    map[string]string
	Record domain.ImportRecord
}

// Table is the parsed result.
type Table struct {
	Headers   []string
	Delimiter rune
	Rows      []Row
}

// Records flattens the table into the transient records the merge executor
// consumes.
func (t *Table) Records() []domain.ImportRecord {
	out := make([]domain.ImportRecord, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.Record)
	}
	return out
}

// Parse splits raw delimited text into classified rows. Semicolon wins the
// delimiter sniff when present in the header line, otherwise comma. Values
// containing the delimiter must be quoted; blank lines are dropped.
func Parse(text string) (*Table, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 2 {
		return nil, ErrTooShort
	}

	delim := ','
	if strings.ContainsRune(lines[0], ';') {
		delim = ';'
	}

	headers := splitLine(lines[0], delim)
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, splitLine(line, delim))
	}

	t := fromRows(headers, rows)
	t.Delimiter = delim
	return t, nil
}

// ParseWorkbook reads the first sheet of an XLSX workbook and funnels it
// through the same header classification as delimited text.
func ParseWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrTooShort
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	var nonBlank [][]string
	for _, row := range all {
		blank := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			nonBlank = append(nonBlank, row)
		}
	}
	if len(nonBlank) < 2 {
		return nil, ErrTooShort
	}

	headers := make([]string, len(nonBlank[0]))
	for i, h := range nonBlank[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return fromRows(headers, nonBlank[1:]), nil
}

// fromRows maps raw cell matrices onto classified rows. When two columns
// classify into the same field the later column wins.
func fromRows(headers []string, rows [][]string) *Table {
	classified := make([]classify.Result, len(headers))
	for i, h := range headers {
		classified[i] = classify.Classify(h)
	}

	t := &Table{Headers: headers}
	for i, cells := range rows {
		row := Row{
			Raw:    make(map[string]string, len(headers)),
			Record: domain.ImportRecord{Line: i + 1},
		}
		for j, h := range headers {
			if j >= len(cells) {
				break
			}
			v := strings.TrimSpace(cells[j])
			row.Raw[h] = v
			for _, f := range classified[j].Fields {
				row.Record.Set(f, v)
			}
			if classified[j].ForceIncome {
				row.Record.ForceIncome = true
			}
			if classified[j].ForceExpense {
				row.Record.ForceExpense = true
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// splitLine is a delimiter-aware split that keeps quoted segments intact.
// It never fails: malformed quoting degrades to a best-effort split, which
// is what heterogeneous exports need.
func splitLine(line string, delim rune) []string {
	var (
		out      []string
		b        strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			out = append(out, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	out = append(out, b.String())
	return out
}

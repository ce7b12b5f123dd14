package roster

import (
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// ParseCSV reads a roster upload. The first row must be a header naming at
// least matric_number and full_name; department is optional. Rows that fail
// validation are reported with their line number and skipped rather than
// failing the whole upload.
func ParseCSV(r io.Reader) ([]Entry, Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, Report{}, ErrEmptyFile
		}
		return nil, Report{}, err
	}
	cols := headerIndex(header)
	matricCol, okMatric := cols["matric_number"]
	nameCol, okName := cols["full_name"]
	if !okMatric || !okName {
		return nil, Report{}, ErrBadHeader
	}
	deptCol, hasDept := cols["department"]

	var (
		entries []Entry
		report  Report
		seen    = make(map[string]struct{})
		line    = 1
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Rejected++
			report.RowErrors = append(report.RowErrors, RowError{Line: line, Reason: "malformed row"})
			continue
		}
		entry, reason := buildEntry(record, matricCol, nameCol, deptCol, hasDept)
		if reason != "" {
			report.Rejected++
			report.RowErrors = append(report.RowErrors, RowError{Line: line, Reason: reason})
			continue
		}
		if _, dup := seen[entry.MatricNumber]; dup {
			report.Rejected++
			report.RowErrors = append(report.RowErrors, RowError{Line: line, Reason: "duplicate matric number"})
			continue
		}
		seen[entry.MatricNumber] = struct{}{}
		entries = append(entries, entry)
		report.Accepted++
	}
	if report.Accepted == 0 && report.Rejected == 0 {
		return nil, Report{}, ErrEmptyFile
	}
	return entries, report, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func buildEntry(record []string, matricCol, nameCol, deptCol int, hasDept bool) (Entry, string) {
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	matric := strings.ToUpper(field(matricCol))
	if matric == "" {
		return Entry{}, "missing matric number"
	}
	name := field(nameCol)
	if name == "" {
		return Entry{}, "missing full name"
	}
	entry := Entry{
		MatricNumber: matric,
		FullName:     titleCaser.String(strings.ToLower(name)),
	}
	if hasDept {
		entry.Department = strings.ToUpper(field(deptCol))
	}
	return entry, ""
}

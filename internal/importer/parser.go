package importer

import (
	"strings"
)

// Document is the parsed shape of an uploaded delimited-text file: the first
// record becomes the headers, every following record a row keyed by header.
type Document struct {
	Headers []string
	Rows    []Row
}

// Row carries one data record plus its 1-indexed line number in the source
// file (counting the header line), used for operator-facing error messages.
type Row struct {
	Line   int
	Values map[string]string
}

// Parse converts raw text into headers and rows. The scanner is deliberately
// lenient: malformed quoting degrades gracefully instead of failing, blank
// lines are dropped, and short rows are padded with empty strings.
func Parse(raw string) *Document {
	records := scanRecords(normalizeNewlines(raw))
	doc := &Document{}
	if len(records) == 0 {
		return doc
	}

	doc.Headers = records[0]
	doc.Rows = make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		values := make(map[string]string, len(doc.Headers))
		for j, header := range doc.Headers {
			if j < len(record) {
				values[header] = record[j]
			} else {
				values[header] = ""
			}
		}
		doc.Rows = append(doc.Rows, Row{Line: i + 2, Values: values})
	}
	return doc
}

func normalizeNewlines(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.ReplaceAll(raw, "\r", "\n")
}

// scanRecords walks the text character by character tracking quote state.
// A doubled quote inside a quoted field emits a literal quote; separators
// and newlines inside quotes are payload.
func scanRecords(text string) [][]string {
	var (
		records  [][]string
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	endField := func() {
		fields = append(fields, strings.TrimSpace(current.String()))
		current.Reset()
	}
	endRecord := func() {
		endField()
		// a record with a single empty field was a blank line
		if len(fields) == 1 && fields[0] == "" {
			fields = nil
			return
		}
		records = append(records, fields)
		fields = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			endField()
		case ch == '\n' && !inQuotes:
			endRecord()
		default:
			current.WriteRune(ch)
		}
	}
	endRecord()
	return records
}

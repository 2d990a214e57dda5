// Package fileutil provides the file access helpers shared by the static
// site tools and the registration service.
package fileutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// InvalidUTF8Error reports CSV input that is not UTF-8.
type InvalidUTF8Error struct {
	Offset int
	Byte   byte
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("invalid UTF-8 byte 0x%02x at offset %d", e.Byte, e.Offset)
}

func checkUTF8(data []byte) error {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return &InvalidUTF8Error{Offset: i, Byte: data[i]}
		}
		i += size
	}
	return nil
}

// Row is a single CSV record keyed by column header.
type Row map[string]string

// ReadUTF8CSV reads a UTF-8 CSV file (with optional BOM) into rows keyed by
// the header line.
func ReadUTF8CSV(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	rows, err := ReadUTF8CSVBytes(data, ',')
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	return rows, nil
}

// ReadUTF8CSVBytes parses CSV bytes with the given delimiter. Input that
// is not UTF-8 fails with *InvalidUTF8Error.
func ReadUTF8CSVBytes(data []byte, delim rune) ([]Row, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if err := checkUTF8(data); err != nil {
		return nil, err
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(header))
		for i, key := range header {
			if i < len(record) {
				row[key] = record[i]
			} else {
				row[key] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteUTF8CSVBytes renders rows as a UTF-8 CSV document with BOM and CRLF
// line endings. Only the given keys are written, in order; a key missing
// from a row is written as an empty field.
func WriteUTF8CSVBytes(rows []Row, keys []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	writeRecord(&buf, keys)
	buf.WriteString("\r\n")
	record := make([]string, len(keys))
	for _, row := range rows {
		for i, key := range keys {
			record[i] = row[key]
		}
		writeRecord(&buf, record)
		buf.WriteString("\r\n")
	}
	return buf.Bytes(), nil
}

// writeRecord writes one record with minimal quoting: a field is quoted
// only when it holds a comma, a double quote or a line break, and a
// record made of one empty field is written as "".
func writeRecord(buf *bytes.Buffer, record []string) {
	if len(record) == 1 && record[0] == "" {
		buf.WriteString(`""`)
		return
	}
	for i, field := range record {
		if i > 0 {
			buf.WriteByte(',')
		}
		if !strings.ContainsAny(field, ",\"\r\n") {
			buf.WriteString(field)
			continue
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
}

// WriteUTF8CSV writes rows to path atomically.
func WriteUTF8CSV(path string, rows []Row, keys []string) error {
	data, err := WriteUTF8CSVBytes(rows, keys)
	if err != nil {
		return fmt.Errorf("encode csv %s: %w", path, err)
	}
	return WriteBytesAtomic(path, data)
}

// CommaJoin encodes a list as a single CSV row without a line terminator.
func CommaJoin(values []string) string {
	if len(values) == 0 {
		return ""
	}
	var buf bytes.Buffer
	writeRecord(&buf, values)
	return buf.String()
}

// CommaSplit decodes a list produced by CommaJoin.
func CommaSplit(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	r := csv.NewReader(strings.NewReader(s))
	r.FieldsPerRecord = -1
	r.LazyQuotes = false
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", s, err)
	}
	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("split %q: more than one row", s)
	}
	return record, nil
}

package extraction

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ReadStats counts what the permissive reader had to work around
type ReadStats struct {
	Rows      int
	Malformed int // records that could not be parsed and were skipped
	Ragged    int // records padded or truncated to the header width
}

// LookupEncoding resolves a configured encoding name. A nil encoding means the
// input is read as UTF-8 without transformation.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported file encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported file encoding %q", name)
	}
	return enc, nil
}

// ReadCSVFile loads a whole CSV file into a frame
func ReadCSVFile(path string, enc encoding.Encoding) (*Frame, ReadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	frame, stats, err := ReadCSV(file, enc)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return frame, stats, nil
}

// ReadCSV parses CSV with a header row. Quotes are handled leniently, rows of
// the wrong width are fitted to the header and unparseable records are skipped.
func ReadCSV(r io.Reader, enc encoding.Encoding) (*Frame, ReadStats, error) {
	var stats ReadStats
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("file is empty")
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	frame := NewFrame(header)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Malformed++
				continue
			}
			return nil, stats, err
		}
		if len(record) != len(header) {
			stats.Ragged++
		}
		frame.AppendRow(record)
	}

	stats.Rows = frame.Len()
	return frame, stats, nil
}

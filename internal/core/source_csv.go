package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const utf8BOM = "\xef\xbb\xbf"

// sniffSize bounds how much decoded text is inspected to find the header line.
const sniffSize = 64 * 1024

// Text encodings reported by decodeText.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// decodeText returns a UTF-8 stream over data. Bytes that are not valid
// UTF-8 are taken as a sign of a legacy export and decoded as Windows-1252,
// which covers ISO-8859-1 for printable text. This is a heuristic, not
// charset detection.
func decodeText(data []byte) (io.Reader, string) {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if utf8.Valid(data) {
		return bytes.NewReader(data), EncodingUTF8
	}
	return transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder()), EncodingWindows1252
}

// detectDelimiter picks ';' only when the header line has strictly more
// semicolons than commas.
func detectDelimiter(headerLine string) rune {
	if strings.Count(headerLine, ";") > strings.Count(headerLine, ",") {
		return ';'
	}
	return ','
}

// firstLine returns the first line of buf holding non-space characters.
func firstLine(buf []byte) (string, bool) {
	for len(buf) > 0 {
		line := buf
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, buf = buf[:i], buf[i+1:]
		} else {
			buf = nil
		}
		if s := strings.TrimSpace(string(line)); s != "" {
			return s, true
		}
	}
	return "", false
}

// spaceOnly reports whether a record came from a line holding only
// whitespace, the lines firstLine passes over.
func spaceOnly(cells []string) bool {
	return len(cells) == 1 && strings.TrimSpace(cells[0]) == ""
}

type delimitedSource struct {
	r          *csv.Reader
	layout     headerLayout
	headerLine int
	pending    *RawRow

	Delimiter rune
	Encoding  string
}

func newDelimitedSource(data []byte) (*delimitedSource, error) {
	text, enc := decodeText(data)
	br := bufio.NewReaderSize(text, sniffSize)

	peek, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, sourceErr(DelimitedText, ErrUnreadableSource, err)
	}
	header, ok := firstLine(peek)
	if !ok {
		return nil, sourceErr(DelimitedText, ErrEmptySource, nil)
	}

	s := &delimitedSource{Delimiter: detectDelimiter(header), Encoding: enc}
	s.r = csv.NewReader(br)
	s.r.Comma = s.Delimiter
	s.r.FieldsPerRecord = -1
	s.r.LazyQuotes = true
	s.r.TrimLeadingSpace = true

	// Whitespace-only lines before the header are skipped, as firstLine
	// does when sniffing the delimiter.
	var cells []string
	for {
		cells, err = s.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, sourceErr(DelimitedText, ErrEmptySource, nil)
			}
			return nil, sourceErr(DelimitedText, ErrUnreadableSource, err)
		}
		if !spaceOnly(cells) {
			break
		}
	}
	s.headerLine, _ = s.r.FieldPos(0)

	layout, found := newHeaderLayout(cells)
	if !found {
		return nil, sourceErr(DelimitedText, ErrNoContainerStructure, nil)
	}
	s.layout = layout

	first, err := s.read()
	if errors.Is(err, io.EOF) {
		return nil, sourceErr(DelimitedText, ErrEmptyDataset, nil)
	}
	if err != nil {
		return nil, err
	}
	s.pending = &first

	slog.Debug("delimited source opened",
		"encoding", enc,
		"delimiter", string(s.Delimiter),
		"columns", len(layout.headers()))

	return s, nil
}

func (s *delimitedSource) read() (RawRow, error) {
	cells, err := s.r.Read()
	if errors.Is(err, io.EOF) {
		return RawRow{}, io.EOF
	}
	if err != nil {
		return RawRow{}, sourceErr(DelimitedText, ErrUnreadableSource, err)
	}
	line, _ := s.r.FieldPos(0)
	return s.layout.row(line-s.headerLine+1, cells), nil
}

func (s *delimitedSource) Next() (RawRow, error) {
	if s.pending != nil {
		r := *s.pending
		s.pending = nil
		return r, nil
	}
	return s.read()
}

func (s *delimitedSource) Headers() []string { return s.layout.headers() }

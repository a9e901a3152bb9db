package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	return &csvStreamer{buf: buf, csv: csv.NewWriter(buf), flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

// WriteRegisterCSV streams register rows (header included) as CSV.
func WriteRegisterCSV(w io.Writer, rows [][]string) error {
	s := newCSVStreamer(w)
	for i, row := range rows {
		if err := s.writeRow(row); err != nil {
			return fmt.Errorf("export: csv row %d: %w", i, err)
		}
	}
	return s.flush()
}

// CSVFilename names the download for year.
func CSVFilename(year int) string {
	return fmt.Sprintf("diary_report_%d.csv", year)
}
